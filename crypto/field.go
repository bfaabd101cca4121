package crypto

import "math/big"

var (
	// P is the secp256k1 field prime 2^256 - 2^32 - 977.
	P, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f", 16)

	// N is the order of the generator point.
	N, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

	curveB = NewFieldElement(big.NewInt(7))

	// (P+1)/4, valid because P % 4 == 3.
	sqrtExp = new(big.Int).Rsh(new(big.Int).Add(P, big.NewInt(1)), 2)
	invExp  = new(big.Int).Sub(P, big.NewInt(2))
)

// FieldElement is an immutable element of the secp256k1 base field.
type FieldElement struct {
	n *big.Int
}

// NewFieldElement reduces n modulo P.
func NewFieldElement(n *big.Int) FieldElement {
	return FieldElement{n: new(big.Int).Mod(n, P)}
}

func (f FieldElement) Int() *big.Int {
	if f.n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(f.n)
}

func (f FieldElement) value() *big.Int {
	if f.n == nil {
		return new(big.Int)
	}
	return f.n
}

func (f FieldElement) Equal(o FieldElement) bool {
	return f.value().Cmp(o.value()) == 0
}

func (f FieldElement) IsZero() bool {
	return f.value().Sign() == 0
}

func (f FieldElement) Add(o FieldElement) FieldElement {
	return NewFieldElement(new(big.Int).Add(f.value(), o.value()))
}

func (f FieldElement) Sub(o FieldElement) FieldElement {
	return NewFieldElement(new(big.Int).Sub(f.value(), o.value()))
}

func (f FieldElement) Mul(o FieldElement) FieldElement {
	return NewFieldElement(new(big.Int).Mul(f.value(), o.value()))
}

func (f FieldElement) MulInt(k int64) FieldElement {
	return NewFieldElement(new(big.Int).Mul(f.value(), big.NewInt(k)))
}

// Pow raises f to e; negative exponents are reduced modulo P-1 first.
func (f FieldElement) Pow(e *big.Int) FieldElement {
	pm1 := new(big.Int).Sub(P, big.NewInt(1))
	exp := new(big.Int).Mod(e, pm1)
	return FieldElement{n: new(big.Int).Exp(f.value(), exp, P)}
}

// Inverse uses Fermat's little theorem. The inverse of zero is zero.
func (f FieldElement) Inverse() FieldElement {
	return FieldElement{n: new(big.Int).Exp(f.value(), invExp, P)}
}

func (f FieldElement) Div(o FieldElement) FieldElement {
	return f.Mul(o.Inverse())
}

// Sqrt returns a square root of f and whether f is a quadratic residue.
func (f FieldElement) Sqrt() (FieldElement, bool) {
	r := FieldElement{n: new(big.Int).Exp(f.value(), sqrtExp, P)}
	return r, r.Mul(r).Equal(f)
}

func (f FieldElement) IsEven() bool {
	return f.value().Bit(0) == 0
}

func (f FieldElement) String() string {
	return f.value().Text(16)
}
