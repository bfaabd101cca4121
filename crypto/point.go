package crypto

import (
	"fmt"
	"math/big"
)

// Point is an affine point on y^2 = x^3 + 7 over the secp256k1 field.
// The zero value is the point at infinity.
type Point struct {
	x, y FieldElement
	inf  bool
	set  bool
}

var (
	gx, _ = new(big.Int).SetString("79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798", 16)
	gy, _ = new(big.Int).SetString("483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8", 16)

	// G is the secp256k1 generator.
	G = Point{x: NewFieldElement(gx), y: NewFieldElement(gy), set: true}
)

// Infinity returns the additive identity.
func Infinity() Point {
	return Point{inf: true, set: true}
}

// NewPoint returns the point (x, y) or an error when it is not on the curve.
func NewPoint(x, y *big.Int) (Point, error) {
	if x.Sign() < 0 || x.Cmp(P) >= 0 || y.Sign() < 0 || y.Cmp(P) >= 0 {
		return Point{}, fmt.Errorf("%w: coordinate out of range", ErrMalformedKeyOrSignature)
	}
	p := Point{x: NewFieldElement(x), y: NewFieldElement(y), set: true}
	if !p.IsOnCurve() {
		return Point{}, fmt.Errorf("%w: point not on curve", ErrMalformedKeyOrSignature)
	}
	return p, nil
}

func (p Point) IsInfinity() bool {
	return p.inf || !p.set
}

func (p Point) X() *big.Int { return p.x.Int() }
func (p Point) Y() *big.Int { return p.y.Int() }

func (p Point) IsOnCurve() bool {
	if p.IsInfinity() {
		return true
	}
	lhs := p.y.Mul(p.y)
	rhs := p.x.Mul(p.x).Mul(p.x).Add(curveB)
	return lhs.Equal(rhs)
}

func (p Point) Equal(o Point) bool {
	if p.IsInfinity() || o.IsInfinity() {
		return p.IsInfinity() == o.IsInfinity()
	}
	return p.x.Equal(o.x) && p.y.Equal(o.y)
}

// Add implements the affine group law.
func (p Point) Add(o Point) Point {
	if p.IsInfinity() {
		return o
	}
	if o.IsInfinity() {
		return p
	}
	if p.x.Equal(o.x) {
		if p.y.Equal(o.y) {
			return p.Double()
		}
		// Vertical line: p == -o.
		return Infinity()
	}
	s := o.y.Sub(p.y).Div(o.x.Sub(p.x))
	x3 := s.Mul(s).Sub(p.x).Sub(o.x)
	y3 := s.Mul(p.x.Sub(x3)).Sub(p.y)
	return Point{x: x3, y: y3, set: true}
}

func (p Point) Double() Point {
	if p.IsInfinity() || p.y.IsZero() {
		return Infinity()
	}
	// s = 3x^2 / 2y
	s := p.x.Mul(p.x).MulInt(3).Div(p.y.MulInt(2))
	x3 := s.Mul(s).Sub(p.x.MulInt(2))
	y3 := s.Mul(p.x.Sub(x3)).Sub(p.y)
	return Point{x: x3, y: y3, set: true}
}

// ScalarMult computes k*p by double-and-add. k is reduced modulo N.
func (p Point) ScalarMult(k *big.Int) Point {
	coef := new(big.Int).Mod(k, N)
	result := Infinity()
	current := p
	for i := 0; i < coef.BitLen(); i++ {
		if coef.Bit(i) == 1 {
			result = result.Add(current)
		}
		current = current.Double()
	}
	return result
}

// ScalarBaseMult computes k*G.
func ScalarBaseMult(k *big.Int) Point {
	return G.ScalarMult(k)
}

func (p Point) String() string {
	if p.IsInfinity() {
		return "Point(infinity)"
	}
	return fmt.Sprintf("Point(%s, %s)", p.x, p.y)
}
