package crypto

import "errors"

// ErrMalformedKeyOrSignature is wrapped by every SEC/DER decoding failure.
var ErrMalformedKeyOrSignature = errors.New("crypto: malformed key or signature")
