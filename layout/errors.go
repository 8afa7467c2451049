package layout

import "errors"

var (
	ErrBufferTooShort   = errors.New("buffer is shorter than its declared layout")
	ErrWrongAccountKind = errors.New("account flags do not match the expected account kind")
	ErrInvalidPadding   = errors.New("padding region contains nonzero bytes")
	ErrInvalidNodeTag   = errors.New("slab node tag is not a known variant")
)
