package serum

import (
	"errors"

	"github.com/0x5487/serum-book/layout"
	"github.com/0x5487/serum-book/structure"
)

var (
	ErrBufferTooShort   = layout.ErrBufferTooShort
	ErrWrongAccountKind = layout.ErrWrongAccountKind
	ErrInvalidPadding   = layout.ErrInvalidPadding
	ErrInvalidNodeTag   = layout.ErrInvalidNodeTag
	ErrCorruptSlab      = structure.ErrCorruptSlab

	ErrInvalidMarket = errors.New("market lot sizes must be positive")
	ErrInvalidParam  = errors.New("the param is invalid")
	ErrNotFill       = errors.New("event is not a fill")
)
