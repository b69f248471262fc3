package common

import (
	"fmt"
)

type Hugeint struct {
	Lower uint64
	Upper int64
}

func (h Hugeint) String() string {
	return fmt.Sprintf("[%d %d]", h.Upper, h.Lower)
}

func (h *Hugeint) Equal(o *Hugeint) bool {
	return h.Lower == o.Lower && h.Upper == o.Upper
}

// Less orders by the signed upper word first, then the unsigned lower.
func (h *Hugeint) Less(lhs, rhs *Hugeint) bool {
	if lhs.Upper != rhs.Upper {
		return lhs.Upper < rhs.Upper
	}
	return lhs.Lower < rhs.Lower
}

func (h *Hugeint) Greater(lhs, rhs *Hugeint) bool {
	if lhs.Upper != rhs.Upper {
		return lhs.Upper > rhs.Upper
	}
	return lhs.Lower > rhs.Lower
}
