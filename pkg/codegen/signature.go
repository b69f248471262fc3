package codegen

import (
	"fmt"
	"strings"

	"github.com/kioco/OAP/pkg/util"
)

// kernelBuildVersion is folded into every signature. Bump it when the
// program layout or the kernel ABI changes: old artifacts become
// unreachable instead of being misread.
const kernelBuildVersion = "v1"

// Signature is the deterministic fingerprint of a sort request. Desc is
// the full human-readable descriptor and the cache key (injective by
// construction); Hex is a fixed-width hash naming the on-disk artifact.
type Signature struct {
	Desc string
	Hex  string
}

func (sig *Signature) String() string {
	return sig.Hex
}

// BuildSignature derives the signature of a sort spec. Pure function:
// structurally equal specs map to the same signature, permuting the key
// list changes it.
func BuildSignature(spec *SortSpec) *Signature {
	sb := strings.Builder{}
	sb.WriteString("[Sorter]")
	if spec.NullsFirst {
		sb.WriteString("nulls_first|")
	} else {
		sb.WriteString("nulls_last|")
	}
	if spec.Ascending {
		sb.WriteString("asc|")
	} else {
		sb.WriteString("desc|")
	}
	sb.WriteString(kernelBuildVersion)
	for i, key := range spec.Keys {
		fmt.Fprintf(&sb, "[sort_key_%d]%s", i, key)
	}
	sb.WriteString("[schema]")
	for _, col := range spec.Schema {
		fmt.Fprintf(&sb, "%s:%s,", col.Name, col.LTyp.String())
	}
	desc := sb.String()
	data := util.UnsafeStringToBytes(desc)
	h := util.HashBytes(util.BytesSliceToPointer(data), uint64(len(data)))
	return &Signature{
		Desc: desc,
		Hex:  fmt.Sprintf("%016x", h),
	}
}
