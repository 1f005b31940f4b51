package mgcerr

import (
	"fmt"
	"io"
)

// Warner is the bounded, fire-at-most-once-per-format-string warning
// channel described in spec.md §7. In strict mode, Warn returns the warning
// as an error instead of emitting it, so a caller that treats warnings as
// fatal can just check the return value.
type Warner struct {
	w       io.Writer
	strict  bool
	limit   int
	seen    map[string]int
}

func NewWarner(w io.Writer, strict bool) *Warner {
	return &Warner{w: w, strict: strict, limit: 1, seen: make(map[string]int)}
}

// WithLimit overrides the default of one occurrence per format string.
func (wn *Warner) WithLimit(n int) *Warner {
	wn.limit = n
	return wn
}

// Warn reports a warning identified by format (the dedup key). It returns a
// non-nil error only in strict mode, converting the warning into a thrown
// RuntimeError as spec.md §7 requires.
func (wn *Warner) Warn(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if wn.strict {
		return NewRuntimeError("%s", msg)
	}
	if wn.seen[format] >= wn.limit {
		return nil
	}
	wn.seen[format]++
	if wn.w != nil {
		fmt.Fprintf(wn.w, "warning: %s\n", msg)
	}
	return nil
}
