package execengine

import "fmt"

// wrapf mirrors the teacher's plain fmt.Errorf("...: %w", err) idiom for
// attaching the failing table/column name to a sentinel error, per
// SPEC_FULL.md §7's typed-result widening.
func wrapf(err error, context string) error {
	return fmt.Errorf("%s: %w", context, err)
}
