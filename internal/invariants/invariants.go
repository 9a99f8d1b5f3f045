// Package invariants reports programming errors: preconditions that a correct
// caller never violates. They are not returned as errors.
package invariants

import "go.uber.org/zap"

// Check logs and panics with msg if cond is false and invariant checking is
// compiled in. It takes no fields so that hot paths stay allocation free;
// call sites that want context guard Violation with Enabled themselves.
func Check(cond bool, msg string) {
	if Enabled && !cond {
		Violation(msg)
	}
}

// Violation unconditionally reports a broken invariant. zap panics after
// writing the entry even when the global logger is a no-op.
func Violation(msg string, fields ...zap.Field) {
	zap.L().Panic(msg, fields...)
}
