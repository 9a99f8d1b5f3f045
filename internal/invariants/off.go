//go:build noinvariants

package invariants

const Enabled = false
