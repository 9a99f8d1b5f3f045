//go:build !noinvariants

package invariants

// Enabled is true unless the module is built with the noinvariants tag.
const Enabled = true
