package key_builder

type OptionFn func(*KeyBuilder)

// WithBufferPool makes the builder take its heap buffers from the shared byte
// buffer pool and hand them back when it outgrows them or on Release. Slices
// returned before a growth must then be treated as dead.
func WithBufferPool() OptionFn {
	return func(b *KeyBuilder) {
		b.usePool = true
	}
}

// WithIsUserKey sets the initial mode, picked up by SetKey.
func WithIsUserKey(isUserKey bool) OptionFn {
	return func(b *KeyBuilder) {
		b.isUserKey = isUserKey
	}
}
