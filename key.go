package issuecache

// KeyResolver derives store keys for file handles.
type KeyResolver interface {
	// ResolveKey returns the store key for h, or false when h cannot be
	// expressed as a key. An unresolvable handle is not an error.
	ResolveKey(h FileHandle) (string, bool)
}

// KeyResolverFunc adapts a plain function to KeyResolver.
type KeyResolverFunc func(h FileHandle) (string, bool)

// ResolveKey calls f(h).
func (f KeyResolverFunc) ResolveKey(h FileHandle) (string, bool) {
	return f(h)
}

// ResolveKey maps h to its forward-slash path relative to root.
//
// It returns false when h is nil or invalid, or when its path is the root
// itself or lies outside root.
func ResolveKey(root string, h FileHandle) (string, bool) {
	if h == nil || !h.IsValid() {
		return "", false
	}
	return RelPath(root, h.Path())
}
