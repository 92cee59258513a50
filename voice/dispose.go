package voice

import "sort"

// DisposeComponents releases every bundle in components, in id order. Each
// bundle is disposed at most once; a panicking manager is logged and the
// remaining bundles are still released.
func DisposeComponents(components map[string]*NodeBundle) {
	ids := make([]string, 0, len(components))
	for id := range components {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		disposeBundle(components[id])
	}
}

func disposeBundle(b *NodeBundle) {
	if b == nil || b.disposed {
		return
	}
	b.disposed = true

	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Msg("dispose panicked")
			b.disposeNodes()
		}
	}()
	if b.manager == nil {
		b.disposeNodes()
		return
	}
	b.manager.Dispose(b)
}
