package analytics

// ordered is a map that remembers insertion order. Tie-breaks in every
// ranked output fall back to this order, which keeps results reproducible.
type ordered[K comparable, V any] struct {
	keys  []K
	index map[K]*V
}

func newOrdered[K comparable, V any]() *ordered[K, V] {
	return &ordered[K, V]{index: make(map[K]*V)}
}

// at returns the slot for key, creating it with init when absent.
func (o *ordered[K, V]) at(key K, init func() V) *V {
	if v, ok := o.index[key]; ok {
		return v
	}
	v := init()
	o.index[key] = &v
	o.keys = append(o.keys, key)
	return &v
}

func (o *ordered[K, V]) get(key K) (*V, bool) {
	v, ok := o.index[key]
	return v, ok
}

func (o *ordered[K, V]) len() int {
	return len(o.keys)
}

func (o *ordered[K, V]) each(fn func(K, *V)) {
	for _, k := range o.keys {
		fn(k, o.index[k])
	}
}

func zero[V any]() V {
	var v V
	return v
}
