package store

import "sort"

// ID is a stable integer identity for an Object Store entry.
type ID uint64

// Key is an ordered tuple used by a secondary index; its elements are
// compared lexicographically by compareKey. Every traversal uses a declared
// index so iteration is deterministic across nodes (spec.md §4.1, §5).
type Key []any

// KeyFunc derives a secondary-index key from an object.
type KeyFunc[T any] func(T) Key

// Table is a typed, indexed, undo-aware collection parameterized by a
// primary ordered key (ID) and zero or more secondary composite-key
// indices.
type Table[T any] struct {
	stack   *UndoStack
	nextID  ID
	items   map[ID]T
	primary []ID // ascending primary order
	indices map[string]*index[T]
}

type index[T any] struct {
	keyFn KeyFunc[T]
	pairs []pair // kept sorted by (key, id)
}

type pair struct {
	key Key
	id  ID
}

// NewTable returns an empty Table backed by the given undo stack.
func NewTable[T any](stack *UndoStack) *Table[T] {
	return &Table[T]{
		stack:   stack,
		items:   make(map[ID]T),
		indices: make(map[string]*index[T]),
	}
}

// AddIndex registers a secondary index under name, deriving keys with fn.
// Must be called before any Create if the index should cover existing rows;
// in practice all indices are registered at Table construction time.
func (t *Table[T]) AddIndex(name string, fn KeyFunc[T]) {
	t.indices[name] = &index[T]{keyFn: fn}
}

// compareKey compares two keys lexicographically. Supported element types:
// int64, uint64, int, float64, string, bool. ID is compared as uint64.
func compareKey(a, b Key) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c := compareScalar(a[i], b[i])
		if c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareScalar(a, b any) int {
	switch av := a.(type) {
	case int64:
		bv := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case uint64:
		bv := b.(uint64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case ID:
		bv := b.(ID)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case int:
		bv := b.(int)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		}
		if !av && bv {
			return -1
		}
		return 1
	default:
		panic("store: unsupported key element type")
	}
}

func (ix *index[T]) insert(k Key, id ID) {
	full := append(append(Key{}, k...), Key{id}...)
	i := sort.Search(len(ix.pairs), func(i int) bool {
		return compareKey(append(append(Key{}, ix.pairs[i].key...), Key{ix.pairs[i].id}...), full) >= 0
	})
	ix.pairs = append(ix.pairs, pair{})
	copy(ix.pairs[i+1:], ix.pairs[i:])
	ix.pairs[i] = pair{key: append(Key{}, k...), id: id}
}

func (ix *index[T]) remove(k Key, id ID) {
	full := append(append(Key{}, k...), Key{id}...)
	i := sort.Search(len(ix.pairs), func(i int) bool {
		return compareKey(append(append(Key{}, ix.pairs[i].key...), Key{ix.pairs[i].id}...), full) >= 0
	})
	if i < len(ix.pairs) && ix.pairs[i].id == id {
		ix.pairs = append(ix.pairs[:i], ix.pairs[i+1:]...)
	}
}

// Create inserts a new row, assigns it the next primary ID via assignID, and
// indexes it under every registered secondary index. assignID receives the
// freshly allocated ID so callers can stamp it onto the object before it is
// stored.
func (t *Table[T]) Create(assignID func(ID) T) ID {
	t.nextID++
	id := t.nextID
	obj := assignID(id)
	t.items[id] = obj
	i := sort.Search(len(t.primary), func(i int) bool { return t.primary[i] >= id })
	t.primary = append(t.primary, 0)
	copy(t.primary[i+1:], t.primary[i:])
	t.primary[i] = id
	for _, ix := range t.indices {
		ix.insert(ix.keyFn(obj), id)
	}
	t.stack.push(func() { t.hardRemove(id) })
	return id
}

// Get returns the row with id, or the zero value and false.
func (t *Table[T]) Get(id ID) (T, bool) {
	v, ok := t.items[id]
	return v, ok
}

// Modify applies mutator to the row with id, re-indexing it and recording
// an inverse that restores the prior value. Returns false if id is absent.
func (t *Table[T]) Modify(id ID, mutator func(*T)) bool {
	old, ok := t.items[id]
	if !ok {
		return false
	}
	oldCopy := old
	for _, ix := range t.indices {
		ix.remove(ix.keyFn(old), id)
	}
	mutator(&old)
	t.items[id] = old
	for _, ix := range t.indices {
		ix.insert(ix.keyFn(old), id)
	}
	t.stack.push(func() {
		t.items[id] = oldCopy
		for _, ix := range t.indices {
			ix.remove(ix.keyFn(old), id)
			ix.insert(ix.keyFn(oldCopy), id)
		}
	})
	return true
}

// Remove deletes the row with id (recording an inverse that restores it).
func (t *Table[T]) Remove(id ID) bool {
	old, ok := t.items[id]
	if !ok {
		return false
	}
	t.hardRemove(id)
	t.stack.push(func() { t.restore(id, old) })
	return true
}

func (t *Table[T]) hardRemove(id ID) {
	old, ok := t.items[id]
	if !ok {
		return
	}
	for _, ix := range t.indices {
		ix.remove(ix.keyFn(old), id)
	}
	delete(t.items, id)
	i := sort.Search(len(t.primary), func(i int) bool { return t.primary[i] >= id })
	if i < len(t.primary) && t.primary[i] == id {
		t.primary = append(t.primary[:i], t.primary[i+1:]...)
	}
}

func (t *Table[T]) restore(id ID, obj T) {
	t.items[id] = obj
	i := sort.Search(len(t.primary), func(i int) bool { return t.primary[i] >= id })
	t.primary = append(t.primary, 0)
	copy(t.primary[i+1:], t.primary[i:])
	t.primary[i] = id
	for _, ix := range t.indices {
		ix.insert(ix.keyFn(obj), id)
	}
}

// Range iterates rows under index name whose key lies in [lower, upper]
// (inclusive), in ascending key order with ties broken by primary identity,
// calling fn for each until it returns false.
func (t *Table[T]) Range(name string, lower, upper Key, fn func(ID, T) bool) {
	ix, ok := t.indices[name]
	if !ok {
		return
	}
	lo := sort.Search(len(ix.pairs), func(i int) bool { return compareKey(ix.pairs[i].key, lower) >= 0 })
	for i := lo; i < len(ix.pairs); i++ {
		if compareKey(ix.pairs[i].key, upper) > 0 {
			break
		}
		obj := t.items[ix.pairs[i].id]
		if !fn(ix.pairs[i].id, obj) {
			return
		}
	}
}

// ReverseRange iterates rows under index name in descending key order,
// starting at the highest key <= upper, down to lower (inclusive).
func (t *Table[T]) ReverseRange(name string, lower, upper Key, fn func(ID, T) bool) {
	ix, ok := t.indices[name]
	if !ok {
		return
	}
	hi := sort.Search(len(ix.pairs), func(i int) bool { return compareKey(ix.pairs[i].key, upper) > 0 })
	for i := hi - 1; i >= 0; i-- {
		if compareKey(ix.pairs[i].key, lower) < 0 {
			break
		}
		obj := t.items[ix.pairs[i].id]
		if !fn(ix.pairs[i].id, obj) {
			return
		}
	}
}

// Find returns the first row under index name whose key equals key exactly.
func (t *Table[T]) Find(name string, key Key) (ID, T, bool) {
	var zero T
	ix, ok := t.indices[name]
	if !ok {
		return 0, zero, false
	}
	i := sort.Search(len(ix.pairs), func(i int) bool { return compareKey(ix.pairs[i].key, key) >= 0 })
	if i < len(ix.pairs) && compareKey(ix.pairs[i].key, key) == 0 {
		id := ix.pairs[i].id
		return id, t.items[id], true
	}
	return 0, zero, false
}

// Len returns the number of rows currently stored.
func (t *Table[T]) Len() int { return len(t.items) }

// All iterates every row in primary-identity order.
func (t *Table[T]) All(fn func(ID, T) bool) {
	for _, id := range t.primary {
		if !fn(id, t.items[id]) {
			return
		}
	}
}
