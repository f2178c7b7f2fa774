package models

import "strings"

// Named is implemented by entities that a Directory can key.
type Named interface {
	Name() string
}

// Directory is a name-keyed collection that remembers insertion order.
// Keys are compared case-insensitively. The zero value is not usable; call NewDirectory.
type Directory[T Named] struct {
	order   []string
	entries map[string]T
}

// NewDirectory returns an empty Directory.
func NewDirectory[T Named]() *Directory[T] {
	return &Directory[T]{entries: make(map[string]T)}
}

// Put stores v under its name. An existing entry with the same name is replaced
// in place and Put reports true.
func (d *Directory[T]) Put(v T) bool {
	key := directoryKey(v.Name())
	_, replaced := d.entries[key]
	if !replaced {
		d.order = append(d.order, key)
	}
	d.entries[key] = v
	return replaced
}

// Get returns the entry stored under name.
func (d *Directory[T]) Get(name string) (T, bool) {
	v, ok := d.entries[directoryKey(name)]
	return v, ok
}

// Remove deletes the entry stored under name and reports whether one existed.
func (d *Directory[T]) Remove(name string) bool {
	key := directoryKey(name)
	if _, ok := d.entries[key]; !ok {
		return false
	}
	delete(d.entries, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

// All returns the entries in insertion order.
func (d *Directory[T]) All() []T {
	out := make([]T, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, d.entries[k])
	}
	return out
}

// Len returns the number of entries.
func (d *Directory[T]) Len() int {
	return len(d.order)
}

func directoryKey(name string) string {
	return strings.ToLower(name)
}
