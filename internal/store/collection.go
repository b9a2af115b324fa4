package store

// collection keeps entities by id and remembers insertion order so reads are stable.
type collection[T any] struct {
	ids   []string
	items map[string]T
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{items: make(map[string]T)}
}

func (c *collection[T]) get(id string) (T, bool) {
	v, ok := c.items[id]
	return v, ok
}

func (c *collection[T]) has(id string) bool {
	_, ok := c.items[id]
	return ok
}

func (c *collection[T]) put(id string, v T) {
	if _, ok := c.items[id]; !ok {
		c.ids = append(c.ids, id)
	}
	c.items[id] = v
}

func (c *collection[T]) remove(id string) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	for i, v := range c.ids {
		if v == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
	return true
}

func (c *collection[T]) len() int {
	return len(c.ids)
}

// list returns the entities accepted by keep, in insertion order. A nil keep accepts all.
func (c *collection[T]) list(keep func(T) bool) []T {
	out := make([]T, 0, len(c.ids))
	for _, id := range c.ids {
		v := c.items[id]
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func (c *collection[T]) reset(items []T, idOf func(T) string) {
	c.ids = c.ids[:0]
	c.items = make(map[string]T, len(items))
	for _, v := range items {
		c.put(idOf(v), v)
	}
}
