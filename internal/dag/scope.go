package dag

import "tensord/internal/tensor"

// TensorContext is the insertion-ordered set of named tensors visible to one
// run. It owns the handles it holds. It is private to a run and not safe for
// concurrent use.
type TensorContext struct {
	keys []string
	m    map[string]*tensor.Handle
}

func NewTensorContext() *TensorContext {
	return &TensorContext{m: make(map[string]*tensor.Handle)}
}

// Add inserts name. A name already in scope is a DuplicateKeyError and the
// context is unchanged.
func (c *TensorContext) Add(name string, t *tensor.Handle) error {
	if _, ok := c.m[name]; ok {
		return duplicateKeyError{key: name}
	}
	c.keys = append(c.keys, name)
	c.m[name] = t
	return nil
}

// Put inserts or replaces name. A replaced name keeps its original position.
func (c *TensorContext) Put(name string, t *tensor.Handle) {
	if old, ok := c.m[name]; ok {
		old.Release()
	} else {
		c.keys = append(c.keys, name)
	}
	c.m[name] = t
}

// Get returns the tensor under name without transferring ownership.
func (c *TensorContext) Get(name string) (*tensor.Handle, bool) {
	t, ok := c.m[name]
	return t, ok
}

// Delete removes name and releases its handle.
func (c *TensorContext) Delete(name string) bool {
	t, ok := c.m[name]
	if !ok {
		return false
	}
	t.Release()
	delete(c.m, name)
	for i, k := range c.keys {
		if k == name {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the names in insertion order.
func (c *TensorContext) Keys() []string { return append([]string(nil), c.keys...) }

func (c *TensorContext) Len() int { return len(c.keys) }

// Range calls fn for each entry in insertion order until fn returns false.
func (c *TensorContext) Range(fn func(name string, t *tensor.Handle) bool) {
	for _, k := range c.keys {
		if !fn(k, c.m[k]) {
			return
		}
	}
}

// Release drops every handle and empties the context.
func (c *TensorContext) Release() {
	c.Range(func(_ string, t *tensor.Handle) bool {
		t.Release()
		return true
	})
	c.keys = nil
	c.m = make(map[string]*tensor.Handle)
}

// PersistSet is the insertion-ordered set of names to commit when the run
// completes. There is no removal.
type PersistSet struct {
	keys []string
	m    map[string]struct{}
}

func NewPersistSet() *PersistSet {
	return &PersistSet{m: make(map[string]struct{})}
}

// Add registers name and reports whether it was new.
func (p *PersistSet) Add(name string) bool {
	if _, ok := p.m[name]; ok {
		return false
	}
	p.m[name] = struct{}{}
	p.keys = append(p.keys, name)
	return true
}

func (p *PersistSet) Has(name string) bool {
	_, ok := p.m[name]
	return ok
}

func (p *PersistSet) Keys() []string { return append([]string(nil), p.keys...) }

func (p *PersistSet) Len() int { return len(p.keys) }
