package dag

import (
	"tensord/internal/store"
	"tensord/internal/tensor"
)

// Entry is one positional reply element: a simple status, a tensor, or an
// error.
type Entry struct {
	Status string
	Tensor *tensor.Handle
	Err    error
}

// Reply accumulates entries until its length is finalized.
type Reply struct {
	entries []Entry
	length  int
	final   bool
}

// Append adds e. Appending after Finalize is a programming error.
func (r *Reply) Append(e Entry) {
	if r.final {
		panic("dag: append to a finalized reply")
	}
	r.entries = append(r.entries, e)
}

func (r *Reply) AppendStatus(s string)         { r.Append(Entry{Status: s}) }
func (r *Reply) AppendTensor(t *tensor.Handle) { r.Append(Entry{Tensor: t}) }
func (r *Reply) AppendError(err error)         { r.Append(Entry{Err: err}) }
func (r *Reply) Entries() []Entry              { return r.entries }
func (r *Reply) Finalized() bool               { return r.final }

// Len is the running entry count until Finalize, then the fixed length.
func (r *Reply) Len() int {
	if r.final {
		return r.length
	}
	return len(r.entries)
}

// Finalize fixes the reply length and returns it. Repeated calls return
// the same length.
func (r *Reply) Finalize() int {
	if !r.final {
		r.final = true
		r.length = len(r.entries)
	}
	return r.length
}

// Errors returns the error entries in order.
func (r *Reply) Errors() []error {
	var out []error
	for _, e := range r.entries {
		if e.Err != nil {
			out = append(out, e.Err)
		}
	}
	return out
}

// Materialize commits every persisted name in ri's scope to s, in persist
// order, then finalizes ri's reply and returns its length. A name that is
// not in scope or cannot be written adds an error entry and the loop moves
// on; successful commits add no entry and are replicated.
func Materialize(s store.Store, ri *RunInfo) int {
	for _, key := range ri.Persist.Keys() {
		t, ok := ri.Scope.Get(key)
		if !ok || t == nil {
			ri.Reply.AppendError(persistNotFoundError{key: key})
			continue
		}
		e, err := s.OpenForWrite(key)
		if err != nil {
			ri.Reply.AppendError(storeWriteError{key: key, err: err})
			continue
		}
		err = e.Commit(t)
		e.Close()
		if err != nil {
			ri.Reply.AppendError(storeWriteError{key: key, err: err})
			continue
		}
		s.Replicate(key, t)
	}
	return ri.Reply.Finalize()
}
