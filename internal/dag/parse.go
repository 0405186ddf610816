package dag

import (
	"errors"
	"strconv"
	"strings"

	"tensord/internal/store"
)

// DefaultChainingOp separates chained commands in a DAGRUN request.
const DefaultChainingOp = "|>"

func parseCount(args []string, block string) (int, error) {
	if len(args) < 3 {
		return 0, wrongArity(block)
	}
	n, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || n <= 0 {
		return 0, badCount(block)
	}
	// more keys than tokens can never be satisfied
	if n > int64(len(args)) {
		return len(args), nil
	}
	return int(n), nil
}

// ParseLoad parses `LOAD <n> key1 … keyN` from args[0] and loads each key
// from g into scope. The block ends after n keys or at sep (matched
// case-insensitively). It returns the position just past the block, which is
// the separator's position when one ended it.
//
// On failure the position is -1 and every name this call inserted is
// removed again, leaving scope as it was.
func ParseLoad(args []string, g store.Getter, scope *TensorContext, sep string) (int, error) {
	n, err := parseCount(args, "LOAD")
	if err != nil {
		return -1, err
	}
	var added []string
	rollback := func() {
		for _, k := range added {
			scope.Delete(k)
		}
	}
	pos := 2
	for ; pos < len(args) && len(added) < n; pos++ {
		name := args[pos]
		if strings.EqualFold(name, sep) {
			break
		}
		t, err := g.Get(name)
		if err != nil {
			rollback()
			return -1, keyNotFoundError{key: name, wrongType: errors.Is(err, store.ErrWrongType)}
		}
		if err := scope.Add(name, t); err != nil {
			t.Release()
			rollback()
			return -1, err
		}
		added = append(added, name)
	}
	if len(added) != n {
		rollback()
		return -1, wrongArity("LOAD")
	}
	return pos, nil
}

// ParsePersist parses `PERSIST <n> key1 … keyN` into persist. It follows
// the same count and separator rules as ParseLoad but never consults the
// keyspace. A repeated name counts toward n. Names are only added once the
// whole block is valid.
func ParsePersist(args []string, persist *PersistSet, sep string) (int, error) {
	n, err := parseCount(args, "PERSIST")
	if err != nil {
		return -1, err
	}
	var names []string
	pos := 2
	for ; pos < len(args) && len(names) < n; pos++ {
		if strings.EqualFold(args[pos], sep) {
			break
		}
		names = append(names, args[pos])
	}
	if len(names) != n {
		return -1, wrongArity("PERSIST")
	}
	for _, k := range names {
		persist.Add(k)
	}
	return pos, nil
}
