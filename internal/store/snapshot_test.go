package store

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"tensord/internal/tensor"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.db")
	src := NewMemory(nil, zerolog.Nop())
	a, _ := tensor.New(tensor.Float, []int{2, 2}, []float64{1, 2, 3, 4})
	b, _ := tensor.New(tensor.Int64, []int{3}, []float64{-1, 0, 1})
	_ = src.Set("a", a)
	_ = src.Set("b", b)
	_ = src.SetValue("model:m", "not persisted")

	snap := NewSnapshotter(path, zerolog.Nop())
	n, err := snap.Save(src)
	if err != nil || n != 2 {
		t.Fatalf("save: n=%d err=%v", n, err)
	}
	// a second save replaces rather than appends
	src.Del("b")
	if n, err := snap.Save(src); err != nil || n != 1 {
		t.Fatalf("resave: n=%d err=%v", n, err)
	}

	rec := &recorder{}
	dst := NewMemory(rec, zerolog.Nop())
	n, err = snap.Restore(dst)
	if err != nil || n != 1 {
		t.Fatalf("restore: n=%d err=%v", n, err)
	}
	got, err := dst.Get("a")
	if err != nil || !got.Equal(a) {
		t.Fatalf("restored tensor mismatch: %v", err)
	}
	if len(rec.keys) != 0 {
		t.Fatalf("restore must not replicate: %v", rec.keys)
	}
}

func TestSnapshotRestoreMissingFile(t *testing.T) {
	snap := NewSnapshotter(filepath.Join(t.TempDir(), "none.db"), zerolog.Nop())
	n, err := snap.Restore(NewMemory(nil, zerolog.Nop()))
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestSnapshotInt64RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.db")
	src := NewMemory(nil, zerolog.Nop())
	f, _ := tensor.New(tensor.Float, []int{2}, []float64{0.5, 1.5})
	i, _ := tensor.New(tensor.Int64, []int{2, 2}, []float64{-3, 0, 1 << 40, 7})
	_ = src.Set("f", f)
	_ = src.Set("i", i)

	snap := NewSnapshotter(path, zerolog.Nop())
	if n, err := snap.Save(src); err != nil || n != 2 {
		t.Fatalf("save: n=%d err=%v", n, err)
	}
	dst := NewMemory(nil, zerolog.Nop())
	if n, err := snap.Restore(dst); err != nil || n != 2 {
		t.Fatalf("restore: n=%d err=%v", n, err)
	}
	got, err := dst.Get("i")
	if err != nil {
		t.Fatalf("get i: %v", err)
	}
	if got.DType() != tensor.Int64 || !got.Equal(i) {
		t.Fatalf("restored i=%s %v, want INT64 %v", got, got.Values(), i.Values())
	}
}

func TestSnapshotRestoreSkipsUndecodableEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.db")
	src := NewMemory(nil, zerolog.Nop())
	a, _ := tensor.New(tensor.Double, []int{1}, []float64{42})
	_ = src.Set("a", a)
	snap := NewSnapshotter(path, zerolog.Nop())
	if _, err := snap.Save(src); err != nil {
		t.Fatalf("save: %v", err)
	}

	db, err := bolt.Open(path, 0o644, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tensorsBucket).Put([]byte("broken"), []byte("garbage"))
	})
	db.Close()
	if err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	dst := NewMemory(nil, zerolog.Nop())
	n, err := snap.Restore(dst)
	if err != nil || n != 1 {
		t.Fatalf("restore: n=%d err=%v", n, err)
	}
	if _, err := dst.Get("broken"); err == nil {
		t.Fatalf("undecodable entry must not be restored")
	}
	if got, err := dst.Get("a"); err != nil || !got.Equal(a) {
		t.Fatalf("a not restored: %v", err)
	}
}
