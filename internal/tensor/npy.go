package tensor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	gotensor "gorgonia.org/tensor"
)

var npyMagic = []byte("\x93NUMPY")

type npyHeader struct {
	descr   string
	fortran bool
	shape   []int
}

// readNpyHeader consumes the .npy preamble from r, leaving r at the data.
// A scalar's empty shape is reported as [1].
func readNpyHeader(r *bytes.Reader) (npyHeader, error) {
	var hdr npyHeader
	pre := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, pre); err != nil || !bytes.Equal(pre[:len(npyMagic)], npyMagic) {
		return hdr, fmt.Errorf("not an npy payload")
	}
	var n int
	switch major := pre[len(npyMagic)]; major {
	case 1:
		var l uint16
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return hdr, err
		}
		n = int(l)
	case 2, 3:
		var l uint32
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return hdr, err
		}
		n = int(l)
	default:
		return hdr, fmt.Errorf("unsupported npy version %d", major)
	}
	if n > r.Len() {
		return hdr, fmt.Errorf("truncated npy header")
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return hdr, err
	}
	dict := string(raw)

	descr, ok := npyField(dict, "descr")
	if !ok {
		return hdr, fmt.Errorf("npy header has no descr")
	}
	hdr.descr = strings.Trim(descr, "'\"")
	if fo, ok := npyField(dict, "fortran_order"); ok {
		hdr.fortran = fo == "True"
	}
	shape, ok := npyField(dict, "shape")
	if !ok || !strings.HasPrefix(shape, "(") {
		return hdr, fmt.Errorf("npy header has no shape")
	}
	for _, p := range strings.Split(strings.Trim(shape, "()"), ",") {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		d, err := strconv.Atoi(p)
		if err != nil {
			return hdr, fmt.Errorf("invalid npy dimension %q", p)
		}
		hdr.shape = append(hdr.shape, d)
	}
	if len(hdr.shape) == 0 {
		hdr.shape = []int{1}
	}
	return hdr, nil
}

// npyField returns the literal following 'key': in a header dict. Tuples are
// returned with their parentheses.
func npyField(dict, key string) (string, bool) {
	i := strings.Index(dict, "'"+key+"'")
	if i < 0 {
		return "", false
	}
	rest := strings.TrimSpace(dict[i+len(key)+2:])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return "", false
		}
		return rest[:end+1], true
	}
	end := strings.IndexAny(rest, ",}")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func decodeInt64(r *bytes.Reader, hdr npyHeader, size int) (*gotensor.Dense, error) {
	if hdr.fortran {
		return nil, fmt.Errorf("fortran-ordered npy is not supported")
	}
	if r.Len() != size*8 {
		return nil, fmt.Errorf("npy data is %d bytes, shape %v needs %d", r.Len(), hdr.shape, size*8)
	}
	data := make([]int64, size)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, err
	}
	return gotensor.New(gotensor.WithShape(hdr.shape...), gotensor.WithBacking(data)), nil
}
