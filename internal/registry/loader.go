package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"tensord/internal/backend"
	"tensord/internal/common/fsutil"
)

// LoadDir scans dir (non-recursively) for model definitions:
//
//   - *.yaml, *.yml, *.toml, *.json: graph specs run by the gorgonia backend.
//     The model name defaults to the file name without extension.
//   - *.gguf: llama.cpp embedding models, named by their full file name.
//
// Other files are ignored.
func LoadDir(dir string, llama backend.LlamaConfig) (*Registry, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	reg := New()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		p := filepath.Join(abs, name)
		var m *backend.Model
		switch strings.ToLower(filepath.Ext(name)) {
		case ".gguf":
			m = backend.NewLlamaModel(name, p, llama)
		case ".yaml", ".yml", ".toml", ".json":
			spec, err := ReadSpec(p)
			if err != nil {
				return nil, err
			}
			if spec.Name == "" {
				spec.Name = strings.TrimSuffix(name, filepath.Ext(name))
			}
			m, err = backend.NewGraphModel(spec)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			m.Path = p
		default:
			continue
		}
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// ReadSpec decodes a graph spec, choosing the format by file extension.
func ReadSpec(path string) (backend.GraphSpec, error) {
	var spec backend.GraphSpec
	b, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("read model spec: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		err = dec.Decode(&spec)
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(b)).DisallowUnknownFields().Decode(&spec)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(&spec)
	default:
		return spec, fmt.Errorf("unsupported model spec extension: %s", filepath.Ext(path))
	}
	if err != nil {
		return spec, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return spec, nil
}
