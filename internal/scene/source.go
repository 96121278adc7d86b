package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/midgard-gltf/pkg/encoding"
)

// ErrNotFound is returned when no source holds a file.
var ErrNotFound = errors.New("file not found")

// Source reads game files by archive path, e.g. "data/model/tree.rsm".
// *grf.Archive is a Source.
type Source interface {
	ReadFile(name string) ([]byte, error)
}

// Dir reads files from an extracted data directory. The path is tried as
// given first, then lower-cased.
type Dir string

func (d Dir) ReadFile(name string) ([]byte, error) {
	rel := strings.ReplaceAll(name, "\\", "/")
	data, err := os.ReadFile(filepath.Join(string(d), filepath.FromSlash(rel)))
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return data, err
	}
	data, lerr := os.ReadFile(filepath.Join(string(d), filepath.FromSlash(encoding.NormalizeGRFPath(name))))
	if lerr != nil {
		return nil, err
	}
	return data, nil
}

// Files is an in-memory source. Lookups ignore case and slash style.
type Files map[string][]byte

func (f Files) ReadFile(name string) ([]byte, error) {
	if data, ok := f[name]; ok {
		return data, nil
	}
	want := encoding.NormalizeGRFPath(name)
	for k, data := range f {
		if encoding.NormalizeGRFPath(k) == want {
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Chain reads from the first source that has the file, so a data directory
// listed before an archive overrides it.
type Chain []Source

func (c Chain) ReadFile(name string) ([]byte, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	var errs []error
	for _, src := range c {
		data, err := src.ReadFile(name)
		if err == nil {
			return data, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
