package app

import (
	"net/url"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// FileLoader reads the file a URL points at.
type FileLoader interface {
	Load(location *url.URL) ([]byte, error)
}

// FileLoaderCtor constructs a FileLoader on demand.
type FileLoaderCtor func() (FileLoader, error)

type loaderRegistry struct {
	mu    sync.RWMutex
	byURL map[string]FileLoaderCtor
}

var loaders = &loaderRegistry{byURL: make(map[string]FileLoaderCtor)}

func init() {
	// Bare paths and file:// URLs both read from local disk
	RegisterFileLoaderCtor("", newLocalLoader)
	RegisterFileLoaderCtor("file", newLocalLoader)
}

// RegisterFileLoaderCtor makes LoadFile handle URLs with the given scheme. It
// panics if the scheme already has a loader.
func RegisterFileLoaderCtor(scheme string, ctor FileLoaderCtor) {
	loaders.mu.Lock()
	defer loaders.mu.Unlock()

	if _, ok := loaders.byURL[scheme]; ok {
		panic("file loader already registered for scheme " + scheme)
	}
	loaders.byURL[scheme] = ctor
}

// LoadFile reads fileURL with the loader registered for its scheme.
func LoadFile(fileURL string) ([]byte, error) {
	location, err := url.Parse(fileURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid file url %s", fileURL)
	}

	loaders.mu.RLock()
	ctor, ok := loaders.byURL[location.Scheme]
	loaders.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("no file loader for scheme %q", location.Scheme)
	}

	loader, err := ctor()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to construct loader for %s", fileURL)
	}
	return loader.Load(location)
}

type localLoader struct{}

func newLocalLoader() (FileLoader, error) {
	return localLoader{}, nil
}

func (localLoader) Load(location *url.URL) ([]byte, error) {
	if location.Scheme == "" {
		return os.ReadFile(location.String())
	}
	return os.ReadFile(location.Path)
}
