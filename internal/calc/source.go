package calc

import (
	"bytes"
	"io"
	"os"
)

// Source supplies one ancillary or measurement data stream. Concrete
// implementations are selected by configuration: station deployments read
// local files, network deployments hand over already-fetched payloads.
type Source interface {
	// Open returns the data stream. A missing optional source returns an
	// error satisfying os.IsNotExist semantics via errors.Is(err, os.ErrNotExist).
	Open() (io.ReadCloser, error)
	// Name identifies the source in warnings and logs.
	Name() string
}

// FileSource reads from the local filesystem.
type FileSource struct {
	Path string
}

func (f FileSource) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

func (f FileSource) Name() string {
	return f.Path
}

// BytesSource serves an in-memory payload, typically fetched from a
// station network service before processing starts.
type BytesSource struct {
	Label string
	Data  []byte
}

func (b BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

func (b BytesSource) Name() string {
	return b.Label
}
