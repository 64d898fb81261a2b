package store

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/common"
)

// DataSource supplies the plaintext bytes for an attachment write.
type DataSource interface {
	// Open returns a fresh reader over the source bytes.
	Open() (io.ReadCloser, error)

	// Size returns the source length in bytes.
	Size() (int64, error)
}

// fileSource is a DataSource backed by a file on disk. It additionally
// exposes its path so the consuming writer can relocate the file instead of
// copying it.
type fileSource struct {
	path string
}

// NewFileSource returns a DataSource reading from the file at path.
func NewFileSource(path string) DataSource {
	return &fileSource{path: path}
}

func (s *fileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrSourceMissing, s.path)
		}
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrStorage, s.path, err)
	}
	return f, nil
}

func (s *fileSource) Size() (int64, error) {
	fi, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", common.ErrSourceMissing, s.path)
		}
		return 0, fmt.Errorf("%w: stat %s: %w", common.ErrStorage, s.path, err)
	}
	return fi.Size(), nil
}

// FilePath returns the backing file's location.
func (s *fileSource) FilePath() string { return s.path }

// bytesSource is a DataSource over an in-memory buffer.
type bytesSource struct {
	data []byte
}

// NewBytesSource returns a DataSource over the given bytes. The slice is
// not copied; callers must not mutate it afterwards.
func NewBytesSource(data []byte) DataSource {
	return &bytesSource{data: data}
}

func (s *bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *bytesSource) Size() (int64, error) {
	return int64(len(s.data)), nil
}
