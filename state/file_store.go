package state

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

func NewFileBackend(fs afero.Fs, opts ...FileOption) *FileBackend {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	b := &FileBackend{
		fs:   fs,
		perm: DefaultFilePerm,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FileBackend keeps each path as a plain file.
//
// Writes truncate the file in place unless WithAtomicWrite is set.
type FileBackend struct {
	fs     afero.Fs
	perm   os.FileMode
	atomic bool
}

var _ Backend = &FileBackend{}

func (b *FileBackend) Read(path string) ([]byte, error) {
	return afero.ReadFile(b.fs, path)
}

func (b *FileBackend) Write(path string, data []byte) error {
	if !b.atomic {
		return afero.WriteFile(b.fs, path, data, b.perm)
	}

	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := afero.WriteFile(b.fs, tmp, data, b.perm); err != nil {
		_ = b.fs.Remove(tmp)
		return err
	}
	if err := b.fs.Rename(tmp, path); err != nil {
		_ = b.fs.Remove(tmp)
		return err
	}
	return nil
}

func (b *FileBackend) Fs() afero.Fs {
	return b.fs
}
