package state

import "os"

const (
	DefaultFilePerm os.FileMode = 0644
)

type FileOption func(*FileBackend)

func WithFilePerm(perm os.FileMode) FileOption {
	return func(b *FileBackend) {
		if perm == 0 {
			return
		}
		b.perm = perm
	}
}

// WithAtomicWrite makes Write go through a temporary file that is renamed
// over the target, so a crash never leaves a truncated file behind.
func WithAtomicWrite() FileOption {
	return func(b *FileBackend) {
		b.atomic = true
	}
}
