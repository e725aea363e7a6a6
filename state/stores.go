// Package state holds the storage backends a persister writes encoded
// values to. Every backend addresses a value by its resolved storage path
// and reports a missing value with an error matching fs.ErrNotExist.
package state

import (
	"fmt"
	"io/fs"
)

type Backend interface {
	// Read returns the whole stored content for path.
	Read(path string) ([]byte, error)
	// Write replaces the stored content for path with data.
	Write(path string, data []byte) error
}

// Deleter is implemented by backends that keep content outside the
// storage directory and need an explicit delete.
type Deleter interface {
	Delete(path string) error
}

type StoreType int

const (
	File StoreType = iota
	InMemory
	BoltDB
)

func (t StoreType) String() string {
	switch t {
	case File:
		return "file"
	case InMemory:
		return "memory"
	case BoltDB:
		return "boltdb"
	default:
		return fmt.Sprintf("StoreType(%d)", int(t))
	}
}

// ParseStoreType maps a configured backend name to its StoreType.
func ParseStoreType(name string) (StoreType, error) {
	switch name {
	case "", "file":
		return File, nil
	case "memory":
		return InMemory, nil
	case "boltdb", "bolt":
		return BoltDB, nil
	default:
		return 0, fmt.Errorf("state: unknown backend %q", name)
	}
}

func notFound(path string) error {
	return &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
}
