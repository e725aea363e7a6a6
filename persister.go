// Package locus gives any Locatable type load and save behavior against a
// single file at <base>/<StorageDirName>/<StorageFileName>, where base is
// the user's home directory unless configured otherwise.
//
// Every Save overwrites the whole file and every Load reads the whole file.
// Nothing is cached between calls and nothing is locked.
package locus

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"path/filepath"

	"github.com/KumKeeHyun/locus/state"
	"github.com/MichaelAJay/go-logger"
	"github.com/spf13/afero"
)

var osBackend state.Backend = state.NewFileBackend(afero.NewOsFs())

// Persister loads and saves values of T.
type Persister[T Locatable] struct {
	resolver *Resolver
	serde    Serde[T]
	backend  state.Backend
	closer   io.Closer
	logger   logger.Logger
}

// New builds a Persister for T. Without options it stores compact JSON
// files under the home directory.
func New[T Locatable](opts ...Option[T]) (*Persister[T], error) {
	if err := checkLocatable[T](); err != nil {
		return nil, newError("open", KindPathResolution, "", err)
	}
	o := defaultOptions[T]()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	resolver := NewResolver(o.baseDir, o.fs, o.dirPerm)
	p := &Persister[T]{
		resolver: resolver,
		serde:    o.serde,
		backend:  o.backend,
		logger:   o.logger,
	}
	if p.backend != nil {
		return p, nil
	}

	switch o.storeType {
	case state.InMemory:
		p.backend = state.NewMemBackend()
	case state.BoltDB:
		dbPath := o.boltFile
		if !filepath.IsAbs(dbPath) {
			base, err := resolver.baseDir()
			if err != nil {
				return nil, newError("open", KindPathResolution, "", fmt.Errorf("base directory: %w", err))
			}
			dbPath = filepath.Join(base, dbPath)
		}
		b, err := state.NewBoltDBBackend(dbPath)
		if err != nil {
			return nil, err
		}
		p.backend = b
		p.closer = b
	default:
		var fopts []state.FileOption
		fopts = append(fopts, state.WithFilePerm(o.filePerm))
		if o.atomic {
			fopts = append(fopts, state.WithAtomicWrite())
		}
		p.backend = state.NewFileBackend(resolver.fs, fopts...)
	}
	return p, nil
}

// Path resolves the storage file of T, creating its directory if needed.
func (p *Persister[T]) Path() (string, error) {
	return p.resolver.StorageFile(locatable[T]())
}

// Save encodes v and replaces the stored content with it.
func (p *Persister[T]) Save(v T) error {
	path, err := p.resolver.storageFile(locatable[T]())
	if err != nil {
		return newError("save", KindPathResolution, path, err)
	}

	data := p.serde.Serialize(v)
	if err := p.backend.Write(path, data); err != nil {
		return newError("save", KindWrite, path, err)
	}

	p.debug("storage saved",
		logger.Field{Key: "type", Value: fmt.Sprintf("%T", v)},
		logger.Field{Key: "path", Value: path},
		logger.Field{Key: "bytes", Value: len(data)})
	return nil
}

// Load reads and decodes the stored value. A value that was never saved is
// a KindRead error, not a zero value.
func (p *Persister[T]) Load() (T, error) {
	var zero T
	path, err := p.resolver.storageFile(locatable[T]())
	if err != nil {
		return zero, newError("load", KindPathResolution, path, err)
	}

	v, err := decode(p.backend, p.serde, "load", path)
	if err != nil {
		return zero, err
	}

	p.debug("storage loaded",
		logger.Field{Key: "type", Value: fmt.Sprintf("%T", v)},
		logger.Field{Key: "path", Value: path})
	return v, nil
}

// Remove deletes the stored value of T. Other files in the storage
// directory are left alone, and the directory itself is removed only once it
// is empty. A value that was never saved is not an error.
func (p *Persister[T]) Remove() error {
	dir, file, err := p.resolver.removablePaths(locatable[T]())
	if err != nil {
		return newError("remove", KindPathResolution, dir, err)
	}
	if d, ok := p.backend.(state.Deleter); ok {
		if err := d.Delete(file); err != nil {
			return newError("remove", KindWrite, file, err)
		}
	}

	fs := p.resolver.fs
	if err := fs.Remove(file); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return newError("remove", KindWrite, file, err)
	}
	if ok, _ := afero.DirExists(fs, dir); !ok {
		return nil
	}
	if empty, err := afero.IsEmpty(fs, dir); err == nil && empty {
		if err := fs.Remove(dir); err != nil && !errors.Is(err, iofs.ErrNotExist) {
			return newError("remove", KindWrite, dir, err)
		}
	}
	return nil
}

// Close releases a backend the persister opened itself.
func (p *Persister[T]) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

func (p *Persister[T]) debug(msg string, fields ...logger.Field) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(msg, fields...)
}

func decode[T any](b state.Backend, serde Serde[T], op, path string) (T, error) {
	var zero T
	data, err := b.Read(path)
	if err != nil {
		return zero, newError(op, KindRead, path, err)
	}
	v, err := serde.Deserialize(data)
	if err != nil {
		return zero, newError(op, KindParse, path, err)
	}
	return v, nil
}

// Save stores v in its file under the home directory.
func Save[T Locatable](v T) error {
	p, err := New[T]()
	if err != nil {
		return err
	}
	return p.Save(v)
}

// Load reads the value of T from its file under the home directory.
func Load[T Locatable]() (T, error) {
	p, err := New[T]()
	if err != nil {
		var zero T
		return zero, err
	}
	return p.Load()
}
