package locus

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/KumKeeHyun/locus/config"
	"github.com/KumKeeHyun/locus/state"
	"github.com/MichaelAJay/go-logger"
	"github.com/MichaelAJay/go-serializer"
	"github.com/spf13/afero"
)

type options[T Locatable] struct {
	baseDir   BaseDirFunc
	fs        afero.Fs
	dirPerm   os.FileMode
	filePerm  os.FileMode
	atomic    bool
	serde     Serde[T]
	backend   state.Backend
	storeType state.StoreType
	boltFile  string
	logger    logger.Logger
}

func defaultOptions[T Locatable]() *options[T] {
	// stored as compact json files under the home directory
	return &options[T]{
		baseDir:   HomeDir,
		serde:     JSONSerde[T](),
		storeType: state.File,
		filePerm:  state.DefaultFilePerm,
		boltFile:  state.DefaultBoltFile,
	}
}

// Option configures a Persister built by New. It reports invalid
// arguments as an error from New.
type Option[T Locatable] func(*options[T]) error

// WithBaseDir stores under dir instead of the home directory.
func WithBaseDir[T Locatable](dir string) Option[T] {
	return func(o *options[T]) error {
		if dir == "" {
			return errors.New("base dir must not be empty")
		}
		o.baseDir = StaticDir(dir)
		return nil
	}
}

// WithBaseDirFunc calls f on every resolution to find the base directory.
func WithBaseDirFunc[T Locatable](f BaseDirFunc) Option[T] {
	return func(o *options[T]) error {
		if f == nil {
			return errors.New("base dir func must not be nil")
		}
		o.baseDir = f
		return nil
	}
}

// WithFs creates directories, and with the file backend stores files, on fs.
func WithFs[T Locatable](fs afero.Fs) Option[T] {
	return func(o *options[T]) error {
		if fs == nil {
			return errors.New("fs must not be nil")
		}
		o.fs = fs
		return nil
	}
}

// WithDirPerm sets the mode of created storage directories.
func WithDirPerm[T Locatable](perm os.FileMode) Option[T] {
	return func(o *options[T]) error {
		o.dirPerm = perm
		return nil
	}
}

// WithFilePerm sets the mode of storage files written by the file backend.
func WithFilePerm[T Locatable](perm os.FileMode) Option[T] {
	return func(o *options[T]) error {
		o.filePerm = perm
		return nil
	}
}

// WithSerde replaces the default JSON serde.
func WithSerde[T Locatable](serde Serde[T]) Option[T] {
	return func(o *options[T]) error {
		if serde == nil {
			return errors.New("serde must not be nil")
		}
		o.serde = serde
		return nil
	}
}

// WithBackend stores through b. The persister does not close b.
func WithBackend[T Locatable](b state.Backend) Option[T] {
	return func(o *options[T]) error {
		if b == nil {
			return errors.New("backend must not be nil")
		}
		o.backend = b
		return nil
	}
}

// WithInMemory keeps stored values in memory. Nothing outlives the persister.
func WithInMemory[T Locatable]() Option[T] {
	return func(o *options[T]) error {
		o.storeType = state.InMemory
		return nil
	}
}

// WithBoltDB stores in the bolt file at dbPath. A relative dbPath is taken
// relative to the base directory.
func WithBoltDB[T Locatable](dbPath string) Option[T] {
	return func(o *options[T]) error {
		o.storeType = state.BoltDB
		if dbPath != "" {
			o.boltFile = dbPath
		}
		return nil
	}
}

// WithAtomicWrite makes the file backend replace the storage file through a
// rename instead of truncating it in place.
func WithAtomicWrite[T Locatable]() Option[T] {
	return func(o *options[T]) error {
		o.atomic = true
		return nil
	}
}

// WithLogger logs every save and load at debug level. A nil l disables logging.
func WithLogger[T Locatable](l logger.Logger) Option[T] {
	return func(o *options[T]) error {
		o.logger = l
		return nil
	}
}

// WithConfig applies every setting of cfg.
func WithConfig[T Locatable](cfg *config.Config) Option[T] {
	return func(o *options[T]) error {
		if cfg == nil {
			return errors.New("config must not be nil")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		serde, err := serdeFor[T](cfg.Format)
		if err != nil {
			return err
		}
		st, err := cfg.StoreType()
		if err != nil {
			return err
		}

		o.baseDir = cfg.BaseDirFunc()
		o.serde = serde
		o.storeType = st
		if cfg.BoltFile != "" {
			o.boltFile = cfg.BoltFile
		}
		o.atomic = cfg.AtomicWrite
		o.dirPerm = os.FileMode(cfg.DirPerm)
		if cfg.FilePerm != 0 {
			o.filePerm = os.FileMode(cfg.FilePerm)
		}
		if l := cfg.Logger(nil); l != nil {
			o.logger = l
		}
		return nil
	}
}

func serdeFor[T any](format string) (Serde[T], error) {
	switch strings.ToLower(format) {
	case "", "json":
		return JSONSerde[T](), nil
	case "yaml":
		return YAMLSerde[T](), nil
	case "gob", "binary":
		return FormatSerde[T](serializer.Binary)
	case "msgpack":
		return FormatSerde[T](serializer.Msgpack)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
