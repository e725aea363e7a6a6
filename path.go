package locus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/afero"
)

// Locatable names where a storable type lives: StorageDirName under the
// base directory, and StorageFileName inside it.
//
// Both names belong to the type, not to a value. They are read from the
// zero value of the type (a pointer to a zero element when the type is a
// pointer), so return constants.
type Locatable interface {
	StorageDirName() string
	StorageFileName() string
}

// BaseDirFunc supplies the directory every storage directory is created
// under. It is called on every resolution.
type BaseDirFunc func() (string, error)

// HomeDir is the default BaseDirFunc: the current user's home directory.
func HomeDir() (string, error) {
	return os.UserHomeDir()
}

// StaticDir returns a BaseDirFunc that always yields dir.
func StaticDir(dir string) BaseDirFunc {
	return func() (string, error) {
		return dir, nil
	}
}

// Resolver maps a Locatable to its storage directory and file, creating
// the directory on demand.
type Resolver struct {
	baseDir BaseDirFunc
	fs      afero.Fs
	dirPerm os.FileMode
}

// NewResolver builds a Resolver. A nil baseDir means HomeDir, a nil fs the
// OS filesystem and a zero dirPerm os.ModePerm.
func NewResolver(baseDir BaseDirFunc, fs afero.Fs, dirPerm os.FileMode) *Resolver {
	if baseDir == nil {
		baseDir = HomeDir
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dirPerm == 0 {
		dirPerm = os.ModePerm
	}
	return &Resolver{
		baseDir: baseDir,
		fs:      fs,
		dirPerm: dirPerm,
	}
}

func defaultResolver() *Resolver {
	return NewResolver(HomeDir, nil, 0)
}

// StorageDir returns base/StorageDirName, creating it and any missing
// parents when it does not exist yet.
func (r *Resolver) StorageDir(l Locatable) (string, error) {
	dir, err := r.storageDir(l)
	if err != nil {
		return "", newError("resolve", KindPathResolution, dir, err)
	}
	return dir, nil
}

// StorageFile returns StorageDir joined with StorageFileName. The file
// itself is not touched.
func (r *Resolver) StorageFile(l Locatable) (string, error) {
	file, err := r.storageFile(l)
	if err != nil {
		return "", newError("resolve", KindPathResolution, file, err)
	}
	return file, nil
}

func (r *Resolver) dirPath(l Locatable) (string, error) {
	base, err := r.baseDir()
	if err != nil {
		return "", fmt.Errorf("base directory: %w", err)
	}
	if base == "" {
		return "", errors.New("base directory is empty")
	}
	base, err = filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("base directory: %w", err)
	}
	return filepath.Join(base, l.StorageDirName()), nil
}

// removablePaths returns the storage directory and file of l for removal.
// Names that would point at the base directory itself or outside it are
// rejected.
func (r *Resolver) removablePaths(l Locatable) (dir, file string, err error) {
	name := filepath.Clean(l.StorageDirName())
	if name == "." || name == ".." || filepath.IsAbs(name) ||
		strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("storage directory %q is not inside the base directory", l.StorageDirName())
	}
	base := l.StorageFileName()
	if base == "" || base == "." || base == ".." || filepath.Base(base) != base {
		return "", "", fmt.Errorf("storage file %q is not a plain file name", base)
	}
	dir, err = r.dirPath(l)
	if err != nil {
		return "", "", err
	}
	return dir, filepath.Join(dir, base), nil
}

func (r *Resolver) storageDir(l Locatable) (string, error) {
	dir, err := r.dirPath(l)
	if err != nil {
		return "", err
	}
	if exists, _ := afero.Exists(r.fs, dir); exists {
		return dir, nil
	}
	if err := r.fs.MkdirAll(dir, r.dirPerm); err != nil {
		return dir, err
	}
	return dir, nil
}

func (r *Resolver) storageFile(l Locatable) (string, error) {
	dir, err := r.storageDir(l)
	if err != nil {
		return dir, err
	}
	return filepath.Join(dir, l.StorageFileName()), nil
}

// locatable returns a value of T to read the storage names from. For a
// pointer T it points at a zero element rather than being nil.
func locatable[T Locatable]() Locatable {
	var zero T
	if t := reflect.TypeOf(zero); t != nil && t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(Locatable)
	}
	return zero
}

func checkLocatable[T Locatable]() error {
	if locatable[T]() == nil {
		var zero T
		return fmt.Errorf("%T has no concrete type to read storage names from", &zero)
	}
	return nil
}

// StorageDir resolves the storage directory of T under the home directory.
func StorageDir[T Locatable]() (string, error) {
	if err := checkLocatable[T](); err != nil {
		return "", newError("resolve", KindPathResolution, "", err)
	}
	return defaultResolver().StorageDir(locatable[T]())
}

// StorageFile resolves the storage file of T under the home directory.
func StorageFile[T Locatable]() (string, error) {
	if err := checkLocatable[T](); err != nil {
		return "", newError("resolve", KindPathResolution, "", err)
	}
	return defaultResolver().StorageFile(locatable[T]())
}
