package state

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	DefaultBoltFile = "locus.db"
)

type boltRef struct {
	db   *bolt.DB
	refs int
}

var (
	dbs     = map[string]*boltRef{}
	dbslock = sync.Mutex{}
)

// getBoltDB returns the shared handle for path, opening it on first use.
func getBoltDB(path string) (*bolt.DB, error) {
	dbslock.Lock()
	defer dbslock.Unlock()

	ref, exists := dbs[path]
	if exists {
		ref.refs++
		return ref.db, nil
	}

	db, err := openBoltDB(path)
	if err != nil {
		return nil, err
	}
	dbs[path] = &boltRef{db: db, refs: 1}
	return db, nil
}

func releaseBoltDB(path string) error {
	dbslock.Lock()
	defer dbslock.Unlock()

	ref, exists := dbs[path]
	if !exists {
		return nil
	}
	ref.refs--
	if ref.refs > 0 {
		return nil
	}
	delete(dbs, path)
	return ref.db.Close()
}

func openBoltDB(path string) (*bolt.DB, error) {
	bopts := &bolt.Options{}
	bopts.Timeout = time.Second

	return bolt.Open(path, 0600, bopts)
}

// NewBoltDBBackend stores every path in a single bbolt file at dbPath.
// The directory of a storage path is the bucket and its file name is the
// key. Backends opened on the same dbPath share one handle.
func NewBoltDBBackend(dbPath string) (*BoltDBBackend, error) {
	if dbPath == "" {
		return nil, errors.New("state: bolt db path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
		return nil, fmt.Errorf("state: create bolt db directory: %w", err)
	}
	db, err := getBoltDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("state: open bolt db %s: %w", dbPath, err)
	}

	return &BoltDBBackend{
		db:     db,
		dbPath: dbPath,
	}, nil
}

type BoltDBBackend struct {
	db        *bolt.DB
	dbPath    string
	closeOnce sync.Once
}

var _ Backend = &BoltDBBackend{}

func splitPath(path string) (bucket, key []byte) {
	return []byte(filepath.Dir(path)), []byte(filepath.Base(path))
}

func (b *BoltDBBackend) Read(path string) (data []byte, err error) {
	bucket, key := splitPath(path)
	err = b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucket)
		if bk == nil {
			return notFound(path)
		}
		v := bk.Get(key)
		if v == nil {
			return notFound(path)
		}
		// v is only valid inside the transaction.
		data = bytes.Clone(v)
		return nil
	})
	return
}

func (b *BoltDBBackend) Write(path string, data []byte) error {
	bucket, key := splitPath(path)
	return b.db.Update(func(tx *bolt.Tx) error {
		bk, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return err
		}
		return bk.Put(key, data)
	})
}

func (b *BoltDBBackend) Delete(path string) error {
	bucket, key := splitPath(path)
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucket)
		if bk == nil {
			return nil
		}
		return bk.Delete(key)
	})
}

// Path returns the location of the bolt file.
func (b *BoltDBBackend) Path() string {
	return b.dbPath
}

// Close releases this backend's reference. The file is closed once every
// backend sharing it has been closed.
func (b *BoltDBBackend) Close() (err error) {
	b.closeOnce.Do(func() {
		err = releaseBoltDB(b.dbPath)
	})
	return
}
