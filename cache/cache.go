package cache

import (
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Storage keeps JSON documents on disk, one file per key.
type Storage struct {
	dir     string
	expires time.Duration

	savingLock sync.RWMutex
	saving     map[uint64]struct{}
}

// NewStorage prepares dir for use. expires == 0 keeps entries forever.
// When the content of deps differs from the previous run the directory is wiped,
// so cached responses never outlive the queries that produced them.
func NewStorage(dir string, expires time.Duration, deps ...fs.FS) (*Storage, error) {
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if len(deps) > 0 {
		err = cleanUpWithHash(dir, deps...)
		if err != nil {
			return nil, err
		}
	}

	return &Storage{
		dir:     dir,
		expires: expires,
		saving:  make(map[uint64]struct{}, 32),
	}, nil
}

// Key hashes a formatted cache key.
func Key(format string, args ...interface{}) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, format, args...)
	return h.Sum64()
}

func (s *Storage) path(key uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%016x.json", key))
}

func (s *Storage) lock(key uint64) bool {
	s.savingLock.Lock()
	defer s.savingLock.Unlock()

	_, ok := s.saving[key]
	if !ok {
		s.saving[key] = struct{}{}
	}
	return !ok
}

func (s *Storage) unlock(key uint64) {
	s.savingLock.Lock()
	defer s.savingLock.Unlock()

	delete(s.saving, key)
}

func (s *Storage) checkSkip(key uint64) bool {
	s.savingLock.RLock()
	defer s.savingLock.RUnlock()

	_, ok := s.saving[key]
	return ok
}

func (s *Storage) open(key uint64) (*os.File, bool) {
	if s.checkSkip(key) {
		return nil, false
	}

	path := s.path(key)
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}

	if s.expires > 0 {
		fi, err := f.Stat()
		if err != nil || time.Since(fi.ModTime()) > s.expires {
			f.Close()
			os.Remove(path)
			return nil, false
		}
	}

	return f, true
}

func (s *Storage) Load(key uint64, v interface{}) bool {
	f, ok := s.open(key)
	if !ok {
		return false
	}
	defer f.Close()

	err := jsoniter.NewDecoder(f).Decode(v)
	if err != nil {
		zap.L().Warn("broken cache entry", zap.String("path", f.Name()), zap.Error(err))
		return false
	}
	return true
}

func (s *Storage) LoadRaw(key uint64, w io.Writer) bool {
	f, ok := s.open(key)
	if !ok {
		return false
	}
	defer f.Close()

	_, err := io.Copy(w, f)
	return err == nil
}

func (s *Storage) Save(key uint64, v interface{}) bool {
	return s.save(key, func(w io.Writer) error {
		return jsoniter.NewEncoder(w).Encode(v)
	})
}

func (s *Storage) SaveRaw(key uint64, data []byte) bool {
	return s.save(key, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func (s *Storage) save(key uint64, write func(w io.Writer) error) bool {
	if !s.lock(key) {
		return false
	}
	defer s.unlock(key)

	path := s.path(key)
	f, err := os.Create(path)
	if err != nil {
		zap.L().Warn("failed to create cache entry", zap.String("path", path), zap.Error(err))
		return false
	}

	err = write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		zap.L().Warn("failed to write cache entry", zap.String("path", path), zap.Error(err))
		os.Remove(path)
		return false
	}

	return true
}
