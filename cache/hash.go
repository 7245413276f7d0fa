package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const hashFileName = "hash"

func cleanUpWithHash(dir string, deps ...fs.FS) error {
	newHash, err := hashFS(deps...)
	if err != nil {
		return err
	}

	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, newHash)

	hashFile := filepath.Join(dir, hashFileName)
	old, err := os.ReadFile(hashFile)
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	if bytes.Equal(old, b) {
		return nil
	}

	err = os.RemoveAll(dir)
	if err != nil {
		return errors.WithStack(err)
	}
	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(os.WriteFile(hashFile, b, 0600))
}

func hashFS(deps ...fs.FS) (uint32, error) {
	h := fnv.New32a()

	for _, fsys := range deps {
		err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			fmt.Fprint(h, path)
			if d.IsDir() {
				return nil
			}

			f, err := fsys.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = io.Copy(h, f)
			return err
		})
		if err != nil {
			return 0, errors.WithStack(err)
		}
	}

	return h.Sum32(), nil
}
