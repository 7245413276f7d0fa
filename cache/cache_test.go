package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestStorageSaveLoad(t *testing.T) {
	s, err := NewStorage(t.TempDir(), 0)
	require.NoError(t, err)

	key := Key("%s_fid_%d", "abcd", 3)
	require.True(t, s.Save(key, &entry{Name: "a", Value: 1}))

	var got entry
	require.True(t, s.Load(key, &got))
	assert.Equal(t, entry{Name: "a", Value: 1}, got)

	assert.False(t, s.Load(Key("%s_fid_%d", "abcd", 4), &got))
}

func TestStorageRaw(t *testing.T) {
	s, err := NewStorage(t.TempDir(), time.Hour)
	require.NoError(t, err)

	key := Key("raw")
	require.True(t, s.SaveRaw(key, []byte("<div>ok</div>")))

	var buf bytes.Buffer
	require.True(t, s.LoadRaw(key, &buf))
	assert.Equal(t, "<div>ok</div>", buf.String())
}

func TestStorageExpires(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir, time.Minute)
	require.NoError(t, err)

	key := Key("old")
	require.True(t, s.Save(key, &entry{Name: "old"}))

	past := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(s.path(key), past, past))

	var got entry
	assert.False(t, s.Load(key, &got))
	_, err = os.Stat(s.path(key))
	assert.True(t, os.IsNotExist(err))
}

func TestStorageSkipsWhileSaving(t *testing.T) {
	s, err := NewStorage(t.TempDir(), 0)
	require.NoError(t, err)

	key := Key("busy")
	require.True(t, s.Save(key, &entry{Name: "busy"}))

	require.True(t, s.lock(key))
	var got entry
	assert.False(t, s.Load(key, &got))
	assert.False(t, s.Save(key, &entry{}))
	s.unlock(key)

	assert.True(t, s.Load(key, &got))
}

func TestStorageInvalidatesOnDependencyChange(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	v1 := fstest.MapFS{"query.tmpl": {Data: []byte("{ a }")}}
	v2 := fstest.MapFS{"query.tmpl": {Data: []byte("{ a b }")}}

	s, err := NewStorage(dir, 0, v1)
	require.NoError(t, err)
	key := Key("k")
	require.True(t, s.Save(key, &entry{Value: 1}))

	s, err = NewStorage(dir, 0, v1)
	require.NoError(t, err)
	var got entry
	assert.True(t, s.Load(key, &got), "same deps keep the cache")

	s, err = NewStorage(dir, 0, v2)
	require.NoError(t, err)
	assert.False(t, s.Load(key, &got), "changed deps wipe the cache")
}
