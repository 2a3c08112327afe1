package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeZip creates a zip file with the given entries in order.
func writeZip(t *testing.T, path string, entries map[string][]byte, order []string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestWalker_MissingPathYieldsNoEntries(t *testing.T) {
	walker := NewWalker(filepath.Join(t.TempDir(), "absent.jar"), zerolog.Nop())

	called := false
	err := walker.Walk(func(name string, data []byte) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, called)
	assert.Zero(t, walker.OpenCount)
}

func TestWalker_DirectoryPathYieldsNoEntries(t *testing.T) {
	walker := NewWalker(t.TempDir(), zerolog.Nop())

	err := walker.Walk(func(name string, data []byte) error {
		t.Fatal("unexpected entry")
		return nil
	})

	require.NoError(t, err)
}

func TestWalker_MalformedArchiveIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jar")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip"), 0644))

	walker := NewWalker(path, zerolog.Nop())
	err := walker.Walk(func(name string, data []byte) error { return nil })

	assert.ErrorIs(t, err, ErrMalformedArchive)
}

func TestWalker_FiltersToClassEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.jar")
	writeZip(t, path, map[string][]byte{
		"META-INF/MANIFEST.MF":  []byte("Manifest-Version: 1.0\n"),
		"com/example/A.class":   {0xCA, 0xFE},
		"com/example/B.class":   {0xBA, 0xBE},
		"com/example/data.json": []byte("{}"),
		"docs/readme.txt":       []byte("hi"),
	}, []string{"META-INF/MANIFEST.MF", "com/example/A.class", "com/example/data.json", "com/example/B.class", "docs/readme.txt"})

	walker := NewWalker(path, zerolog.Nop())

	var names []string
	err := walker.Walk(func(name string, data []byte) error {
		names = append(names, name)
		assert.NotEmpty(t, data)
		return nil
	})

	require.NoError(t, err)
	// Container order preserved, non-class entries skipped.
	assert.Equal(t, []string{"com/example/A.class", "com/example/B.class"}, names)
	assert.Equal(t, 1, walker.OpenCount)
}

func TestWalker_EmptyArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jar")
	writeZip(t, path, nil, nil)

	walker := NewWalker(path, zerolog.Nop())
	count := 0
	err := walker.Walk(func(name string, data []byte) error {
		count++
		return nil
	})

	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWalker_CallbackErrorStopsWalk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.jar")
	writeZip(t, path, map[string][]byte{
		"a/A.class": {1},
		"b/B.class": {2},
	}, []string{"a/A.class", "b/B.class"})

	walker := NewWalker(path, zerolog.Nop())
	sentinel := errors.New("stop")

	seen := 0
	err := walker.Walk(func(name string, data []byte) error {
		seen++
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, seen)
}
