package scanner

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixref/internal/archive"
	"mixref/internal/classfile"
	"mixref/internal/classfile/classfiletest"
	"mixref/internal/config"
)

// countingWalker serves fixed entries and counts how many times the archive
// was walked.
type countingWalker struct {
	entries map[string][]byte
	order   []string
	walks   int
	err     error
}

func (cw *countingWalker) Walk(fn archive.EntryFunc) error {
	cw.walks++
	if cw.err != nil {
		return cw.err
	}
	for _, name := range cw.order {
		if err := fn(name, cw.entries[name]); err != nil {
			return err
		}
	}
	return nil
}

func (cw *countingWalker) Path() string {
	return "fake.jar"
}

func annotatedClass(t *testing.T, className string, targets ...string) []byte {
	t.Helper()
	b := classfiletest.NewBuilder(className)
	cp := b.ConstPool()
	members := make([]classfiletest.ElementValue, 0, len(targets))
	for _, target := range targets {
		members = append(members, classfiletest.ClassValue(cp, "L"+target+";"))
	}
	b.WithAnnotation(false, classfile.MixinAnnotationDescriptor,
		classfiletest.ElementPair{Name: "value", Value: classfiletest.ArrayValue(members...)},
	)
	return b.Build()
}

func plainClass(t *testing.T, className string) []byte {
	t.Helper()
	return classfiletest.NewBuilder(className).Build()
}

func newTestImport(walker classWalker) *Import {
	return &Import{
		file:   walker.Path(),
		walker: walker,
		logger: zerolog.Nop(),
		cfg:    config.NewDefaultScannerConfig(),
	}
}

func TestImport_ReadIsIdempotent(t *testing.T) {
	walker := &countingWalker{
		entries: map[string][]byte{
			"com/example/A.class": annotatedClass(t, "com/example/A", "com/example/Target1"),
		},
		order: []string{"com/example/A.class"},
	}
	imp := newTestImport(walker)

	require.NoError(t, imp.Read())
	require.NoError(t, imp.Read())

	assert.Equal(t, 1, walker.walks, "archive should be walked exactly once")
	assert.True(t, imp.Scanned())
	assert.Equal(t, []TargetRecord{{Owner: "com/example/A", Target: "com/example/Target1"}}, imp.Records())
}

func TestImport_SkipsMalformedEntriesAndContinues(t *testing.T) {
	walker := &countingWalker{
		entries: map[string][]byte{
			"Good.class":   annotatedClass(t, "com/example/Good", "com/example/Target1"),
			"Broken.class": {0xDE, 0xAD, 0xBE, 0xEF},
			"Later.class":  annotatedClass(t, "com/example/Later", "com/example/Target2"),
		},
		order: []string{"Good.class", "Broken.class", "Later.class"},
	}
	imp := newTestImport(walker)

	require.NoError(t, imp.Read())

	assert.Equal(t, 1, imp.Skipped())
	assert.Equal(t, []TargetRecord{
		{Owner: "com/example/Good", Target: "com/example/Target1"},
		{Owner: "com/example/Later", Target: "com/example/Target2"},
	}, imp.Records())
}

func TestImport_MalformedArchiveLeavesNoPartialRecords(t *testing.T) {
	walker := &countingWalker{err: archive.ErrMalformedArchive}
	imp := newTestImport(walker)

	err := imp.Read()
	require.Error(t, err)
	assert.ErrorIs(t, err, archive.ErrMalformedArchive)
	assert.False(t, imp.Scanned())
	assert.Empty(t, imp.Records())

	var buf bytes.Buffer
	require.Error(t, imp.AppendTo(&buf))
	assert.Zero(t, buf.Len(), "failed archive must not produce output lines")
}

func TestImport_AppendToWritesNothingForEmptyArchive(t *testing.T) {
	imp := newTestImport(&countingWalker{})

	var buf bytes.Buffer
	require.NoError(t, imp.AppendTo(&buf))
	assert.Zero(t, buf.Len())
	assert.True(t, imp.Scanned())
}

func TestImport_MissingArchiveYieldsZeroRecords(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such.jar")
	imp := NewImport(missing, config.NewDefaultScannerConfig(), zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, imp.AppendTo(&buf))
	assert.Zero(t, buf.Len())
	assert.Empty(t, imp.Records())
}

func TestImport_EndToEndZipScan(t *testing.T) {
	jarPath := filepath.Join(t.TempDir(), "mod.jar")
	writeTestJar(t, jarPath, map[string][]byte{
		"com/example/A.class": annotatedClass(t, "com/example/A", "com/example/Target1"),
		"com/example/B.class": plainClass(t, "com/example/B"),
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
	})

	imp := NewImport(jarPath, config.NewDefaultScannerConfig(), zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, imp.AppendTo(&buf))
	assert.Equal(t, "com/example/A\tcom/example/Target1\n", buf.String())
	assert.Zero(t, imp.Skipped())
}

func TestParseRecordLine_RoundTrip(t *testing.T) {
	record := TargetRecord{Owner: "com/example/A", Target: "net/minecraft/Foo"}
	parsed, err := ParseRecordLine(record.Line())
	require.NoError(t, err)
	assert.Equal(t, record, parsed)
}

func TestParseRecordLine_RejectsMissingSeparator(t *testing.T) {
	_, err := ParseRecordLine("no-tab-here")
	assert.Error(t, err)
}

func TestImport_SinkErrorPropagates(t *testing.T) {
	walker := &countingWalker{
		entries: map[string][]byte{
			"A.class": annotatedClass(t, "com/example/A", "com/example/Target1"),
		},
		order: []string{"A.class"},
	}
	imp := newTestImport(walker)

	err := imp.AppendTo(&failingWriter{})
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("sink closed")
}

func writeTestJar(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(file)
	// Deterministic entry order keeps record order assertions stable.
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, file.Close())
}
