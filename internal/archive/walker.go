// Package archive enumerates the compiled-class entries of one jar (zip)
// archive, yielding each entry's raw bytes in container order.
package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"mixref/internal/common"
)

// ClassFileSuffix is the entry name suffix identifying compiled classes.
const ClassFileSuffix = ".class"

// ErrMalformedArchive marks an archive that exists but cannot be opened as a
// valid zip container. Unlike a missing path, this is a fatal condition for
// the archive's scan.
var ErrMalformedArchive = errors.New("malformed archive")

// EntryFunc receives one compiled-class entry. Returning an error stops the
// walk and propagates the error to the caller.
type EntryFunc func(name string, data []byte) error

// Walker reads the compiled-class entries of one archive. It is stateless
// apart from an open counter used by callers to verify single-scan behavior.
type Walker struct {
	path   string
	logger zerolog.Logger

	// OpenCount is incremented each time the archive container is actually
	// opened. Instrument only; not synchronized.
	OpenCount int
}

// NewWalker creates a walker for the archive at path.
func NewWalker(path string, logger zerolog.Logger) *Walker {
	return &Walker{
		path:   path,
		logger: logger.With().Str("component", "ArchiveWalker").Str("archive", path).Logger(),
	}
}

// Path returns the archive path this walker reads.
func (w *Walker) Path() string {
	return w.path
}

// Walk invokes fn for every non-directory entry whose name ends in the
// compiled-class suffix, in the container's natural order.
//
// A missing path or a non-regular file yields zero entries and a nil error:
// the reference is simply not a scannable artifact. An existing file that
// cannot be opened as a zip container returns an error wrapping
// ErrMalformedArchive. The archive handle is released before Walk returns,
// on every path.
func (w *Walker) Walk(fn EntryFunc) error {
	info, err := os.Stat(w.path)
	if err != nil || !info.Mode().IsRegular() {
		w.logger.Debug().Msg("Archive path is not a regular file, yielding no entries")
		return nil
	}

	reader, err := zip.OpenReader(w.path)
	if err != nil {
		return common.WrapErrorf(ErrMalformedArchive, "opening %s: %v", w.path, err)
	}
	defer reader.Close()
	w.OpenCount++

	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !strings.HasSuffix(file.Name, ClassFileSuffix) {
			continue
		}

		data, err := readEntry(file)
		if err != nil {
			// Per-entry decompression failure is contained; the rest of the
			// archive may still be readable.
			w.logger.Warn().Err(err).Str("entry", file.Name).Msg("Failed to read archive entry, skipping")
			continue
		}

		if err := fn(file.Name, data); err != nil {
			return err
		}
	}

	return nil
}

// readEntry extracts one entry's raw bytes, releasing the entry handle before
// returning.
func readEntry(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
