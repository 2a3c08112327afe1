// Package datastore persists scan results: the plain-text target manifest,
// an optional columnar export, and a sqlite cache of per-archive scans.
package datastore

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"mixref/internal/common"
)

// ManifestWriter owns the generated manifest file the downstream annotation
// processor consumes. Records are streamed through Writer; Close flushes and
// releases the file.
type ManifestWriter struct {
	path   string
	file   *os.File
	buf    *bufio.Writer
	logger zerolog.Logger
}

// NewManifestWriter creates (or truncates) the manifest file at path,
// creating parent directories as needed.
func NewManifestWriter(path string, logger zerolog.Logger) (*ManifestWriter, error) {
	if path == "" {
		return nil, common.NewValidationError("manifest_path", path, "manifest path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, common.WrapError(err, "failed to create manifest directory "+dir)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, common.WrapError(err, "failed to create manifest file "+path)
	}

	return &ManifestWriter{
		path:   path,
		file:   file,
		buf:    bufio.NewWriter(file),
		logger: logger.With().Str("component", "ManifestWriter").Logger(),
	}, nil
}

// Path returns the manifest file path.
func (mw *ManifestWriter) Path() string {
	return mw.path
}

// Writer returns the sink records are appended to.
func (mw *ManifestWriter) Writer() io.Writer {
	return mw.buf
}

// Close flushes buffered records and closes the manifest file.
func (mw *ManifestWriter) Close() error {
	if err := mw.buf.Flush(); err != nil {
		mw.file.Close()
		return common.WrapError(err, "failed to flush manifest "+mw.path)
	}
	if err := mw.file.Close(); err != nil {
		return common.WrapError(err, "failed to close manifest "+mw.path)
	}
	mw.logger.Debug().Str("path", mw.path).Msg("Manifest written")
	return nil
}
