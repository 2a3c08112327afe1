// Package scanner drives the archive walker and class annotation extractor
// for one build invocation, caching each archive's extracted records and
// serializing them to text sinks.
package scanner

import (
	"io"

	"github.com/rs/zerolog"

	"mixref/internal/archive"
	"mixref/internal/classfile"
	"mixref/internal/config"
)

// classWalker is the slice of the archive walker the Import needs; tests
// substitute counting fakes.
type classWalker interface {
	Walk(fn archive.EntryFunc) error
	Path() string
}

// Import accumulates the target records of one archive. The archive is
// scanned at most once; subsequent reads return the cached result. Rescanning
// after the archive file changes on disk is undefined, there is no
// invalidation mechanism.
type Import struct {
	file    string
	walker  classWalker
	logger  zerolog.Logger
	cfg     config.ScannerConfig
	records []TargetRecord
	skipped int
	scanned bool
}

// NewImport creates an Import for the archive at file.
func NewImport(file string, cfg config.ScannerConfig, logger zerolog.Logger) *Import {
	componentLogger := logger.With().Str("component", "Import").Str("archive", file).Logger()
	return &Import{
		file:   file,
		walker: archive.NewWalker(file, logger),
		logger: componentLogger,
		cfg:    cfg,
	}
}

// File returns the archive path this import scans.
func (im *Import) File() string {
	return im.file
}

// Scanned reports whether the archive has been read.
func (im *Import) Scanned() bool {
	return im.scanned
}

// Records returns the cached target records in extraction order. Callers must
// not mutate the returned slice.
func (im *Import) Records() []TargetRecord {
	return im.records
}

// Skipped returns how many class entries were skipped as malformed during the
// scan.
func (im *Import) Skipped() int {
	return im.skipped
}

// Read scans the archive once, extracting target records from every
// compiled-class entry. Idempotent: a second call returns immediately without
// re-reading the archive.
//
// Malformed class entries are skipped and the scan continues; a malformed
// archive aborts the scan with an error and leaves the import unscanned with
// no partial records, so a failed archive never looks complete.
func (im *Import) Read() error {
	if im.scanned {
		return nil
	}

	err := im.walker.Walk(func(name string, data []byte) error {
		info, extractErr := classfile.Extract(data)
		if extractErr != nil {
			im.skipped++
			if im.cfg.LogSkippedEntries {
				im.logger.Warn().Err(extractErr).Str("entry", name).Msg("Skipping malformed class entry")
			}
			return nil
		}

		for _, target := range info.Targets {
			im.records = append(im.records, TargetRecord{Owner: info.ClassName, Target: target})
		}
		return nil
	})
	if err != nil {
		im.records = nil
		im.skipped = 0
		return err
	}

	im.scanned = true
	im.logger.Debug().Int("records", len(im.records)).Int("skipped_entries", im.skipped).Msg("Archive scan complete")
	return nil
}

// AppendTo ensures the archive has been read, then writes each cached record
// as one line to the sink. The sink is not closed; its lifecycle belongs to
// the caller.
func (im *Import) AppendTo(w io.Writer) error {
	if err := im.Read(); err != nil {
		return err
	}

	for _, record := range im.records {
		if _, err := io.WriteString(w, record.Line()+"\n"); err != nil {
			return err
		}
	}
	return nil
}
