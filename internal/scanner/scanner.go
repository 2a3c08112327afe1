package scanner

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"mixref/internal/common"
	"mixref/internal/config"
	"mixref/internal/datastore"
)

// Scanner drives one scan invocation over many archives, aggregating their
// records into a single manifest sink. Archives are processed strictly in
// order; entries within one archive keep the container's order so that
// first-entry-wins consumers behave deterministically.
type Scanner struct {
	cfg    *config.GlobalConfig
	logger zerolog.Logger
	cache  *datastore.ScanCache
}

// ScanSummary reports the outcome of one scan invocation.
type ScanSummary struct {
	ArchivesScanned int
	ArchivesCached  int
	RecordsWritten  int
	EntriesSkipped  int
	FailedArchives  []string
	Duration        time.Duration
}

// NewScanner creates a Scanner from the global configuration.
func NewScanner(cfg *config.GlobalConfig, logger zerolog.Logger) (*Scanner, error) {
	if cfg == nil {
		return nil, common.NewValidationError("config", cfg, "global config cannot be nil")
	}
	return &Scanner{
		cfg:    cfg,
		logger: logger.With().Str("component", "Scanner").Logger(),
	}, nil
}

// WithCache attaches a scan cache; archives whose fingerprint matches a
// cached entry are served from it without being re-opened.
func (s *Scanner) WithCache(cache *datastore.ScanCache) *Scanner {
	s.cache = cache
	return s
}

// ScanArchives scans each archive in order, writing every record line to the
// sink. Per-archive failures (malformed containers) are collected and
// reported in the returned error unless FailFast is set, in which case the
// first failure aborts the run. A failed archive contributes no lines.
//
// The context is only consulted between archives; an individual archive scan
// always runs to completion.
func (s *Scanner) ScanArchives(ctx context.Context, archivePaths []string, sink io.Writer) (*ScanSummary, error) {
	startTime := time.Now()
	summary := &ScanSummary{}
	var failures common.ErrorCollector
	var exported []datastore.RefRecord

	for _, path := range archivePaths {
		if err := ctx.Err(); err != nil {
			return summary, common.WrapError(err, "scan cancelled")
		}

		records, fromCache, err := s.scanOne(path, sink, summary)
		if err != nil {
			summary.FailedArchives = append(summary.FailedArchives, path)
			if s.cfg.ScannerConfig.FailFast {
				return summary, common.WrapError(err, "scanning "+path)
			}
			s.logger.Error().Err(err).Str("archive", path).Msg("Archive scan failed, continuing with remaining archives")
			failures.AddWithContext(err, "scanning "+path)
			continue
		}

		summary.RecordsWritten += len(records)
		if fromCache {
			summary.ArchivesCached++
		} else {
			summary.ArchivesScanned++
		}

		if s.parquetEnabled() {
			scannedAt := time.Now().UnixMilli()
			for _, r := range records {
				exported = append(exported, datastore.RefRecord{
					Archive:       path,
					Owner:         r.Owner,
					Target:        r.Target,
					ScanTimestamp: scannedAt,
				})
			}
		}
	}

	if s.parquetEnabled() {
		if err := s.exportParquet(exported); err != nil {
			failures.Add(err)
		}
	}

	summary.Duration = time.Since(startTime)
	s.logSummary(summary)
	return summary, failures.Error()
}

// scanOne resolves one archive's records, from the cache when possible, and
// writes their lines to the sink.
func (s *Scanner) scanOne(path string, sink io.Writer, summary *ScanSummary) ([]TargetRecord, bool, error) {
	if records, ok := s.lookupCache(path); ok {
		for _, record := range records {
			if _, err := io.WriteString(sink, record.Line()+"\n"); err != nil {
				return nil, true, err
			}
		}
		return records, true, nil
	}

	imp := NewImport(path, s.cfg.ScannerConfig, s.logger)
	if err := imp.Read(); err != nil {
		return nil, false, err
	}
	if err := imp.AppendTo(sink); err != nil {
		return nil, false, err
	}
	summary.EntriesSkipped += imp.Skipped()

	s.storeCache(path, imp.Records())
	return imp.Records(), false, nil
}

// lookupCache returns cached records when the cache is enabled and the
// archive's fingerprint matches.
func (s *Scanner) lookupCache(path string) ([]TargetRecord, bool) {
	if s.cache == nil {
		return nil, false
	}
	size, mtime, ok := statFingerprint(path)
	if !ok {
		return nil, false
	}

	lines, hit, err := s.cache.Lookup(path, size, mtime)
	if err != nil {
		s.logger.Warn().Err(err).Str("archive", path).Msg("Scan cache lookup failed, re-scanning")
		return nil, false
	}
	if !hit {
		return nil, false
	}

	records := make([]TargetRecord, 0, len(lines))
	for _, line := range lines {
		record, err := ParseRecordLine(line)
		if err != nil {
			s.logger.Warn().Err(err).Str("archive", path).Msg("Corrupt scan cache entry, re-scanning")
			return nil, false
		}
		records = append(records, record)
	}
	s.logger.Debug().Str("archive", path).Int("records", len(records)).Msg("Serving archive from scan cache")
	return records, true
}

// storeCache persists a scanned archive's records under its fingerprint.
func (s *Scanner) storeCache(path string, records []TargetRecord) {
	if s.cache == nil {
		return
	}
	size, mtime, ok := statFingerprint(path)
	if !ok {
		return
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, record.Line())
	}
	if err := s.cache.Store(path, size, mtime, lines); err != nil {
		s.logger.Warn().Err(err).Str("archive", path).Msg("Failed to store scan cache entry")
	}
}

// parquetEnabled reports whether the columnar export is configured.
func (s *Scanner) parquetEnabled() bool {
	return s.cfg.StorageConfig.ParquetBasePath != ""
}

// exportParquet writes the aggregated records to the parquet export.
func (s *Scanner) exportParquet(records []datastore.RefRecord) error {
	writer, err := datastore.NewParquetWriter(s.cfg.StorageConfig, s.logger)
	if err != nil {
		return err
	}
	return writer.Write(records)
}

// logSummary emits the end-of-run summary with a resource usage snapshot.
func (s *Scanner) logSummary(summary *ScanSummary) {
	usage := common.GetResourceUsage()
	s.logger.Info().
		Int("archives_scanned", summary.ArchivesScanned).
		Int("archives_cached", summary.ArchivesCached).
		Int("records_written", summary.RecordsWritten).
		Int("entries_skipped", summary.EntriesSkipped).
		Int("archives_failed", len(summary.FailedArchives)).
		Dur("duration", summary.Duration).
		Int64("alloc_mb", usage.AllocMB).
		Int64("sys_mem_used_mb", usage.SystemMemUsedMB).
		Float64("sys_mem_used_percent", usage.SystemMemPercent).
		Msg("Scan complete")
}

// statFingerprint captures the size+mtime identity of an archive file.
func statFingerprint(path string) (size int64, mtimeUnix int64, ok bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0, 0, false
	}
	return info.Size(), info.ModTime().Unix(), true
}
