package datastore

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"mixref/internal/common"
)

// ScanCache persists each archive's manifest lines keyed by path together
// with a size+mtime fingerprint, so unchanged archives are not re-parsed on
// the next invocation. A stale fingerprint is treated as a miss.
type ScanCache struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewScanCache opens (creating if necessary) the cache database at
// dataSourceName and ensures the schema exists.
func NewScanCache(dataSourceName string, logger zerolog.Logger) (*ScanCache, error) {
	cacheLogger := logger.With().Str("component", "ScanCache").Logger()
	cacheLogger.Debug().Str("db_path", dataSourceName).Msg("Opening scan cache")

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, common.WrapError(err, "failed to create scan cache directory "+dbDir)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, common.WrapError(err, "sql.Open failed for "+dataSourceName)
	}

	cache := &ScanCache{
		db:     dbInstance,
		logger: cacheLogger,
	}

	if err := cache.initSchema(); err != nil {
		cache.Close()
		return nil, common.WrapError(err, "failed to initialize scan cache schema")
	}
	return cache, nil
}

// Close closes the cache database.
func (sc *ScanCache) Close() error {
	if sc.db != nil {
		return sc.db.Close()
	}
	return nil
}

// initSchema creates the archive_scans table if it doesn't already exist.
func (sc *ScanCache) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS archive_scans (
		archive_path TEXT PRIMARY KEY,
		file_size INTEGER NOT NULL,
		mtime_unix INTEGER NOT NULL,
		record_lines TEXT NOT NULL,
		scanned_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := sc.db.Exec(query)
	return err
}

// Lookup returns the cached manifest lines for the archive when the stored
// fingerprint matches, or ok=false on a miss or stale entry.
func (sc *ScanCache) Lookup(archivePath string, fileSize, mtimeUnix int64) ([]string, bool, error) {
	query := `SELECT file_size, mtime_unix, record_lines FROM archive_scans WHERE archive_path = ?`

	var storedSize, storedMtime int64
	var recordLines string
	err := sc.db.QueryRow(query, archivePath).Scan(&storedSize, &storedMtime, &recordLines)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, common.WrapError(err, "failed to query scan cache for "+archivePath)
	}

	if storedSize != fileSize || storedMtime != mtimeUnix {
		sc.logger.Debug().Str("archive", archivePath).Msg("Scan cache entry is stale")
		return nil, false, nil
	}

	if recordLines == "" {
		return nil, true, nil
	}
	return strings.Split(recordLines, "\n"), true, nil
}

// Store upserts the archive's manifest lines under its current fingerprint.
func (sc *ScanCache) Store(archivePath string, fileSize, mtimeUnix int64, lines []string) error {
	query := `
	INSERT INTO archive_scans (archive_path, file_size, mtime_unix, record_lines, scanned_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(archive_path) DO UPDATE SET
		file_size = excluded.file_size,
		mtime_unix = excluded.mtime_unix,
		record_lines = excluded.record_lines,
		scanned_at = excluded.scanned_at
	`
	_, err := sc.db.Exec(query, archivePath, fileSize, mtimeUnix, strings.Join(lines, "\n"))
	if err != nil {
		return common.WrapError(err, "failed to store scan cache entry for "+archivePath)
	}
	sc.logger.Debug().Str("archive", archivePath).Int("lines", len(lines)).Msg("Stored scan cache entry")
	return nil
}
