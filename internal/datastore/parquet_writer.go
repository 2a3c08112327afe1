package datastore

import (
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"

	"mixref/internal/common"
	"mixref/internal/config"
)

// RefRecord is the columnar form of one target record, carrying the archive
// it came from and the scan timestamp.
type RefRecord struct {
	Archive       string `parquet:"archive"`
	Owner         string `parquet:"owner"`
	Target        string `parquet:"target"`
	ScanTimestamp int64  `parquet:"scan_timestamp"`
}

// ParquetWriter exports scan records to a parquet file under the configured
// base path. The export is optional and additive; the text manifest remains
// the canonical output.
type ParquetWriter struct {
	config config.StorageConfig
	logger zerolog.Logger
}

// NewParquetWriter creates a ParquetWriter from the storage configuration.
func NewParquetWriter(cfg config.StorageConfig, logger zerolog.Logger) (*ParquetWriter, error) {
	if cfg.ParquetBasePath == "" {
		return nil, common.NewValidationError("parquet_base_path", cfg.ParquetBasePath, "ParquetBasePath is not configured")
	}
	return &ParquetWriter{
		config: cfg,
		logger: logger.With().Str("component", "ParquetWriter").Logger(),
	}, nil
}

// Write persists the records to <base>/targets.parquet, truncating any
// previous export.
func (pw *ParquetWriter) Write(records []RefRecord) error {
	startTime := time.Now()

	if err := os.MkdirAll(pw.config.ParquetBasePath, 0755); err != nil {
		return common.WrapError(err, "failed to create parquet directory "+pw.config.ParquetBasePath)
	}

	filePath := filepath.Join(pw.config.ParquetBasePath, "targets.parquet")
	file, err := os.Create(filePath)
	if err != nil {
		return common.WrapError(err, "failed to create parquet file "+filePath)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[RefRecord](file, pw.compressionOption())
	written, err := writer.Write(records)
	if err != nil {
		writer.Close()
		return common.WrapError(err, "failed to write records to parquet file")
	}
	if err := writer.Close(); err != nil {
		return common.WrapError(err, "failed to finalize parquet file")
	}

	pw.logger.Info().
		Str("file_path", filePath).
		Int("records_written", written).
		Dur("write_time", time.Since(startTime)).
		Msg("Wrote scan records to parquet file")
	return nil
}

// compressionOption maps the configured codec name to a writer option.
func (pw *ParquetWriter) compressionOption() parquet.WriterOption {
	switch pw.config.CompressionType {
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}
