package config

// ScannerConfig defines configuration for the archive scan run
type ScannerConfig struct {
	// FailFast aborts the whole run on the first malformed archive instead of
	// collecting the error and continuing with the remaining archives.
	FailFast bool `json:"fail_fast,omitempty" yaml:"fail_fast,omitempty"`
	// LogSkippedEntries emits a log line for every class entry skipped as malformed.
	LogSkippedEntries bool `json:"log_skipped_entries,omitempty" yaml:"log_skipped_entries,omitempty"`
}

// NewDefaultScannerConfig creates default scanner configuration
func NewDefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		FailFast:          false,
		LogSkippedEntries: true,
	}
}
