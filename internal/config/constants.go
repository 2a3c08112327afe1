package config

// Default values applied before a config file is parsed.
const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultMaxLogBackups = 3
	DefaultMaxLogSizeMB  = 100

	DefaultManifestPath = "mixin-targets.tsv"
	DefaultCompression  = "zstd"

	DefaultCacheDBPath = ".mixref/scan_cache.db"

	// MaxConfigFileSize bounds how much of a config file the loader will read.
	MaxConfigFileSize = 10 * 1024 * 1024
)
