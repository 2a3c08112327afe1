package config

// StorageConfig defines configuration for scan output storage
type StorageConfig struct {
	// ManifestPath is where the aggregated owner/target manifest is written.
	ManifestPath string `json:"manifest_path,omitempty" yaml:"manifest_path,omitempty"`
	// ParquetBasePath enables the columnar record export when non-empty.
	ParquetBasePath string `json:"parquet_base_path,omitempty" yaml:"parquet_base_path,omitempty"`
	// CompressionType selects the parquet compression codec.
	CompressionType string `json:"compression_type,omitempty" yaml:"compression_type,omitempty" validate:"omitempty,compression"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		ManifestPath:    DefaultManifestPath,
		ParquetBasePath: "",
		CompressionType: DefaultCompression,
	}
}

// CacheConfig defines configuration for the sqlite scan cache
type CacheConfig struct {
	Enabled      bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	SQLiteDBPath string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty"`
}

// NewDefaultCacheConfig creates default cache configuration
func NewDefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      false,
		SQLiteDBPath: DefaultCacheDBPath,
	}
}
