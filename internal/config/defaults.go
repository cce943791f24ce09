package config

// DefaultMaxUploadBytes bounds request bodies on the convert and extract endpoints.
const DefaultMaxUploadBytes = 32 << 20

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kertas/data/db/conversions.db"
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "/usr/local/var/kertas/data/output"
	}
	if cfg.Convert.PageSize == "" {
		cfg.Convert.PageSize = "A4"
	}
	if cfg.Convert.CacheSize == 0 {
		cfg.Convert.CacheSize = 128
	}
	if cfg.Convert.Extensions == nil {
		cfg.Convert.Extensions = []string{".docx", ".pptx", ".xlsx", ".odt", ".odp", ".ods", ".txt", ".md", ".rst"}
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".docx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
