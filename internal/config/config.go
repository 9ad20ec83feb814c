// Package config handles grfcli batch configuration loading and management.
package config

// Config holds the settings grfcli applies when no equivalent flag is given
// on the command line.
type Config struct {
	Archive ArchiveConfig `yaml:"archive"`
	Extract ExtractConfig `yaml:"extract"`
	Logging LoggingConfig `yaml:"logging"`
}

// ArchiveConfig mirrors the subset of grf.Options a batch job typically
// wants to pin, rather than accept the library defaults.
type ArchiveConfig struct {
	FilenameEncoding    string  `yaml:"filename_encoding"` // "auto", "utf-8", "cp949", "euc-kr", "latin-1"
	AutoDetectThreshold float64 `yaml:"auto_detect_threshold"`
	MaxFileMB           int64   `yaml:"max_file_mb"`
	MaxEntries          uint32  `yaml:"max_entries"`
	CacheCapacity       int     `yaml:"cache_capacity"`
	UseBytePool         bool    `yaml:"use_byte_pool"`
}

// ExtractConfig holds defaults for the extract subcommand.
type ExtractConfig struct {
	OutputDir         string `yaml:"output_dir"`
	PreserveStructure bool   `yaml:"preserve_structure"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values, matching
// grf.DefaultOptions where the two overlap.
func Default() *Config {
	return &Config{
		Archive: ArchiveConfig{
			FilenameEncoding:    "auto",
			AutoDetectThreshold: 0.01,
			MaxFileMB:           256,
			MaxEntries:          500_000,
			CacheCapacity:       50,
			UseBytePool:         true,
		},
		Extract: ExtractConfig{
			OutputDir:         ".",
			PreserveStructure: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
