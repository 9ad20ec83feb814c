package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagEncoding  = flag.String("encoding", "", "Force filename encoding (auto, utf-8, cp949, euc-kr, latin-1)")
	flagOutputDir = flag.String("output", "", "Output directory for extract")
	flagCacheSize = flag.Int("cache", 0, "Extraction cache capacity")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagEncoding != "" {
		cfg.Archive.FilenameEncoding = *flagEncoding
	}
	if *flagOutputDir != "" {
		cfg.Extract.OutputDir = *flagOutputDir
	}
	if *flagCacheSize > 0 {
		cfg.Archive.CacheCapacity = *flagCacheSize
	}
}
