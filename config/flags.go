package config

import "flag"

// Flags are the command line overrides. Zero values leave the config unchanged.
type Flags struct {
	Config     string
	Root       string
	Addr       string
	LogLevel   string
	LogFile    string
	Catalog    string
	TargetSize float64
	YOffset    float64
	BatchSize  int
	Debug      bool
}

// RegisterFlags defines the config flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.StringVar(&f.Root, "root", "", "Asset root directory or URL")
	fs.StringVar(&f.Addr, "addr", "", "HTTP listen address")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.StringVar(&f.Catalog, "catalog", "", "Catalog override file")
	fs.Float64Var(&f.TargetSize, "size", 0, "Normalized model size")
	fs.Float64Var(&f.YOffset, "y-offset", 0, "Vertical offset after normalization")
	fs.IntVar(&f.BatchSize, "batch", 0, "Preload batch size")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	return f
}

func (f *Flags) apply(cfg *Config) {
	if f.Root != "" {
		cfg.Assets.Root = f.Root
	}
	if f.Addr != "" {
		cfg.Server.Addr = f.Addr
	}
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.File = f.LogFile
	}
	if f.Catalog != "" {
		cfg.Catalog.File = f.Catalog
	}
	if f.TargetSize > 0 {
		cfg.Pipeline.TargetSize = float32(f.TargetSize)
	}
	if f.YOffset != 0 {
		cfg.Pipeline.YOffset = float32(f.YOffset)
	}
	if f.BatchSize > 0 {
		cfg.Pipeline.BatchSize = f.BatchSize
	}
}
