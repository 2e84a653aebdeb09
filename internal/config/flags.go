package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path or go-getter URL of config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagDiv         = flag.Int("div", 0, "Cells per side (power of two)")
	flagSeed        = flag.Uint64("seed", 0, "Random seed")
	flagRoughness   = flag.Float64("roughness", 0, "Perturbation per unit of offset")
	flagRenormalize = flag.Bool("renormalize", false, "Rescale averaged normals to unit length")
	flagAddr        = flag.String("addr", "", "Server listen address")
	flagLogFile     = flag.String("log-file", "", "Write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// visitFlags walks the flags set on the command line. Replaced in tests.
var visitFlags = flag.Visit

// explicitFlags returns the names of flags given on the command line, so an
// explicit zero value still overrides the file.
func explicitFlags() map[string]bool {
	set := make(map[string]bool)
	visitFlags(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	set := explicitFlags()

	if set["debug"] && *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if set["div"] {
		cfg.Terrain.Div = *flagDiv
	}
	if set["seed"] {
		cfg.Terrain.Seed = *flagSeed
	}
	if set["roughness"] {
		cfg.Terrain.Roughness = *flagRoughness
	}
	if set["renormalize"] {
		cfg.Terrain.RenormalizeNormals = *flagRenormalize
	}
	if set["addr"] {
		cfg.Server.Addr = *flagAddr
	}
	if set["log-file"] {
		cfg.Logging.LogFile = *flagLogFile
	}
}
