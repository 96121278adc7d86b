package config

import (
	"flag"
	"strings"
)

// Flags are the command-line overrides shared by every subcommand.
type Flags struct {
	Config    string
	Debug     bool
	Output    string
	DataDir   string
	GRF       stringList
	Workers   int
	UnitScale float64
	FlipAxis  bool

	NoMaterials bool
	NoTextures  bool
	NoNormals   bool
	NoLinks     bool
	NoMetadata  bool
}

// RegisterFlags defines the override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file (.yaml or .toml)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Output, "o", "", "Output directory")
	fs.StringVar(&f.DataDir, "data", "", "Extracted data directory, searched before archives")
	fs.Var(&f.GRF, "grf", "GRF archive (repeatable; replaces configured archives)")
	fs.IntVar(&f.Workers, "workers", 0, "Concurrent exports in batch mode")
	fs.Float64Var(&f.UnitScale, "scale", 0, "Uniform unit scale")
	fs.BoolVar(&f.FlipAxis, "flip-axis", false, "Rotate Z-up scenes to Y-up")
	fs.BoolVar(&f.NoMaterials, "no-materials", false, "Do not export materials")
	fs.BoolVar(&f.NoTextures, "no-textures", false, "Do not export textures")
	fs.BoolVar(&f.NoNormals, "no-normals", false, "Do not export normals")
	fs.BoolVar(&f.NoLinks, "no-links", false, "Do not descend into placed models")
	fs.BoolVar(&f.NoMetadata, "no-metadata", false, "Do not emit structural metadata")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Output != "" {
		cfg.Output.Dir = f.Output
	}
	if f.DataDir != "" {
		cfg.Source.DataDir = f.DataDir
	}
	if len(f.GRF) > 0 {
		cfg.Source.GRFPaths = append([]string(nil), f.GRF...)
	}
	if f.Workers > 0 {
		cfg.Batch.Workers = f.Workers
	}
	if f.UnitScale > 0 {
		cfg.Export.UnitScale = float32(f.UnitScale)
	}
	if f.FlipAxis {
		cfg.Export.FlipAxis = true
	}
	if f.NoMaterials {
		cfg.Export.Materials = false
	}
	if f.NoTextures {
		cfg.Export.Textures = false
	}
	if f.NoNormals {
		cfg.Export.Normals = false
	}
	if f.NoLinks {
		cfg.Export.Links = false
	}
	if f.NoMetadata {
		cfg.Export.Metadata = false
	}
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
