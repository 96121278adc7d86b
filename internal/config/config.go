// Package config handles export configuration loading and management.
package config

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/pkg/export"
)

// Config holds all exporter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export" toml:"export"`
	Source  SourceConfig  `yaml:"source" toml:"source"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Batch   BatchConfig   `yaml:"batch" toml:"batch"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ExportConfig mirrors export.Options.
type ExportConfig struct {
	Materials       bool    `yaml:"materials" toml:"materials"`
	Textures        bool    `yaml:"textures" toml:"textures"`
	Normals         bool    `yaml:"normals" toml:"normals"`
	Links           bool    `yaml:"links" toml:"links"`
	Metadata        bool    `yaml:"metadata" toml:"metadata"`
	FlipAxis        bool    `yaml:"flip_axis" toml:"flip_axis"`
	UnitScale       float32 `yaml:"unit_scale" toml:"unit_scale"`
	VertexTolerance float32 `yaml:"vertex_tolerance" toml:"vertex_tolerance"`
	Generator       string  `yaml:"generator" toml:"generator"`
	Copyright       string  `yaml:"copyright" toml:"copyright"`
}

// SourceConfig holds where game files are read from. The data directory
// overrides the archives, which are searched in order.
type SourceConfig struct {
	DataDir  string   `yaml:"data_dir" toml:"data_dir"`
	GRFPaths []string `yaml:"grf_paths" toml:"grf_paths"`
}

// OutputConfig holds where exports are written.
type OutputConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// BatchConfig holds batch export settings.
type BatchConfig struct {
	Workers int `yaml:"workers" toml:"workers"` // 0 means one per CPU
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`
	LogFile    string `yaml:"log_file" toml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
	Compress   bool   `yaml:"compress" toml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := export.DefaultOptions()
	file := logger.DefaultFileConfig("")
	return &Config{
		Export: ExportConfig{
			Materials: opts.Materials,
			Textures:  opts.Textures,
			Normals:   opts.Normals,
			Links:     opts.Links,
			Metadata:  opts.Metadata,
			UnitScale: opts.UnitScale,
			Generator: opts.Generator,
		},
		Source: SourceConfig{
			GRFPaths: []string{"data.grf"},
		},
		Output: OutputConfig{
			Dir: "out",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAgeDays: file.MaxAgeDays,
			Compress:   file.Compress,
		},
	}
}

// ExportOptions converts the export section into session options for the
// output basename name.
func (c *Config) ExportOptions(name string, log *zap.Logger) export.Options {
	e := c.Export
	return export.Options{
		Name:            name,
		Materials:       e.Materials,
		Textures:        e.Textures,
		Normals:         e.Normals,
		Links:           e.Links,
		Metadata:        e.Metadata,
		FlipAxis:        e.FlipAxis,
		UnitScale:       e.UnitScale,
		VertexTolerance: e.VertexTolerance,
		Generator:       e.Generator,
		Copyright:       e.Copyright,
		Logger:          log,
	}
}

// FileConfig returns the log file settings.
func (c *Config) FileConfig() logger.FileConfig {
	l := c.Logging
	return logger.FileConfig{
		Path:       l.LogFile,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
		Compress:   l.Compress,
	}
}
