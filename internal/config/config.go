// Package config loads model configuration files. A file describes one
// network construction and can be written as YAML or JSON; the field names
// follow the option names of the separation literature so existing recipe
// files translate directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"dptsep/internal/dpt"
)

// File is the on-disk model configuration. Pointer fields distinguish
// "not set" (use the model default) from explicit zero values.
type File struct {
	Bases  int  `yaml:"n_bases" json:"n_bases"`
	Kernel int  `yaml:"kernel_size" json:"kernel_size"`
	Stride *int `yaml:"stride" json:"stride"`

	EncBases     string `yaml:"enc_bases" json:"enc_bases"`
	DecBases     string `yaml:"dec_bases" json:"dec_bases"`
	EncNonlinear string `yaml:"enc_nonlinear" json:"enc_nonlinear"`

	BottleneckChannels *int `yaml:"sep_bottleneck_channels" json:"sep_bottleneck_channels"`
	HiddenChannels     *int `yaml:"sep_hidden_channels" json:"sep_hidden_channels"`
	ChunkSize          *int `yaml:"sep_chunk_size" json:"sep_chunk_size"`
	HopSize            *int `yaml:"sep_hop_size" json:"sep_hop_size"`
	NumBlocks          *int `yaml:"sep_num_blocks" json:"sep_num_blocks"`
	NumHeads           *int `yaml:"sep_num_heads" json:"sep_num_heads"`

	Causal        bool    `yaml:"causal" json:"causal"`
	MaskNonlinear string  `yaml:"mask_nonlinear" json:"mask_nonlinear"`
	Sources       *int    `yaml:"n_sources" json:"n_sources"`
	Eps           float32 `yaml:"eps" json:"eps"`
	Seed          int64   `yaml:"seed" json:"seed"`
}

// Load reads a model configuration, picking the format by file extension
// (.yaml/.yml or .json).
func Load(path string) (dpt.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dpt.Config{}, fmt.Errorf("read model config: %w", err)
	}
	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return dpt.Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return dpt.Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return dpt.Config{}, fmt.Errorf("unsupported model config extension: %s", path)
	}
	return f.ToModel(), nil
}

// ToModel converts the file representation into a construction config.
// Defaults for unset fields are applied by dpt.Config.Normalize inside
// dpt.New, not here.
func (f *File) ToModel() dpt.Config {
	cfg := dpt.Config{
		Bases:         f.Bases,
		Kernel:        f.Kernel,
		EncBases:      f.EncBases,
		DecBases:      f.DecBases,
		EncNonlinear:  f.EncNonlinear,
		Causal:        f.Causal,
		MaskNonlinear: f.MaskNonlinear,
		Eps:           f.Eps,
		Seed:          f.Seed,
	}
	if f.Stride != nil {
		cfg.Stride = *f.Stride
	}
	if f.BottleneckChannels != nil {
		cfg.BottleneckChannels = *f.BottleneckChannels
	}
	if f.HiddenChannels != nil {
		cfg.HiddenChannels = *f.HiddenChannels
	}
	if f.ChunkSize != nil {
		cfg.ChunkSize = *f.ChunkSize
	}
	if f.HopSize != nil {
		cfg.HopSize = *f.HopSize
	}
	if f.NumBlocks != nil {
		cfg.NumBlocks = *f.NumBlocks
	}
	if f.NumHeads != nil {
		cfg.NumHeads = *f.NumHeads
	}
	if f.Sources != nil {
		cfg.Sources = *f.Sources
	}
	return cfg
}
