package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/shamspias/embedimg"
	"github.com/spf13/cobra"
)

// HomeEnv overrides the directory holding config.json.
const HomeEnv = "EMBEDIMG_HOME"

// Preset is a named pair of collaborator defaults.
type Preset struct {
	MaxWidth int     `json:"max_width"`
	Quality  float64 `json:"quality"`
}

// Config holds the CLI configuration.
type Config struct {
	DefaultPreset string            `json:"default_preset"`
	Presets       map[string]Preset `json:"presets"`
	Filter        string            `json:"filter"`
	LogLevel      string            `json:"log_level"`
}

// DefaultConfig returns the built-in presets: icon-scale to photo-scale.
func DefaultConfig() *Config {
	return &Config{
		DefaultPreset: "photo",
		Presets: map[string]Preset{
			"icon":   {MaxWidth: 64, Quality: 0.8},
			"avatar": {MaxWidth: 128, Quality: 0.85},
			"photo":  {MaxWidth: 300, Quality: embedimg.DefaultQuality},
		},
		Filter:   embedimg.Lanczos.String(),
		LogLevel: "info",
	}
}

// HomeDir is $EMBEDIMG_HOME, or ~/.embedimg.
func HomeDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".embedimg")
}

// ConfigPath is config.json inside HomeDir.
func ConfigPath() string {
	return filepath.Join(HomeDir(), "config.json")
}

// LoadConfig reads the config file, layered over DefaultConfig. A missing
// file is not an error.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(ConfigPath())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// SaveConfig writes cfg to ConfigPath, creating HomeDir if needed.
func SaveConfig(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(ConfigPath()), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ConfigPath(), data, 0600)
}

// Preset looks up name, or the default preset when name is empty.
func (c *Config) Preset(name string) (Preset, error) {
	if name == "" {
		name = c.DefaultPreset
	}
	p, ok := c.Presets[name]
	if !ok {
		names := make([]string, 0, len(c.Presets))
		for n := range c.Presets {
			names = append(names, n)
		}
		sort.Strings(names)
		return Preset{}, fmt.Errorf("unknown preset %q (have %v)", name, names)
	}
	if p.MaxWidth <= 0 {
		return Preset{}, fmt.Errorf("preset %q: max_width must be positive", name)
	}
	return p, nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := LoadConfig()
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := os.Stat(ConfigPath()); err == nil {
					return fmt.Errorf("%s already exists", ConfigPath())
				}
				if err := SaveConfig(DefaultConfig()); err != nil {
					return errors.Wrap(err, "write config")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", ConfigPath())
				return nil
			},
		},
	)
	return cmd
}
