// Package config loads editor settings from a TOML file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
)

func init() {
	govalidator.SetFieldsRequiredByDefault(false)
}

// DefaultLocation is the config file consulted when none is given.
var DefaultLocation = "./pdfsigner.conf"

// Config is the root of the config.
type Config struct {
	// Export settings.
	CompressStreams bool   `toml:"compress_streams"`
	OutputPrefix    string `toml:"output_prefix" valid:"required"`
	HighlightColor  string `toml:"highlight_color" valid:"hexcolor,optional"`
	TextColor       string `toml:"text_color" valid:"hexcolor,optional"`

	// Signature pad settings.
	PadWidth  int `toml:"pad_width" valid:"range(100|4000)"`
	PadHeight int `toml:"pad_height" valid:"range(100|4000)"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		CompressStreams: true,
		OutputPrefix:    "edited_",
		HighlightColor:  "#ffeb3b",
		TextColor:       "#1b1b1b",
		PadWidth:        600,
		PadHeight:       200,
	}
}

// ValidateFields validates all the fields of the config.
func (c Config) ValidateFields() error {
	if _, err := govalidator.ValidateStruct(c); err != nil {
		return err
	}
	return nil
}

// Load reads and validates the config file at path. A missing file is
// not an error; the defaults are returned instead.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultLocation
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}

	c := Default()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	if err := c.ValidateFields(); err != nil {
		return Config{}, fmt.Errorf("config is not valid: %w", err)
	}
	return c, nil
}
