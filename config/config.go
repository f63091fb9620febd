// Package config loads settings for the sfs command: an optional YAML
// file, then SFS_* environment variables on top.
package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	envVarPrefix = "SFS"
	appName      = "sfs"

	DefaultBlocks uint64 = 1024
)

type Config struct {
	Image  string `envconfig:"IMAGE"  yaml:"image"`
	Blocks uint64 `envconfig:"BLOCKS" yaml:"blocks"`
	Debug  uint64 `envconfig:"DEBUG"  yaml:"debug"`
	Stats  bool   `envconfig:"STATS"  yaml:"stats"`
}

func Default() Config {
	return Config{Blocks: DefaultBlocks}
}

// File returns the config file path: $SFS_CONFIG_FILE if set, else
// $HOME/.config/sfs.yaml.
func File() string {
	if f := os.Getenv(envVarPrefix + "_CONFIG_FILE"); f != "" {
		return f
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName+".yaml")
}

// Load reads the config file, if there is one, and applies environment
// overrides.
func Load() (*Config, error) {
	return LoadFile(File())
}

func LoadFile(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file `%s`: %w", path, err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Image == "" {
		return fmt.Errorf("missing required configuration: image / %s_IMAGE",
			envVarPrefix)
	}
	if c.Blocks == 0 {
		return fmt.Errorf("invalid configuration: blocks / %s_BLOCKS must be positive",
			envVarPrefix)
	}
	return nil
}
