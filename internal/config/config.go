// Package config loads the optional modsync.toml from the staging
// directory. Every field has a working default; the file only overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/overviewer/bg3-modsync/pkg/models"
)

// FileName is the config file looked up in the staging directory.
const FileName = "modsync.toml"

type Config struct {
	Paths     PathsConfig     `toml:"paths"`
	Mods      ModsConfig      `toml:"mods"`
	Blacklist BlacklistConfig `toml:"blacklist"`
	Fetch     FetchConfig     `toml:"fetch"`
}

// PathsConfig overrides platform discovery. Empty values mean discover.
type PathsConfig struct {
	Game    string `toml:"game"`
	AppData string `toml:"appdata"`
	Steam   string `toml:"steam"`
}

type ModsConfig struct {
	// Dirs are the staging subdirectories installed into the game root.
	Dirs []string `toml:"dirs"`
	// Optional also installs the OPTIONAL-MODS tree without the flag.
	Optional bool `toml:"optional"`
}

type BlacklistConfig struct {
	// Patterns are doublestar globs over installed relative paths.
	Patterns []string `toml:"patterns"`
}

// FetchConfig points at the S3-compatible bucket holding the mod bundle.
type FetchConfig struct {
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	AccessKey string `toml:"access-key"`
	SecretKey string `toml:"secret-key"`
	Secure    bool   `toml:"secure"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Mods: ModsConfig{
			Dirs: append([]string(nil), models.ModDirs...),
		},
		Blacklist: BlacklistConfig{
			Patterns: append([]string(nil), models.DefaultBlacklist...),
		},
		Fetch: FetchConfig{
			Secure: true,
		},
	}
}

// Load reads dir/modsync.toml over the defaults. A missing file is not
// an error.
func Load(dir string) (Config, error) {
	cfg := Default()
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %v", path, err)
	}
	return cfg, nil
}
