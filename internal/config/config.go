package config

import (
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// EnvPath names the variable consulted when no --config flag is given.
const EnvPath = "GAS64_CONFIG"

type Config struct {
	LogLevel string `toml:"log_level"`
	Format   string `toml:"format"`
	Listing  bool   `toml:"listing"`
}

func Default() *Config {
	return &Config{
		LogLevel: "warn",
		Format:   "elf",
	}
}

// Path returns flag if set, otherwise the value of GAS64_CONFIG.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(EnvPath)
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := Decode(string(data), cfg); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Decode parses data into cfg and rejects keys cfg has no field for.
func Decode(data string, cfg *Config) error {
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return errors.Wrap(err, "decoding toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return errors.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}
