package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigCatalogPath = "catalog-path"
	ConfigStrict      = "strict"
	ConfigWorkers     = "workers"
	ConfigTimeout     = "timeout"
	ConfigShuffle     = "shuffle"
	ConfigResultsDB   = "results-db"
	ConfigDebug       = "debug"
	ConfigConfigFile  = "config-file"
)

// Config is the viper-backed configuration. Values come from, in order of
// precedence: flags, MATECHECK_* environment variables, an optional config
// file, and the defaults below.
type Config struct {
	*viper.Viper
}

// DefaultConfig returns a config holding only the defaults. Tests use it
// directly.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigCatalogPath, "./data/puzzles.json")
	c.SetDefault(ConfigStrict, false)
	c.SetDefault(ConfigWorkers, 0)
	c.SetDefault(ConfigTimeout, time.Duration(0))
	c.SetDefault(ConfigShuffle, false)
	c.SetDefault(ConfigResultsDB, "")
	c.SetDefault(ConfigDebug, false)
}

func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	c.setDefaults()

	fs := pflag.NewFlagSet("matecheck", pflag.ContinueOnError)
	fs.String(ConfigCatalogPath, c.GetString(ConfigCatalogPath), "puzzle catalog file (.json, .yaml)")
	fs.Bool(ConfigStrict, false, "require every solving move to check and every reply to be forced")
	fs.Int(ConfigWorkers, 0, "puzzles verified in parallel; 0 means one per CPU")
	fs.Duration(ConfigTimeout, 0, "per-puzzle verification timeout; 0 disables it")
	fs.Bool(ConfigShuffle, false, "verify puzzles in random order")
	fs.String(ConfigResultsDB, "", "sqlite file to record verdict history in")
	fs.Bool(ConfigDebug, false, "debug logging")
	fs.String(ConfigConfigFile, "", "optional config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}

	c.SetEnvPrefix("matecheck")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if cf := c.GetString(ConfigConfigFile); cf != "" {
		c.SetConfigFile(cf)
		if err := c.ReadInConfig(); err != nil {
			return err
		}
	}
	return nil
}

// SanitizedSettings is safe to log.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
