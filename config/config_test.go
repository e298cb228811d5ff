package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetString(ConfigCatalogPath), "./data/puzzles.json")
	is.Equal(cfg.GetBool(ConfigStrict), false)
	is.Equal(cfg.GetInt(ConfigWorkers), 0)
	is.Equal(cfg.GetDuration(ConfigTimeout), time.Duration(0))
	is.Equal(cfg.GetString(ConfigResultsDB), "")
}

func TestLoadNoArgs(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load(nil))
	is.Equal(cfg.GetString(ConfigCatalogPath), "./data/puzzles.json")
	is.Equal(cfg.GetBool(ConfigDebug), false)
}

func TestLoadFlags(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--strict", "--workers", "3", "--timeout", "2s", "--catalog-path", "x.yaml"}))
	is.True(cfg.GetBool(ConfigStrict))
	is.Equal(cfg.GetInt(ConfigWorkers), 3)
	is.Equal(cfg.GetDuration(ConfigTimeout), 2*time.Second)
	is.Equal(cfg.GetString(ConfigCatalogPath), "x.yaml")
}

func TestLoadEnv(t *testing.T) {
	is := is.New(t)
	t.Setenv("MATECHECK_RESULTS_DB", "/tmp/h.db")
	t.Setenv("MATECHECK_SHUFFLE", "true")
	cfg := &Config{}
	is.NoErr(cfg.Load(nil))
	is.Equal(cfg.GetString(ConfigResultsDB), "/tmp/h.db")
	is.True(cfg.GetBool(ConfigShuffle))
}

func TestLoadConfigFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "matecheck.yaml")
	is.NoErr(os.WriteFile(path, []byte("workers: 7\nstrict: true\n"), 0o644))
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--config-file", path}))
	is.Equal(cfg.GetInt(ConfigWorkers), 7)
	is.True(cfg.GetBool(ConfigStrict))
}

func TestLoadBadFlag(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.True(cfg.Load([]string{"--no-such-flag"}) != nil)
}
