package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-ario/integration"
	"github.com/rony4d/go-ario/inter"
)

// Config aggregates everything the launcher needs.
type Config struct {
	DataDir string        `toml:"datadir"`
	Process ProcessConfig `toml:"process"`
	Network NetworkConfig `toml:"network"`
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
}

type ProcessConfig struct {
	ID    string `toml:"id"`
	Owner string `toml:"owner"`
	Name  string `toml:"name"`
}

// NetworkConfig selects a preset and optionally overrides parts of it.
type NetworkConfig struct {
	Preset  string `toml:"preset"`
	Rules   string `toml:"rules,omitempty"`
	Genesis string `toml:"genesis,omitempty"`
	// Gateways and Records size the generated genesis, zero keeps the preset.
	Gateways int `toml:"gateways,omitempty"`
	Records  int `toml:"records,omitempty"`
}

type LoggingConfig struct {
	Verbosity int    `toml:"verbosity"`
	Format    string `toml:"format"`
	Color     bool   `toml:"color"`
	SentryDSN string `toml:"sentryDsn,omitempty"`
}

type MetricsConfig struct {
	File string `toml:"file,omitempty"`
}

// Env is the environment messages are handled in.
func (c Config) Env() inter.Env {
	return inter.Env{
		ProcessID: c.Process.ID,
		Owner:     c.Process.Owner,
		Name:      c.Process.Name,
	}
}

// Preset resolves the named preset with the configured overrides applied.
func (c Config) Preset() (integration.Preset, error) {
	p, err := integration.GetPresetByName(c.Network.Preset)
	if err != nil {
		return integration.Preset{}, err
	}
	integration.ApplyPreset(&p, integration.Preset{
		Network:     c.Network.Rules,
		Gateways:    c.Network.Gateways,
		Records:     c.Network.Records,
		FakeGenesis: p.FakeGenesis,
	})
	return p, nil
}

// StorePath is the snapshot store directory.
func (c Config) StorePath() string {
	return filepath.Join(c.DataDir, snapshotDir)
}

// MakeAllConfigs merges the defaults, the optional config file and the CLI
// flag overrides into a single config.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := DefaultConfig()

	if file := ctx.GlobalString("config"); file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyCLIOverrides(ctx, &cfg)

	p, err := cfg.Preset()
	if err != nil {
		return Config{}, err
	}
	if _, err := p.Rules(); err != nil {
		return Config{}, err
	}
	if err := ensureDir(cfg.DataDir); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadConfigFile decodes path over cfg. Keys absent from the file keep their
// current values; unknown keys are an error.
func loadConfigFile(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("datadir") {
		cfg.DataDir = resolvePath(cfg.DataDir)
	}
	if meta.IsDefined("network", "genesis") && cfg.Network.Genesis != "" {
		cfg.Network.Genesis = resolvePath(cfg.Network.Genesis)
	}
	return nil
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) {
	if ctx.GlobalIsSet("datadir") {
		cfg.DataDir = resolvePath(ctx.GlobalString("datadir"))
	}

	if ctx.GlobalIsSet("process.id") {
		cfg.Process.ID = ctx.GlobalString("process.id")
	}
	if ctx.GlobalIsSet("process.owner") {
		cfg.Process.Owner = ctx.GlobalString("process.owner")
	}
	if ctx.GlobalIsSet("process.name") {
		cfg.Process.Name = ctx.GlobalString("process.name")
	}

	if ctx.GlobalIsSet("preset") {
		cfg.Network.Preset = ctx.GlobalString("preset")
	}
	if ctx.GlobalIsSet("network") {
		cfg.Network.Rules = ctx.GlobalString("network")
	}
	if ctx.GlobalIsSet("genesis") {
		cfg.Network.Genesis = resolvePath(ctx.GlobalString("genesis"))
	}
	if ctx.GlobalIsSet("fake.gateways") {
		cfg.Network.Gateways = ctx.GlobalInt("fake.gateways")
	}
	if ctx.GlobalIsSet("fake.records") {
		cfg.Network.Records = ctx.GlobalInt("fake.records")
	}

	if ctx.GlobalIsSet("log.format") {
		cfg.Logging.Format = ctx.GlobalString("log.format")
	}
	if ctx.GlobalIsSet("log.verbosity") {
		cfg.Logging.Verbosity = ctx.GlobalInt("log.verbosity")
	}
	if ctx.GlobalIsSet("log.color") {
		cfg.Logging.Color = ctx.GlobalBool("log.color")
	}
	if ctx.GlobalIsSet("sentry.dsn") {
		cfg.Logging.SentryDSN = ctx.GlobalString("sentry.dsn")
	}

	if ctx.GlobalIsSet("metrics.file") {
		cfg.Metrics.File = resolvePath(ctx.GlobalString("metrics.file"))
	}
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create datadir %s: %w", dir, err)
	}
	return nil
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
