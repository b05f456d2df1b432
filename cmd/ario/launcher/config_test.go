package launcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-ario/flags"
)

// runConfigFromArgs runs MakeAllConfigs with a synthetic CLI context.
func runConfigFromArgs(t *testing.T, args []string) (Config, error) {
	t.Helper()

	app := cli.NewApp()
	app.HideHelp = true
	app.HideVersion = true
	app.Flags = flags.AllFlags()

	var (
		got Config
		err error
	)
	app.Action = func(c *cli.Context) error {
		got, err = MakeAllConfigs(c)
		return nil
	}
	require.NoError(t, app.Run(append([]string{"ario"}, args...)))
	return got, err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMakeAllConfigs(t *testing.T) {
	datadir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want func(t *testing.T, cfg Config)
	}{
		{
			name: "defaults",
			args: []string{"--datadir", datadir},
			want: func(t *testing.T, cfg Config) {
				require := require.New(t)
				require.Equal(datadir, cfg.DataDir)
				require.Equal(filepath.Join(datadir, "snapshots"), cfg.StorePath())
				require.Equal(DefaultProcessID, cfg.Process.ID)
				require.Equal(DefaultOwner, cfg.Process.Owner)
				require.Equal(DefaultPreset, cfg.Network.Preset)
				require.Equal(DefaultLogVerbosity, cfg.Logging.Verbosity)
				require.Empty(cfg.Metrics.File)
			},
		},
		{
			name: "process environment",
			args: []string{"--datadir", datadir, "--process.id", "AOS", "--process.owner", "FOOBAR", "--process.name", "Test ARIO"},
			want: func(t *testing.T, cfg Config) {
				env := cfg.Env()
				require.Equal(t, "AOS", env.ProcessID)
				require.Equal(t, "FOOBAR", env.Owner)
				require.Equal(t, "Test ARIO", env.Name)
			},
		},
		{
			name: "preset overrides",
			args: []string{"--datadir", datadir, "--preset", "full", "--network", "test", "--fake.gateways", "7"},
			want: func(t *testing.T, cfg Config) {
				require := require.New(t)
				p, err := cfg.Preset()
				require.NoError(err)
				require.Equal("full", p.Name)
				require.Equal("test", p.Network)
				require.Equal(7, p.Gateways)
				require.Equal(10, p.Records)
				require.True(p.FakeGenesis)
			},
		},
		{
			name: "logging",
			args: []string{"--datadir", datadir, "--log.format", "json", "--log.verbosity", "5", "--log.color", "--sentry.dsn", "https://key@sentry.example.com/1"},
			want: func(t *testing.T, cfg Config) {
				require := require.New(t)
				require.Equal("json", cfg.Logging.Format)
				require.Equal(5, cfg.Logging.Verbosity)
				require.True(cfg.Logging.Color)
				require.Equal("https://key@sentry.example.com/1", cfg.Logging.SentryDSN)
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := runConfigFromArgs(t, test.args)
			require.NoError(t, err)
			test.want(t, cfg)
		})
	}
}

func TestMakeAllConfigsFile(t *testing.T) {
	datadir := t.TempDir()
	path := writeFile(t, "ario.toml", `
datadir = "`+datadir+`"

[process]
name = "File ARIO"

[network]
preset = "lite"
records = 9

[logging]
format = "json"
`)

	t.Run("file over defaults", func(t *testing.T) {
		require := require.New(t)
		cfg, err := runConfigFromArgs(t, []string{"--config", path})
		require.NoError(err)
		require.Equal(datadir, cfg.DataDir)
		require.Equal("File ARIO", cfg.Process.Name)
		require.Equal(DefaultProcessID, cfg.Process.ID)
		require.Equal("json", cfg.Logging.Format)
		require.Equal(DefaultLogVerbosity, cfg.Logging.Verbosity)
		p, err := cfg.Preset()
		require.NoError(err)
		require.Equal("lite", p.Name)
		require.Equal(9, p.Records)
	})

	t.Run("flags over file", func(t *testing.T) {
		require := require.New(t)
		cfg, err := runConfigFromArgs(t, []string{"--config", path, "--preset", "full", "--log.format", "text"})
		require.NoError(err)
		require.Equal("full", cfg.Network.Preset)
		require.Equal("text", cfg.Logging.Format)
		require.Equal(9, cfg.Network.Records)
	})

	for name, content := range map[string]string{
		"unknown key":   "[network]\nchain = \"main\"\n",
		"bad syntax":    "datadir = \n",
		"wrong type":    "[logging]\nverbosity = \"loud\"\n",
		"bad preset":    "[network]\npreset = \"moon\"\n",
		"bad overrides": "[network]\nrules = \"moon\"\n",
	} {
		content := content
		t.Run(name, func(t *testing.T) {
			_, err := runConfigFromArgs(t, []string{"--datadir", datadir, "--config", writeFile(t, "bad.toml", content)})
			require.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := runConfigFromArgs(t, []string{"--config", filepath.Join(datadir, "absent.toml")})
		require.Error(t, err)
	})
}

func TestSetupLogging(t *testing.T) {
	require := require.New(t)

	logger, err := setupLogging(LoggingConfig{Verbosity: 4, Format: "json"}, os.Stderr)
	require.NoError(err)
	require.Equal("debug", logger.GetLevel().String())

	for _, cfg := range []LoggingConfig{
		{Verbosity: -1},
		{Verbosity: 6},
		{Verbosity: 3, Format: "xml"},
		{Verbosity: 3, SentryDSN: "not a dsn"},
	} {
		_, err := setupLogging(cfg, os.Stderr)
		require.Error(err, "%+v", cfg)
	}
}
