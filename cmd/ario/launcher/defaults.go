package launcher

import (
	"github.com/rony4d/go-ario/ario/genesis"
)

// Baseline values applied before the config file and the flags.
const (
	DefaultDataDir     = "~/.ario"
	DefaultPreset      = "default"
	DefaultProcessID   = "ario-process"
	DefaultProcessName = "ARIO"

	DefaultLogFormat    = "text"
	DefaultLogVerbosity = 3
)

// DefaultOwner owns the process unless configured otherwise. It is also the
// holder of the unallocated remainder of a generated genesis.
var DefaultOwner = genesis.FakeAddress("owner")

// snapshotDir is the store directory under the datadir.
const snapshotDir = "snapshots"

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		DataDir: resolvePath(DefaultDataDir),
		Process: ProcessConfig{
			ID:    DefaultProcessID,
			Owner: DefaultOwner,
			Name:  DefaultProcessName,
		},
		Network: NetworkConfig{
			Preset: DefaultPreset,
		},
		Logging: LoggingConfig{
			Verbosity: DefaultLogVerbosity,
			Format:    DefaultLogFormat,
		},
	}
}
