package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NetworkFlags select the rules and the genesis the process starts from.
func NetworkFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "preset",
			Usage: "Network preset (lite|full|mainnet|testnet|default)",
			Value: "default",
		},
		cli.StringFlag{
			Name:  "network",
			Usage: "Override the rules of the preset (main|test|dev)",
		},
		cli.StringFlag{
			Name:  "genesis",
			Usage: "TOML genesis file, required by presets without a fake genesis",
		},
		cli.IntFlag{
			Name:  "fake.gateways",
			Usage: "Number of gateways in a generated genesis",
		},
		cli.IntFlag{
			Name:  "fake.records",
			Usage: "Number of names in a generated genesis",
		},
	}
}
