package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// ProcessFlags describe the environment the messages are handled in.
func ProcessFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "process.id",
			Usage: "Process id, also the ledger address of the protocol reserve",
		},
		cli.StringFlag{
			Name:  "process.owner",
			Usage: "Owner address allowed to use owner-only actions",
		},
		cli.StringFlag{
			Name:  "process.name",
			Usage: "Token name reported by Info",
		},
	}
}

// MessagesFlag points at a JSON lines file of messages, or - for stdin.
var MessagesFlag = cli.StringFlag{
	Name:  "messages",
	Usage: "JSON lines file of messages to replay (- reads stdin)",
}

// SeqFlag selects a store entry.
var SeqFlag = cli.Uint64Flag{
	Name:  "seq",
	Usage: "Store entry sequence number",
}
