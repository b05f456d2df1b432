package launcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-ario/ario/genesis"
	"github.com/rony4d/go-ario/flags"
	"github.com/rony4d/go-ario/integration"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/metrics"
	"github.com/rony4d/go-ario/process"
	"github.com/rony4d/go-ario/state"
	"github.com/rony4d/go-ario/store"
)

var errNoMessages = errors.New("--messages is required")

var (
	replayCommand = cli.Command{
		Name:   "replay",
		Usage:  "Apply a JSON lines message log and persist a snapshot per message",
		Flags:  []cli.Flag{flags.MessagesFlag},
		Action: replay,
	}
	dumpStateCommand = cli.Command{
		Name:   "dumpstate",
		Usage:  "Print a summary of the snapshot at the head or at --seq",
		Flags:  []cli.Flag{flags.SeqFlag},
		Action: dumpState,
	}
	historyCommand = cli.Command{
		Name:   "history",
		Usage:  "Print the stored messages after --seq as JSON lines",
		Flags:  []cli.Flag{flags.SeqFlag},
		Action: history,
	}
	rewindCommand = cli.Command{
		Name:   "rewind",
		Usage:  "Drop every store entry after --seq",
		Flags:  []cli.Flag{flags.SeqFlag},
		Action: rewind,
	}
	genesisCommand = cli.Command{
		Name:      "genesis",
		Usage:     "Write the generated genesis of the preset as TOML",
		ArgsUsage: "[file]",
		Action:    writeGenesis,
	}
	dumpConfigCommand = cli.Command{
		Name:   "dumpconfig",
		Usage:  "Print the effective configuration as TOML",
		Action: dumpConfig,
	}
)

// replayed is the output line of one replayed message.
type replayed struct {
	Seq      uint64         `json:"seq"`
	ID       string         `json:"id"`
	Output   string         `json:"output"`
	Messages []inter.Notice `json:"messages"`
}

// stateDump summarizes one snapshot.
type stateDump struct {
	Seq      uint64       `json:"seq"`
	Network  string       `json:"network"`
	Hash     string       `json:"hash"`
	Supply   state.Supply `json:"supply"`
	Accounts int          `json:"accounts"`
	Vaults   int          `json:"vaults"`
	Records  int          `json:"records"`
	Gateways int          `json:"gateways"`
}

// openProcess opens the store of cfg and resumes the process at its head,
// initializing an empty store from the configured genesis.
func openProcess(cfg Config) (*store.Store, *process.Process, uint64, error) {
	preset, err := cfg.Preset()
	if err != nil {
		return nil, nil, 0, err
	}
	db, err := store.Open(cfg.StorePath())
	if err != nil {
		return nil, nil, 0, err
	}
	var g *genesis.Genesis
	if _, err := db.Head(); errors.Is(err, store.ErrNotFound) {
		rules, err := preset.Rules()
		if err == nil {
			g, err = integration.MakeGenesis(preset, rules, cfg.Process.Owner, cfg.Network.Genesis)
		}
		if err != nil {
			db.Close()
			return nil, nil, 0, err
		}
	}
	proc, head, err := integration.Assemble(db, preset, g, cfg.Env())
	if err != nil {
		db.Close()
		return nil, nil, 0, err
	}
	return db, proc, head, nil
}

func replay(ctx *cli.Context) error {
	cfg, logger, err := configOf(ctx)
	if err != nil {
		return err
	}
	path := ctx.String(flags.MessagesFlag.Name)
	if path == "" {
		return errNoMessages
	}
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	db, proc, head, err := openProcess(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var registry *prometheus.Registry
	if cfg.Metrics.File != "" {
		registry = prometheus.NewRegistry()
		collector, err := metrics.New(registry)
		if err != nil {
			return err
		}
		proc.SetObserver(collector)
	}

	dec := json.NewDecoder(r)
	out := json.NewEncoder(ctx.App.Writer)
	count := 0
	for {
		var msg inter.Message
		if err := dec.Decode(&msg); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return fmt.Errorf("message %d: %w", count+1, err)
		}
		res, seq, err := integration.Apply(db, proc, msg)
		if err != nil {
			return fmt.Errorf("message %s: %w", msg.ID, err)
		}
		head = seq
		count++
		if err := out.Encode(replayed{Seq: seq, ID: msg.ID, Output: res.Output, Messages: res.Messages}); err != nil {
			return err
		}
	}

	if registry != nil {
		if err := metrics.WriteFile(cfg.Metrics.File, registry); err != nil {
			return err
		}
	}
	logger.WithFields(logrus.Fields{
		"messages": count,
		"head":     head,
		"hash":     hexutil.Encode(proc.State().Hash().Bytes()),
	}).Info("Replay complete")
	return nil
}

func dumpState(ctx *cli.Context) error {
	cfg, _, err := configOf(ctx)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.StorePath())
	if err != nil {
		return err
	}
	defer db.Close()

	seq, err := db.Head()
	if err != nil {
		return err
	}
	if ctx.IsSet(flags.SeqFlag.Name) {
		seq = ctx.Uint64(flags.SeqFlag.Name)
	}
	memory, err := db.Memory(seq)
	if err != nil {
		return fmt.Errorf("entry %d: %w", seq, err)
	}
	proc, err := process.Load(memory, cfg.Env())
	if err != nil {
		return err
	}
	st := proc.State()
	enc := json.NewEncoder(ctx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(stateDump{
		Seq:      seq,
		Network:  st.Rules.Name,
		Hash:     hexutil.Encode(st.Hash().Bytes()),
		Supply:   st.Supply(),
		Accounts: st.Ledger.Len(),
		Vaults:   st.Vaults.Len(),
		Records:  st.Names.Len(),
		Gateways: st.Gateways.Len(),
	})
}

func history(ctx *cli.Context) error {
	cfg, _, err := configOf(ctx)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.StorePath())
	if err != nil {
		return err
	}
	defer db.Close()

	out := json.NewEncoder(ctx.App.Writer)
	return db.Messages(ctx.Uint64(flags.SeqFlag.Name), func(seq uint64, msg inter.Message) error {
		return out.Encode(struct {
			Seq     uint64        `json:"seq"`
			Message inter.Message `json:"message"`
		}{seq, msg})
	})
}

func rewind(ctx *cli.Context) error {
	cfg, _, err := configOf(ctx)
	if err != nil {
		return err
	}
	if !ctx.IsSet(flags.SeqFlag.Name) {
		return fmt.Errorf("--%s is required", flags.SeqFlag.Name)
	}
	db, err := store.Open(cfg.StorePath())
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Rewind(ctx.Uint64(flags.SeqFlag.Name))
}

func writeGenesis(ctx *cli.Context) error {
	cfg, _, err := configOf(ctx)
	if err != nil {
		return err
	}
	preset, err := cfg.Preset()
	if err != nil {
		return err
	}
	rules, err := preset.Rules()
	if err != nil {
		return err
	}
	g := genesis.FakeGenesis(rules, cfg.Process.Owner, preset.Gateways, preset.Records)

	w := ctx.App.Writer
	if path := ctx.Args().First(); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return g.Write(w)
}

func dumpConfig(ctx *cli.Context) error {
	cfg, _, err := configOf(ctx)
	if err != nil {
		return err
	}
	return toml.NewEncoder(ctx.App.Writer).Encode(cfg)
}
