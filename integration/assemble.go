package integration

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/ario/genesis"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/process"
	"github.com/rony4d/go-ario/store"
)

var (
	ErrNoGenesis       = errors.New("preset needs a genesis file")
	ErrNetworkMismatch = errors.New("genesis network does not match the preset")
)

// MakeGenesis loads the genesis file, or builds the fake genesis of the
// preset when path is empty.
func MakeGenesis(p Preset, rules ario.Rules, owner, path string) (*genesis.Genesis, error) {
	if path == "" {
		if !p.FakeGenesis {
			return nil, fmt.Errorf("%w: %s", ErrNoGenesis, p.Name)
		}
		return genesis.FakeGenesis(rules, owner, p.Gateways, p.Records), nil
	}
	g, err := genesis.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if g.Network != "" && g.Network != rules.Name {
		return nil, fmt.Errorf("%w: %s is for %q, rules are %q", ErrNetworkMismatch, path, g.Network, rules.Name)
	}
	return g, nil
}

// Assemble resumes the process at the head of db. An empty store is
// initialized from g, which may only then be nil when the preset has a
// fake genesis.
func Assemble(db *store.Store, p Preset, g *genesis.Genesis, env inter.Env) (*process.Process, uint64, error) {
	head, memory, err := db.Latest()
	switch {
	case err == nil:
		proc, err := process.Load(memory, env)
		if err != nil {
			return nil, 0, fmt.Errorf("load head %d: %w", head, err)
		}
		log.Info("Resumed process", "head", head, "network", proc.State().Rules.Name)
		return proc, head, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, 0, err
	}

	rules, err := p.Rules()
	if err != nil {
		return nil, 0, err
	}
	if g == nil {
		if g, err = MakeGenesis(p, rules, env.Owner, ""); err != nil {
			return nil, 0, err
		}
	}
	proc, err := process.New(rules, g, env)
	if err != nil {
		return nil, 0, err
	}
	if memory, err = proc.Memory(); err != nil {
		return nil, 0, err
	}
	if err := db.Init(memory); err != nil {
		return nil, 0, err
	}
	log.Info("Initialized process", "network", rules.Name, "preset", p.Name, "hash", proc.State().Hash())
	return proc, 0, nil
}

// Apply handles msg and appends the resulting memory to db.
func Apply(db *store.Store, proc *process.Process, msg inter.Message) (process.Result, uint64, error) {
	res := proc.Apply(msg)
	memory, err := proc.Memory()
	if err != nil {
		return res, 0, err
	}
	res.Memory = memory
	seq, err := db.Append(msg, memory)
	return res, seq, err
}
