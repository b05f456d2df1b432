// Package process is the dispatcher of the ARIO state machine. It takes an
// encoded state, one message and the environment of the hosting process, and
// returns the resulting state together with a log entry and the outbound
// notices.
//
// Every action is listed in a static routing table. A mutating handler runs
// against a copy of the state; the copy is committed only when the handler
// succeeds and the supply invariant still holds, so a rejected message never
// leaves a trace in the state.
package process

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/log"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/ario/genesis"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/state"
)

// Outcome classifies how a message was handled.
type Outcome string

const (
	Handled      Outcome = "ok"
	Rejected     Outcome = "invalid"
	Unauthorized Outcome = "unauthorized"
	Defaulted    Outcome = "default"
	Aborted      Outcome = "invariant"
)

// Report summarizes one handled message for instrumentation.
type Report struct {
	Action  string
	Outcome Outcome
	Notices int
	// Ticked lists the epochs a Tick created or distributed.
	Ticked []idx.Epoch
	Supply state.Supply
}

// Observer receives a report after every message.
type Observer interface {
	Observe(r Report)
}

// Result is the response to one message.
type Result struct {
	Output   string
	Messages []inter.Notice
	Memory   []byte
}

// Process is a decoded state bound to its environment. It is not safe for
// concurrent use.
type Process struct {
	env      inter.Env
	state    *state.State
	log      log.Logger
	observer Observer
}

// New creates a process from a genesis. A nil genesis puts the whole supply
// in the protocol reserve.
func New(rules ario.Rules, g *genesis.Genesis, env inter.Env) (*Process, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if g == nil {
		g = &genesis.Genesis{Network: rules.Name, ProtocolBalance: rules.TotalSupply}
	}
	st := state.New(rules, env.ProcessID)
	if err := g.Apply(st); err != nil {
		return nil, err
	}
	return newProcess(st, env), nil
}

// Load decodes memory produced by Memory.
func Load(memory []byte, env inter.Env) (*Process, error) {
	if len(memory) == 0 {
		return nil, ErrNoMemory
	}
	st, err := state.Decode(memory)
	if err != nil {
		return nil, err
	}
	return newProcess(st, env), nil
}

func newProcess(st *state.State, env inter.Env) *Process {
	return &Process{
		env:   env,
		state: st,
		log:   log.New("module", "process", "process", env.ProcessID),
	}
}

// SetObserver installs the instrumentation hook.
func (p *Process) SetObserver(o Observer) {
	p.observer = o
}

// State exposes the committed state. Callers must not modify it.
func (p *Process) State() *state.State {
	return p.state
}

func (p *Process) Env() inter.Env {
	return p.env
}

// Memory encodes the committed state.
func (p *Process) Memory() ([]byte, error) {
	return p.state.MarshalBinary()
}

// Handle is the transition function: decode memory, apply msg, encode the result.
func Handle(memory []byte, msg inter.Message, env inter.Env) (Result, error) {
	p, err := Load(memory, env)
	if err != nil {
		return Result{}, err
	}
	res := p.Apply(msg)
	if res.Memory, err = p.Memory(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Apply handles one message against the in-memory state.
func (p *Process) Apply(msg inter.Message) Result {
	action := msg.Action()
	entry := map[string]interface{}{
		"Message-Id":   msg.ID,
		"From":         msg.From,
		"Action":       action,
		"Timestamp":    msg.Timestamp,
		"Block-Height": msg.BlockHeight,
	}
	c := &call{msg: msg, env: p.env, st: p.state}
	report := Report{Action: action, Outcome: Handled}

	r, ok := routes[action]
	switch {
	case !ok:
		entry["Default-Handler"] = true
		report.Outcome = Defaulted
		p.log.Debug("Default handler", "action", action, "from", msg.From, "id", msg.ID)
	case r.access == ownerOnly && !p.env.IsOwner(msg):
		entry["Error"] = ErrUnauthorized.Error()
		report.Outcome = Unauthorized
		p.log.Warn("Unauthorized message", "action", action, "from", msg.From, "id", msg.ID)
	default:
		report.Outcome = p.run(c, r, entry)
	}

	report.Notices = len(c.notices)
	report.Ticked = c.ticked
	report.Supply = p.state.Supply()
	if p.observer != nil {
		p.observer.Observe(report)
	}
	return Result{Output: render(entry, c.printed), Messages: c.notices}
}

func (p *Process) run(c *call, r route, entry map[string]interface{}) Outcome {
	action := c.msg.Action()
	if r.mutates {
		c.st = p.state.Copy()
	}
	err := r.handle(c)
	if err == nil && r.mutates {
		err = c.st.CheckInvariants()
	}

	var inv *state.InvariantError
	switch {
	case err == nil:
		if r.mutates {
			p.state = c.st
		}
		p.log.Debug("Handled message", "action", action, "from", c.msg.From, "id", c.msg.ID, "notices", len(c.notices))
		return Handled
	case errors.As(err, &inv):
		c.notices, c.ticked = nil, nil
		entry["Error"] = err.Error()
		p.log.Error("Message aborted", "action", action, "id", c.msg.ID, "err", err)
		return Aborted
	default:
		verr := invalid(action, err)
		c.notices, c.ticked = nil, nil
		entry["Error"] = verr.Error()
		c.st = p.state
		_ = c.send(c.msg.From, "Invalid-"+action+"-Notice", verr.Error(), inter.Tag{Name: "Error", Value: rootCause(verr).Error()})
		p.log.Warn("Message rejected", "action", action, "from", c.msg.From, "id", c.msg.ID, "err", verr)
		return Rejected
	}
}

func render(entry map[string]interface{}, printed []string) string {
	b, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		b = []byte(`{"Error": "unencodable log entry"}`)
	}
	out := string(b)
	if len(printed) > 0 {
		out += "\n" + strings.Join(printed, "\n")
	}
	return out
}
