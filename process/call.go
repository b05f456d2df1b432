package process

import (
	"encoding/json"
	"strings"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/state"
)

// call is the context of one handler invocation.
type call struct {
	msg inter.Message
	env inter.Env
	// st is the committed state for reads and a private copy for mutations.
	st *state.State

	notices []inter.Notice
	printed []string
	ticked  []idx.Epoch
}

func (c *call) now() inter.Timestamp {
	return c.msg.Timestamp
}

func (c *call) action() string {
	return c.msg.Action()
}

func (c *call) protocol() string {
	return c.st.ProcessID
}

// forwarded returns the X- tags of the message, carried onto every notice.
func (c *call) forwarded() inter.Tags {
	var out inter.Tags
	for _, t := range c.msg.Tags {
		if strings.HasPrefix(t.Name, "X-") {
			out = append(out, t)
		}
	}
	return out
}

// send queues a notice. Strings are sent as is, anything else as JSON.
func (c *call) send(target, action string, data interface{}, tags ...inter.Tag) error {
	var body string
	switch d := data.(type) {
	case string:
		body = d
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return err
		}
		body = string(b)
	}
	tt := inter.Tags{{Name: "Action", Value: action}}
	tt = append(tt, tags...)
	tt = append(tt, c.forwarded()...)
	tt = append(tt, inter.Tag{Name: "Reference", Value: inter.Reference(c.msg.ID, len(c.notices))})
	c.notices = append(c.notices, inter.Notice{Target: target, Tags: tt, Data: body})
	return nil
}

// reply answers the caller with an <Action>-Notice.
func (c *call) reply(data interface{}, tags ...inter.Tag) error {
	return c.send(c.msg.From, c.action()+"-Notice", data, tags...)
}

func (c *call) print(s string) {
	c.printed = append(c.printed, s)
}

func tag(name, value string) inter.Tag {
	return inter.Tag{Name: name, Value: value}
}
