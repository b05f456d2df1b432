package inter

import (
	"encoding/json"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/stretchr/testify/require"
)

func TestMessageUnmarshalJSON(t *testing.T) {
	require := require.New(t)

	var m Message
	err := json.Unmarshal([]byte(`{
		"Id": "msg-1",
		"From": "FOOBAR",
		"Owner": "FOOBAR",
		"Timestamp": "1740009600000",
		"Block-Height": 999,
		"Hash-Chain": "somearbitraryhashchain",
		"Tags": [
			{"name": "Action", "value": "Transfer"},
			{"name": "Quantity", "value": 1000000},
			{"name": "Cast", "value": true}
		]
	}`), &m)
	require.NoError(err)
	require.Equal(Timestamp(1740009600000), m.Timestamp)
	require.Equal(idx.Block(999), m.BlockHeight)
	require.Equal("Transfer", m.Action())
	require.Equal("1000000", m.Tag("Quantity"))
	require.Equal("true", m.Tag("Cast"))
	require.Equal("", m.Tag("Missing"))

	require.Error(json.Unmarshal([]byte(`{"Timestamp": "soon"}`), &m))
}

func TestEnvIsOwner(t *testing.T) {
	env := Env{ProcessID: "AOS", Owner: "FOOBAR"}
	require.True(t, env.IsOwner(Message{From: "FOOBAR", Owner: "FOOBAR"}))
	require.False(t, env.IsOwner(Message{From: "FOOBAR", Owner: "other"}))
	require.False(t, env.IsOwner(Message{From: "non-owner", Owner: "non-owner"}))
	require.False(t, Env{}.IsOwner(Message{}))
}

func TestReference(t *testing.T) {
	require.Equal(t, Reference("m", 1), Reference("m", 1))
	require.NotEqual(t, Reference("m", 1), Reference("m", 2))
}

func TestTimestamp(t *testing.T) {
	require := require.New(t)

	require.Equal(Timestamp(86_400_000), Day)
	require.Equal(Timestamp(1209600000), 14*Day)
	require.Equal("2025-02-20T00:00:00Z", Timestamp(1740009600000).Time().Format("2006-01-02T15:04:05Z07:00"))
	require.Equal(Timestamp(7), MaxTimestamp(3, 7, 5))
}
