package launcher

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/ario/genesis"
	"github.com/rony4d/go-ario/inter"
)

const recipient = "dQzhAKa0qKPtMR8NuJAL2yB_qsT0QfAuc2CwtiUyhts"

// run executes the launcher against datadir and returns what it printed.
func run(t *testing.T, datadir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	base := []string{"ario", "--datadir", datadir, "--preset", "lite", "--log.verbosity", "0"}
	err := app.Run(append(base, args...))
	return out.String(), err
}

func writeMessages(t *testing.T, msgs ...inter.Message) string {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, m := range msgs {
		require.NoError(t, enc.Encode(m))
	}
	return writeFile(t, "messages.jsonl", buf.String())
}

func lines(t *testing.T, out string) []string {
	t.Helper()
	var res []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		res = append(res, sc.Text())
	}
	require.NoError(t, sc.Err())
	return res
}

func testMessage(id, action string, tags ...inter.Tag) inter.Message {
	return inter.Message{
		ID:          id,
		From:        DefaultOwner,
		Owner:       DefaultOwner,
		Timestamp:   genesis.FakeGenesisTime + inter.Hour,
		BlockHeight: 1,
		Tags:        append(inter.Tags{{Name: "Action", Value: action}}, tags...),
	}
}

func dump(t *testing.T, datadir string, args ...string) stateDump {
	t.Helper()
	out, err := run(t, datadir, append([]string{"dumpstate"}, args...)...)
	require.NoError(t, err)
	var d stateDump
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	return d
}

func TestReplay(t *testing.T) {
	require := require.New(t)
	datadir := t.TempDir()
	metricsFile := filepath.Join(datadir, "ario.prom")

	path := writeMessages(t,
		testMessage("message-1", "Transfer",
			inter.Tag{Name: "Recipient", Value: recipient},
			inter.Tag{Name: "Quantity", Value: "5000000"}),
		testMessage("message-2", "Info"),
		testMessage("message-3", "Nonsense"),
	)
	out, err := run(t, datadir, "--metrics.file", metricsFile, "replay", "--messages", path)
	require.NoError(err)

	replayedLines := lines(t, out)
	require.Len(replayedLines, 3)
	var first replayed
	require.NoError(json.Unmarshal([]byte(replayedLines[0]), &first))
	require.Equal(uint64(1), first.Seq)
	require.Equal("message-1", first.ID)
	require.Len(first.Messages, 2)
	require.Equal("Credit-Notice", first.Messages[1].Tags.Value("Action"))

	prom, err := os.ReadFile(metricsFile)
	require.NoError(err)
	require.Contains(string(prom), "ario_messages_total")

	d := dump(t, datadir)
	require.Equal(uint64(3), d.Seq)
	require.Equal("dev", d.Network)
	require.Equal(ario.DefaultTotalSupply, d.Supply.Total)
	require.Equal(3, d.Gateways)
	require.Equal(4, d.Records)

	genesisDump := dump(t, datadir, "--seq", "0")
	require.Equal(uint64(0), genesisDump.Seq)
	require.NotEqual(d.Hash, genesisDump.Hash)

	out, err = run(t, datadir, "history", "--seq", "1")
	require.NoError(err)
	require.Len(lines(t, out), 2)

	// resuming appends after the head
	out, err = run(t, datadir, "replay", "--messages", writeMessages(t, testMessage("message-4", "Info")))
	require.NoError(err)
	require.Contains(out, `"seq":4`)

	_, err = run(t, datadir, "rewind", "--seq", "1")
	require.NoError(err)
	require.Equal(uint64(1), dump(t, datadir).Seq)

	_, err = run(t, datadir, "rewind", "--seq", "9")
	require.Error(err)
	_, err = run(t, datadir, "rewind")
	require.Error(err)
}

func TestReplayReproducesHash(t *testing.T) {
	msgs := []inter.Message{
		testMessage("message-1", "Transfer",
			inter.Tag{Name: "Recipient", Value: recipient},
			inter.Tag{Name: "Quantity", Value: "1"}),
		testMessage("message-2", "Tick"),
	}
	path := writeMessages(t, msgs...)

	var hashes []string
	for i := 0; i < 2; i++ {
		datadir := t.TempDir()
		_, err := run(t, datadir, "replay", "--messages", path)
		require.NoError(t, err)
		hashes = append(hashes, dump(t, datadir).Hash)
	}
	require.Equal(t, hashes[0], hashes[1])
}

func TestReplayErrors(t *testing.T) {
	datadir := t.TempDir()

	_, err := run(t, datadir, "replay")
	require.ErrorIs(t, err, errNoMessages)

	_, err = run(t, datadir, "replay", "--messages", filepath.Join(datadir, "absent.jsonl"))
	require.Error(t, err)

	_, err = run(t, datadir, "replay", "--messages", writeFile(t, "broken.jsonl", "{\"Id\": \n"))
	require.Error(t, err)

	_, err = run(t, t.TempDir(), "dumpstate")
	require.Error(t, err)
}

func TestGenesisCommand(t *testing.T) {
	require := require.New(t)
	datadir := t.TempDir()
	path := filepath.Join(datadir, "genesis.toml")

	_, err := run(t, datadir, "--fake.gateways", "5", "genesis", path)
	require.NoError(err)
	g, err := genesis.LoadFile(path)
	require.NoError(err)
	require.Equal("dev", g.Network)
	require.Len(g.Gateways, 5)
	require.Equal(ario.DefaultTotalSupply, g.Allocated())

	// a testnet preset starts from the written file
	_, err = run(t, datadir, "--preset", "testnet", "--network", "dev", "--genesis", path, "replay", "--messages", writeMessages(t, testMessage("message-1", "Info")))
	require.NoError(err)
	require.Equal(5, dump(t, datadir).Gateways)
}

func TestDumpConfig(t *testing.T) {
	datadir := t.TempDir()
	out, err := run(t, datadir, "--process.name", "Dumped", "dumpconfig")
	require.NoError(t, err)
	require.Contains(t, out, `name = "Dumped"`)
	require.Contains(t, out, `preset = "lite"`)

	// the dump is itself a valid config file
	cfg, err := runConfigFromArgs(t, []string{"--config", writeFile(t, "dumped.toml", out)})
	require.NoError(t, err)
	require.Equal(t, "Dumped", cfg.Process.Name)
	require.Equal(t, datadir, cfg.DataDir)
}
