package inter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testEthAddress     = "0xFCAd0B19bB29D4674531d6f115237E16AfCE377c"
	testArweaveAddress = "dQzhAKa0qKPtMR8NuJAL2yB_qsT0QfAuc2CwtiUyhts"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		unsafe bool
		want   string
		err    error
	}{
		{"arweave", testArweaveAddress, false, testArweaveAddress, nil},
		{"eth checksummed", testEthAddress, false, testEthAddress, nil},
		{"eth lower case", strings.ToLower(testEthAddress), false, testEthAddress, nil},
		{"eth padded", "  " + testEthAddress + " ", false, testEthAddress, nil},
		{"eth without prefix", strings.TrimPrefix(testEthAddress, "0x"), false, "", ErrInvalidAddress},
		{"short arweave", testArweaveAddress[1:], false, "", ErrInvalidAddress},
		{"bad alphabet", strings.Replace(testArweaveAddress, "_", "+", 1), false, "", ErrInvalidAddress},
		{"empty", "", true, "", ErrEmptyAddress},
		{"unsafe", "FOOBAR", true, "FOOBAR", nil},
		{"unsafe rejected", "FOOBAR", false, "", ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.in, tt.unsafe)
			require.Equal(t, tt.err, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFormatAddress(t *testing.T) {
	require := require.New(t)

	require.Equal(testEthAddress, FormatAddress(strings.ToLower(testEthAddress)))
	require.Equal("FOOBAR", FormatAddress("FOOBAR"))
	require.True(IsValidAddress(testArweaveAddress))
	require.False(IsArweaveAddress(testEthAddress))
}
