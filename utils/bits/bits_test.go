package bits

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type word struct {
	bits int
	v    uint
}

func byteLen(bits int) int {
	return (bits + 7) / 8
}

func roundTrip(t *testing.T, words []word) {
	require := require.New(t)

	arr := Array{make([]byte, 0, 16)}
	w := NewWriter(&arr)
	total := 0
	for _, wd := range words {
		w.Write(wd.bits, wd.v)
		total += wd.bits
	}
	require.Equal(byteLen(total), len(arr.Bytes))

	r := NewReader(&arr)
	for _, wd := range words {
		require.Equal(wd.v, r.Read(wd.bits))
	}
	require.Panics(func() { r.Read(r.NonReadBits() + 1) })
	require.Equal(uint(0), r.Read(r.NonReadBits()))
	require.Equal(0, r.NonReadBytes())
}

func TestFixedPatterns(t *testing.T) {
	for name, words := range map[string][]word{
		"empty":  {},
		"one":    {{1, 1}},
		"zero":   {{1, 0}},
		"cross":  {{9, 0b010101010}},
		"long":   {{17, 0b01010101010101010}},
		"widths": {{3, 5}, {2, 0}, {7, 99}, {1, 1}, {8, 255}},
	} {
		t.Run(name, func(t *testing.T) {
			roundTrip(t, words)
		})
	}
}

func TestRandomWords(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 40; i++ {
		n := r.Intn(60)
		words := make([]word, n)
		for j := range words {
			words[j].bits = 1 + r.Intn(16)
			words[j].v = uint(r.Intn(1 << words[j].bits))
		}
		t.Run(fmt.Sprintf("case%d", i), func(t *testing.T) {
			roundTrip(t, words)
		})
	}
}

func TestView(t *testing.T) {
	require := require.New(t)

	arr := Array{}
	w := NewWriter(&arr)
	w.Write(8, 0xaa)
	w.Write(4, 0x5)

	r := NewReader(&arr)
	require.Equal(uint(0xaa), r.View(8))
	require.Equal(16, r.NonReadBits())
	require.Equal(uint(0xaa), r.Read(8))
	require.Equal(uint(0x5), r.View(4))
}
