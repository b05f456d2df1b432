package epochs

import (
	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/Fantom-foundation/lachesis-base/inter/pos"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rony4d/go-ario/gateways"
)

// Draw domains keep observer and name draws independent.
const (
	observerDraws byte = iota
	nameDraws
)

// PRF is a counter based pseudo random function seeded by the hash chain
// and the epoch index.
type PRF struct {
	seed hash.Hash
}

// NewPRF derives the seed as hash(rlp(hashChain, epoch)).
func NewPRF(hashChain string, epoch idx.Epoch) PRF {
	enc, err := rlp.EncodeToBytes([]interface{}{hashChain, uint64(epoch)})
	if err != nil {
		panic(err)
	}
	return PRF{seed: hash.Of(enc)}
}

// Draw returns the k-th value of a domain.
func (p PRF) Draw(domain byte, k uint64) uint64 {
	h := hash.Of(p.seed.Bytes(), []byte{domain}, bigendian.Uint64ToBytes(k))
	return bigendian.BytesToUint64(h.Bytes()[:8])
}

// selectObservers picks up to limit distinct gateways from eligible,
// weighted by normalized composite weight. When eligible fits within the
// limit all of them are chosen. The result is in selection order.
func selectObservers(p PRF, eligible []gateways.Gateway, limit int) []gateways.Gateway {
	if len(eligible) <= limit {
		return eligible
	}
	builder := pos.NewBuilder()
	for i, g := range eligible {
		w := uint64(g.Weights.NormalizedCompositeWeight)
		if w == 0 {
			w = 1
		}
		builder.Set(idx.ValidatorID(i+1), pos.Weight(w))
	}

	chosen := make([]gateways.Gateway, 0, limit)
	for k := uint64(0); len(chosen) < limit; k++ {
		set := builder.Build()
		target := p.Draw(observerDraws, k) % uint64(set.TotalWeight())
		var acc uint64
		for _, id := range set.SortedIDs() {
			acc += uint64(set.Get(id))
			if acc > target {
				chosen = append(chosen, eligible[id-1])
				delete(builder, id)
				break
			}
		}
	}
	return chosen
}

// selectNames samples up to limit distinct names uniformly from the sorted live names.
func selectNames(p PRF, live []string, limit int) []string {
	pool := append([]string(nil), live...)
	if len(pool) <= limit {
		return pool
	}
	chosen := make([]string, 0, limit)
	for k := uint64(0); len(chosen) < limit; k++ {
		j := p.Draw(nameDraws, k) % uint64(len(pool))
		chosen = append(chosen, pool[j])
		pool = append(pool[:j], pool[j+1:]...)
	}
	return chosen
}
