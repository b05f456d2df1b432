package state

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/hash"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/utils/cser"
)

// snapshotVersion prefixes every encoded state.
const snapshotVersion uint8 = 1

var ErrUnknownVersion = errors.New("unknown snapshot version")

// MarshalBinary encodes the state canonically: equal states give equal bytes.
func (s *State) MarshalBinary() ([]byte, error) {
	return cser.MarshalBinaryAdapter(func(w *cser.Writer) error {
		w.U8(snapshotVersion)
		w.String(s.Rules.String())
		w.String(s.ProcessID)
		s.Ledger.MarshalCSER(w)
		s.Vaults.MarshalCSER(w)
		s.Names.MarshalCSER(w)
		s.Demand.MarshalCSER(w)
		s.Gateways.MarshalCSER(w)
		s.Epochs.MarshalCSER(w)
		return nil
	})
}

// Decode restores a state produced by MarshalBinary.
func Decode(raw []byte) (*State, error) {
	s := New(ario.Rules{}, "")
	err := cser.UnmarshalBinaryAdapter(raw, func(r *cser.Reader) error {
		if v := r.U8(); v != snapshotVersion {
			return fmt.Errorf("%w: %d", ErrUnknownVersion, v)
		}
		rules, err := ario.ParseRules(r.String())
		if err != nil {
			return fmt.Errorf("rules: %w", err)
		}
		s.Rules = rules
		s.ProcessID = r.String()
		for _, c := range []interface {
			UnmarshalCSER(*cser.Reader) error
		}{s.Ledger, s.Vaults, s.Names, s.Demand, s.Gateways, s.Epochs} {
			if err := c.UnmarshalCSER(r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Demand.SetRules(s.Rules.Demand)
	return s, nil
}

// Hash fingerprints the state as the hash of its canonical encoding.
func (s *State) Hash() hash.Hash {
	b, err := s.MarshalBinary()
	if err != nil {
		panic("can't hash state: " + err.Error())
	}
	return hash.Of(b)
}
