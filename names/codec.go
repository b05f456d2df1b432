package names

import (
	"sort"

	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/cser"
)

// Copy returns an independent registry.
func (r *Registry) Copy() *Registry {
	cp := New()
	for n, rec := range r.records {
		rr := *rec
		cp.records[n] = &rr
	}
	for o, pn := range r.primary {
		p := *pn
		cp.primary[o] = &p
	}
	for n, o := range r.byName {
		cp.byName[n] = o
	}
	return cp
}

func marshalType(t Type) uint8 {
	if t == Permabuy {
		return 1
	}
	return 0
}

func unmarshalType(b uint8) Type {
	switch b {
	case 0:
		return Lease
	case 1:
		return Permabuy
	}
	panic(cser.ErrNonCanonicalEncoding)
}

// MarshalCSER writes records in name order, then bindings in owner order.
func (r *Registry) MarshalCSER(w *cser.Writer) {
	records := r.Records()
	w.U56(uint64(len(records)))
	for _, rec := range records {
		w.String(rec.Name)
		w.String(rec.Owner)
		w.String(rec.ProcessID)
		w.U8(marshalType(rec.Type))
		w.U64(rec.PurchasePrice)
		w.U32(rec.UndernameLimit)
		w.U64(uint64(rec.StartTimestamp))
		w.U64(uint64(rec.EndTimestamp))
	}

	owners := make([]string, 0, len(r.primary))
	for o := range r.primary {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	w.U56(uint64(len(owners)))
	for _, o := range owners {
		pn := r.primary[o]
		w.String(pn.Owner)
		w.String(pn.Name)
		w.U64(uint64(pn.StartTimestamp))
	}
}

func (r *Registry) UnmarshalCSER(rd *cser.Reader) error {
	*r = *New()
	n := rd.Count()
	prev := ""
	for i := 0; i < n; i++ {
		rec := Record{
			Name:           rd.String(),
			Owner:          rd.String(),
			ProcessID:      rd.String(),
			Type:           unmarshalType(rd.U8()),
			PurchasePrice:  rd.U64(),
			UndernameLimit: rd.U32(),
			StartTimestamp: inter.Timestamp(rd.U64()),
			EndTimestamp:   inter.Timestamp(rd.U64()),
		}
		if i > 0 && rec.Name <= prev {
			return cser.ErrNonCanonicalEncoding
		}
		prev = rec.Name
		r.records[rec.Name] = &rec
	}

	n = rd.Count()
	prev = ""
	for i := 0; i < n; i++ {
		pn := PrimaryName{
			Owner:          rd.String(),
			Name:           rd.String(),
			StartTimestamp: inter.Timestamp(rd.U64()),
		}
		if i > 0 && pn.Owner <= prev {
			return cser.ErrNonCanonicalEncoding
		}
		prev = pn.Owner
		if err := r.AddPrimaryName(pn); err != nil {
			return cser.ErrNonCanonicalEncoding
		}
	}
	return nil
}
