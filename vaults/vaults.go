// Package vaults manages time-locked balance escrows. Funds locked in a
// vault leave the owner's spendable balance and return only once the lock
// has elapsed.
package vaults

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/cser"
)

var (
	ErrInvalidQuantity   = errors.New("vault quantity must be positive")
	ErrInvalidLockLength = errors.New("invalid lock length")
	ErrVaultExists       = errors.New("vault already exists")
	ErrVaultNotFound     = errors.New("vault not found")
	ErrVaultLocked       = errors.New("vault is still locked")
	ErrVaultExpired      = errors.New("vault has expired")
)

// Balances is the part of the ledger vaults move funds through.
type Balances interface {
	Balance(addr string) uint64
	Debit(addr string, qty uint64) error
	Credit(addr string, qty uint64) error
}

// Vault is a locked balance.
type Vault struct {
	ID             string          `json:"vaultId"`
	Owner          string          `json:"address"`
	Balance        uint64          `json:"balance"`
	StartTimestamp inter.Timestamp `json:"startTimestamp"`
	EndTimestamp   inter.Timestamp `json:"endTimestamp"`
}

// Registry holds every vault, keyed by owner then vault id.
type Registry struct {
	vaults map[string]map[string]*Vault
}

func New() *Registry {
	return &Registry{vaults: make(map[string]map[string]*Vault)}
}

func checkLock(rules ario.VaultsRules, lock inter.Timestamp) error {
	if lock < rules.MinLockLength || lock > rules.MaxLockLength {
		return fmt.Errorf("%w: %d must be between %d and %d", ErrInvalidLockLength, lock, rules.MinLockLength, rules.MaxLockLength)
	}
	return nil
}

func (r *Registry) insert(v *Vault) error {
	byID := r.vaults[v.Owner]
	if byID == nil {
		byID = make(map[string]*Vault)
		r.vaults[v.Owner] = byID
	}
	if _, ok := byID[v.ID]; ok {
		return ErrVaultExists
	}
	byID[v.ID] = v
	return nil
}

func (r *Registry) remove(owner, id string) {
	delete(r.vaults[owner], id)
	if len(r.vaults[owner]) == 0 {
		delete(r.vaults, owner)
	}
}

// Add inserts a vault as is. Used for genesis allocations.
func (r *Registry) Add(v Vault) error {
	if v.Balance == 0 {
		return ErrInvalidQuantity
	}
	cp := v
	return r.insert(&cp)
}

// Create locks qty of owner's balance for lock milliseconds under the given id.
func (r *Registry) Create(l Balances, rules ario.VaultsRules, owner, id string, qty uint64, lock, now inter.Timestamp) (Vault, error) {
	return r.VaultedTransfer(l, rules, owner, owner, id, qty, lock, now)
}

// VaultedTransfer debits from and locks the amount in a vault owned by to.
func (r *Registry) VaultedTransfer(l Balances, rules ario.VaultsRules, from, to, id string, qty uint64, lock, now inter.Timestamp) (Vault, error) {
	if qty == 0 {
		return Vault{}, ErrInvalidQuantity
	}
	if err := checkLock(rules, lock); err != nil {
		return Vault{}, err
	}
	if _, ok := r.Get(to, id); ok {
		return Vault{}, ErrVaultExists
	}
	if err := l.Debit(from, qty); err != nil {
		return Vault{}, err
	}
	v := &Vault{
		ID:             id,
		Owner:          to,
		Balance:        qty,
		StartTimestamp: now,
		EndTimestamp:   now + lock,
	}
	if err := r.insert(v); err != nil {
		return Vault{}, err
	}
	return *v, nil
}

func (r *Registry) live(owner, id string, now inter.Timestamp) (*Vault, error) {
	v, ok := r.vaults[owner][id]
	if !ok {
		return nil, ErrVaultNotFound
	}
	if now >= v.EndTimestamp {
		return nil, ErrVaultExpired
	}
	return v, nil
}

// Extend pushes the end of an unexpired vault further out.
func (r *Registry) Extend(rules ario.VaultsRules, owner, id string, extension, now inter.Timestamp) (Vault, error) {
	if extension == 0 {
		return Vault{}, ErrInvalidLockLength
	}
	v, err := r.live(owner, id, now)
	if err != nil {
		return Vault{}, err
	}
	if length := v.EndTimestamp - v.StartTimestamp; length > rules.MaxLockLength || extension > rules.MaxLockLength-length {
		return Vault{}, fmt.Errorf("%w: total lock length exceeds %d", ErrInvalidLockLength, rules.MaxLockLength)
	}
	v.EndTimestamp += extension
	return *v, nil
}

// Increase adds qty of the owner's balance to an unexpired vault.
func (r *Registry) Increase(l Balances, owner, id string, qty uint64, now inter.Timestamp) (Vault, error) {
	if qty == 0 {
		return Vault{}, ErrInvalidQuantity
	}
	v, err := r.live(owner, id, now)
	if err != nil {
		return Vault{}, err
	}
	if err := l.Debit(owner, qty); err != nil {
		return Vault{}, err
	}
	v.Balance += qty
	return *v, nil
}

// Release returns an elapsed vault to its owner. Releasing a vault that does
// not exist is a no-op and reports released == false.
func (r *Registry) Release(l Balances, owner, id string, now inter.Timestamp) (v Vault, released bool, err error) {
	stored, ok := r.vaults[owner][id]
	if !ok {
		return Vault{}, false, nil
	}
	if now < stored.EndTimestamp {
		return *stored, false, ErrVaultLocked
	}
	if err := l.Credit(owner, stored.Balance); err != nil {
		return Vault{}, false, err
	}
	r.remove(owner, id)
	return *stored, true, nil
}

// PruneExpired releases every elapsed vault and returns them in (owner, id) order.
func (r *Registry) PruneExpired(l Balances, now inter.Timestamp) ([]Vault, error) {
	var released []Vault
	for _, v := range r.All() {
		if now < v.EndTimestamp {
			continue
		}
		if _, _, err := r.Release(l, v.Owner, v.ID, now); err != nil {
			return released, err
		}
		released = append(released, v)
	}
	return released, nil
}

// Get returns a vault by owner and id.
func (r *Registry) Get(owner, id string) (Vault, bool) {
	v, ok := r.vaults[owner][id]
	if !ok {
		return Vault{}, false
	}
	return *v, true
}

// Owned returns the vaults of one owner, sorted by id.
func (r *Registry) Owned(owner string) []Vault {
	ids := make([]string, 0, len(r.vaults[owner]))
	for id := range r.vaults[owner] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Vault, len(ids))
	for i, id := range ids {
		out[i] = *r.vaults[owner][id]
	}
	return out
}

// All returns every vault sorted by owner, then id.
func (r *Registry) All() []Vault {
	owners := make([]string, 0, len(r.vaults))
	for o := range r.vaults {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	var out []Vault
	for _, o := range owners {
		out = append(out, r.Owned(o)...)
	}
	return out
}

// Key is the pagination key of a vault.
func (v Vault) Key() string {
	return v.Owner + "_" + v.ID
}

// Sum returns the total locked balance.
func (r *Registry) Sum() uint64 {
	var sum uint64
	for _, byID := range r.vaults {
		for _, v := range byID {
			sum += v.Balance
		}
	}
	return sum
}

func (r *Registry) Len() int {
	n := 0
	for _, byID := range r.vaults {
		n += len(byID)
	}
	return n
}

// Copy returns an independent registry.
func (r *Registry) Copy() *Registry {
	cp := New()
	for o, byID := range r.vaults {
		m := make(map[string]*Vault, len(byID))
		for id, v := range byID {
			vv := *v
			m[id] = &vv
		}
		cp.vaults[o] = m
	}
	return cp
}

func (r *Registry) MarshalCSER(w *cser.Writer) {
	all := r.All()
	w.U56(uint64(len(all)))
	for _, v := range all {
		w.String(v.Owner)
		w.String(v.ID)
		w.U64(v.Balance)
		w.U64(uint64(v.StartTimestamp))
		w.U64(uint64(v.EndTimestamp))
	}
}

func (r *Registry) UnmarshalCSER(rd *cser.Reader) error {
	n := rd.Count()
	r.vaults = make(map[string]map[string]*Vault)
	for i := 0; i < n; i++ {
		v := &Vault{
			Owner:          rd.String(),
			ID:             rd.String(),
			Balance:        rd.U64(),
			StartTimestamp: inter.Timestamp(rd.U64()),
			EndTimestamp:   inter.Timestamp(rd.U64()),
		}
		if err := r.insert(v); err != nil {
			return cser.ErrNonCanonicalEncoding
		}
	}
	return nil
}
