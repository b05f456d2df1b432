// Package ledger keeps the token balances of the process, the protocol
// reserve included. Zero balances are not stored.
package ledger

import (
	"errors"
	"sort"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/rony4d/go-ario/utils/cser"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrSelfTransfer        = errors.New("cannot transfer to self")
	ErrOverflow            = errors.New("balance overflow")
)

// Account is one address and its spendable balance.
type Account struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

// Ledger maps addresses to spendable balances.
type Ledger struct {
	balances map[string]uint64
}

func New() *Ledger {
	return &Ledger{balances: make(map[string]uint64)}
}

// Balance returns the spendable balance of addr.
func (l *Ledger) Balance(addr string) uint64 {
	return l.balances[addr]
}

// Credit adds qty to addr.
func (l *Ledger) Credit(addr string, qty uint64) error {
	if qty == 0 {
		return nil
	}
	sum, overflow := math.SafeAdd(l.balances[addr], qty)
	if overflow {
		return ErrOverflow
	}
	l.balances[addr] = sum
	return nil
}

// Debit removes qty from addr.
func (l *Ledger) Debit(addr string, qty uint64) error {
	if qty == 0 {
		return nil
	}
	rest, underflow := math.SafeSub(l.balances[addr], qty)
	if underflow {
		return ErrInsufficientBalance
	}
	if rest == 0 {
		delete(l.balances, addr)
	} else {
		l.balances[addr] = rest
	}
	return nil
}

// Transfer moves qty from one address to another.
func (l *Ledger) Transfer(from, to string, qty uint64) error {
	if qty == 0 {
		return ErrInvalidQuantity
	}
	if from == to {
		return ErrSelfTransfer
	}
	if err := l.Debit(from, qty); err != nil {
		return err
	}
	return l.Credit(to, qty)
}

// Addresses returns all funded addresses in ascending order.
func (l *Ledger) Addresses() []string {
	addrs := make([]string, 0, len(l.balances))
	for a := range l.balances {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)
	return addrs
}

// Accounts returns a sorted snapshot of every funded account.
func (l *Ledger) Accounts() []Account {
	addrs := l.Addresses()
	out := make([]Account, len(addrs))
	for i, a := range addrs {
		out[i] = Account{Address: a, Balance: l.balances[a]}
	}
	return out
}

// Balances returns a copy of the balance map.
func (l *Ledger) Balances() map[string]uint64 {
	out := make(map[string]uint64, len(l.balances))
	for a, b := range l.balances {
		out[a] = b
	}
	return out
}

// Sum returns the total of all balances.
func (l *Ledger) Sum() uint64 {
	var sum uint64
	for _, b := range l.balances {
		sum += b
	}
	return sum
}

func (l *Ledger) Len() int {
	return len(l.balances)
}

// Copy returns an independent ledger.
func (l *Ledger) Copy() *Ledger {
	return &Ledger{balances: l.Balances()}
}

// MarshalCSER writes the ledger in address order.
func (l *Ledger) MarshalCSER(w *cser.Writer) {
	addrs := l.Addresses()
	w.U56(uint64(len(addrs)))
	for _, a := range addrs {
		w.String(a)
		w.U64(l.balances[a])
	}
}

func (l *Ledger) UnmarshalCSER(r *cser.Reader) error {
	n := r.Count()
	l.balances = make(map[string]uint64, n)
	prev := ""
	for i := 0; i < n; i++ {
		a := r.String()
		b := r.U64()
		if (i > 0 && a <= prev) || b == 0 {
			return cser.ErrNonCanonicalEncoding
		}
		l.balances[a] = b
		prev = a
	}
	return nil
}
