package assets

import (
	"errors"
	"math/big"

	"moneymarket/core/types"
)

var (
	ErrInvalidAmount       = errors.New("assets: amount must be positive")
	ErrInsufficientBalance = errors.New("assets: insufficient balance")
)

// Ledger is the generic fungible-asset backend consumed by the loans engine.
// Implementations must support snapshot/revert so a failing state transition
// can discard balance movements together with the rest of its mutations.
type Ledger interface {
	Transfer(asset types.AssetID, from, to types.AccountID, amount *big.Int) error
	Mint(asset types.AssetID, to types.AccountID, amount *big.Int) error
	Burn(asset types.AssetID, from types.AccountID, amount *big.Int) error
	BalanceOf(asset types.AssetID, who types.AccountID) *big.Int
	Snapshot() int
	RevertToSnapshot(id int)
}

type balanceKey struct {
	asset   types.AssetID
	account types.AccountID
}

// MemLedger keeps balances in memory behind an undo journal. Calls are
// processed sequentially by the engine, so no locking is required.
type MemLedger struct {
	balances map[balanceKey]*big.Int
	journal  []journalEntry
}

type journalEntry struct {
	key     balanceKey
	prev    *big.Int
	existed bool
}

// NewMemLedger constructs an empty in-memory ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{balances: make(map[balanceKey]*big.Int)}
}

func (l *MemLedger) record(key balanceKey) {
	prev, existed := l.balances[key]
	entry := journalEntry{key: key, existed: existed}
	if existed {
		entry.prev = new(big.Int).Set(prev)
	}
	l.journal = append(l.journal, entry)
}

func (l *MemLedger) set(key balanceKey, value *big.Int) {
	l.record(key)
	if value.Sign() == 0 {
		delete(l.balances, key)
		return
	}
	l.balances[key] = new(big.Int).Set(value)
}

// BalanceOf returns the balance held by the account, zero when absent.
func (l *MemLedger) BalanceOf(asset types.AssetID, who types.AccountID) *big.Int {
	if bal, ok := l.balances[balanceKey{asset: asset, account: who}]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// Transfer moves amount between two accounts.
func (l *MemLedger) Transfer(asset types.AssetID, from, to types.AccountID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	src := l.BalanceOf(asset, from)
	if src.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.set(balanceKey{asset: asset, account: from}, new(big.Int).Sub(src, amount))
	dst := l.BalanceOf(asset, to)
	l.set(balanceKey{asset: asset, account: to}, new(big.Int).Add(dst, amount))
	return nil
}

// Mint credits freshly issued units to the account.
func (l *MemLedger) Mint(asset types.AssetID, to types.AccountID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	bal := l.BalanceOf(asset, to)
	l.set(balanceKey{asset: asset, account: to}, new(big.Int).Add(bal, amount))
	return nil
}

// Burn destroys units held by the account.
func (l *MemLedger) Burn(asset types.AssetID, from types.AccountID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	bal := l.BalanceOf(asset, from)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.set(balanceKey{asset: asset, account: from}, new(big.Int).Sub(bal, amount))
	return nil
}

// Snapshot returns a marker for the current journal position.
func (l *MemLedger) Snapshot() int {
	return len(l.journal)
}

// RevertToSnapshot undoes every mutation recorded after the marker.
func (l *MemLedger) RevertToSnapshot(id int) {
	if id < 0 || id > len(l.journal) {
		return
	}
	for i := len(l.journal) - 1; i >= id; i-- {
		entry := l.journal[i]
		if entry.existed {
			l.balances[entry.key] = entry.prev
		} else {
			delete(l.balances, entry.key)
		}
	}
	l.journal = l.journal[:id]
}
