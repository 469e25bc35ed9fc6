package loans

import (
	"sort"

	"moneymarket/core/types"
)

// State is the keyed repository the engine operates against: one Market and
// one MarketStats record per asset, one Deposits record per (asset, account)
// and one BorrowSnapshot per (asset, account) with nonzero debt. Getters
// return nil for absent records. Implementations must provide journal
// snapshots so a failing call can discard every mutation it made.
type State interface {
	GetMarket(asset types.AssetID) (*Market, error)
	PutMarket(asset types.AssetID, market *Market) error
	MarketAssets() ([]types.AssetID, error)

	GetStats(asset types.AssetID) (*MarketStats, error)
	PutStats(asset types.AssetID, stats *MarketStats) error

	GetDeposit(asset types.AssetID, account types.AccountID) (*Deposits, error)
	PutDeposit(asset types.AssetID, account types.AccountID, deposit *Deposits) error
	DeleteDeposit(asset types.AssetID, account types.AccountID) error

	GetBorrow(asset types.AssetID, account types.AccountID) (*BorrowSnapshot, error)
	PutBorrow(asset types.AssetID, account types.AccountID, snapshot *BorrowSnapshot) error
	DeleteBorrow(asset types.AssetID, account types.AccountID) error

	Snapshot() int
	RevertToSnapshot(id int)
}

type positionKey struct {
	asset   types.AssetID
	account types.AccountID
}

// MemState is an in-memory State used by tests and single-process wiring.
// Records are cloned on every read and write so journal entries stay stable.
type MemState struct {
	markets  map[types.AssetID]*Market
	stats    map[types.AssetID]*MarketStats
	deposits map[positionKey]*Deposits
	borrows  map[positionKey]*BorrowSnapshot
	journal  []func()
}

// NewMemState constructs an empty in-memory state.
func NewMemState() *MemState {
	return &MemState{
		markets:  make(map[types.AssetID]*Market),
		stats:    make(map[types.AssetID]*MarketStats),
		deposits: make(map[positionKey]*Deposits),
		borrows:  make(map[positionKey]*BorrowSnapshot),
	}
}

func (s *MemState) GetMarket(asset types.AssetID) (*Market, error) {
	return s.markets[asset].Clone(), nil
}

func (s *MemState) PutMarket(asset types.AssetID, market *Market) error {
	prev, existed := s.markets[asset]
	s.journal = append(s.journal, func() {
		if existed {
			s.markets[asset] = prev
		} else {
			delete(s.markets, asset)
		}
	})
	s.markets[asset] = market.Clone()
	return nil
}

func (s *MemState) MarketAssets() ([]types.AssetID, error) {
	assets := make([]types.AssetID, 0, len(s.markets))
	for asset := range s.markets {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i] < assets[j] })
	return assets, nil
}

func (s *MemState) GetStats(asset types.AssetID) (*MarketStats, error) {
	return s.stats[asset].Clone(), nil
}

func (s *MemState) PutStats(asset types.AssetID, stats *MarketStats) error {
	prev, existed := s.stats[asset]
	s.journal = append(s.journal, func() {
		if existed {
			s.stats[asset] = prev
		} else {
			delete(s.stats, asset)
		}
	})
	s.stats[asset] = stats.Clone()
	return nil
}

func (s *MemState) GetDeposit(asset types.AssetID, account types.AccountID) (*Deposits, error) {
	return s.deposits[positionKey{asset, account}].Clone(), nil
}

func (s *MemState) PutDeposit(asset types.AssetID, account types.AccountID, deposit *Deposits) error {
	key := positionKey{asset, account}
	prev, existed := s.deposits[key]
	s.journal = append(s.journal, func() {
		if existed {
			s.deposits[key] = prev
		} else {
			delete(s.deposits, key)
		}
	})
	s.deposits[key] = deposit.Clone()
	return nil
}

func (s *MemState) DeleteDeposit(asset types.AssetID, account types.AccountID) error {
	key := positionKey{asset, account}
	prev, existed := s.deposits[key]
	if !existed {
		return nil
	}
	s.journal = append(s.journal, func() { s.deposits[key] = prev })
	delete(s.deposits, key)
	return nil
}

func (s *MemState) GetBorrow(asset types.AssetID, account types.AccountID) (*BorrowSnapshot, error) {
	return s.borrows[positionKey{asset, account}].Clone(), nil
}

func (s *MemState) PutBorrow(asset types.AssetID, account types.AccountID, snapshot *BorrowSnapshot) error {
	key := positionKey{asset, account}
	prev, existed := s.borrows[key]
	s.journal = append(s.journal, func() {
		if existed {
			s.borrows[key] = prev
		} else {
			delete(s.borrows, key)
		}
	})
	s.borrows[key] = snapshot.Clone()
	return nil
}

func (s *MemState) DeleteBorrow(asset types.AssetID, account types.AccountID) error {
	key := positionKey{asset, account}
	prev, existed := s.borrows[key]
	if !existed {
		return nil
	}
	s.journal = append(s.journal, func() { s.borrows[key] = prev })
	delete(s.borrows, key)
	return nil
}

// Snapshot returns a marker for the current journal position.
func (s *MemState) Snapshot() int {
	return len(s.journal)
}

// RevertToSnapshot undoes every mutation recorded after the marker.
func (s *MemState) RevertToSnapshot(id int) {
	if id < 0 || id > len(s.journal) {
		return
	}
	for i := len(s.journal) - 1; i >= id; i-- {
		s.journal[i]()
	}
	s.journal = s.journal[:id]
}
