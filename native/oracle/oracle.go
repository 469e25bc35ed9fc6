package oracle

import (
	"math/big"
	"sync"
	"time"

	"moneymarket/core/types"
)

// Quote captures a price for a single asset along with the timestamp reported
// by the upstream feed. Prices are expressed in ray precision (1e18) per one
// underlying unit.
type Quote struct {
	Price     *big.Int
	Timestamp time.Time
}

// Clone returns a deep copy of the quote to prevent accidental mutations.
func (q Quote) Clone() Quote {
	clone := Quote{Timestamp: q.Timestamp}
	if q.Price != nil {
		clone.Price = new(big.Int).Set(q.Price)
	}
	return clone
}

// Oracle resolves the current price for an asset. Absence of a quote is a
// valid outcome that callers must treat as failure, never as a zero price.
type Oracle interface {
	GetPrice(asset types.AssetID) (Quote, bool)
}

// ManualOracle is a feed whose quotes are posted explicitly. Quotes older
// than the configured freshness window are reported as missing.
type ManualOracle struct {
	mu     sync.RWMutex
	quotes map[types.AssetID]Quote
	maxAge time.Duration
	now    func() time.Time
}

// NewManualOracle constructs an empty feed. A zero maxAge disables the
// freshness check.
func NewManualOracle(maxAge time.Duration) *ManualOracle {
	return &ManualOracle{
		quotes: make(map[types.AssetID]Quote),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// SetClock overrides the time source used for freshness checks.
func (o *ManualOracle) SetClock(now func() time.Time) {
	if o == nil || now == nil {
		return
	}
	o.mu.Lock()
	o.now = now
	o.mu.Unlock()
}

// SetPrice posts a quote stamped with the current time.
func (o *ManualOracle) SetPrice(asset types.AssetID, price *big.Int) {
	o.mu.Lock()
	o.quotes[asset] = Quote{Price: new(big.Int).Set(price), Timestamp: o.now()}
	o.mu.Unlock()
}

// SetPriceAt posts a quote with an explicit observation timestamp.
func (o *ManualOracle) SetPriceAt(asset types.AssetID, price *big.Int, at time.Time) {
	o.mu.Lock()
	o.quotes[asset] = Quote{Price: new(big.Int).Set(price), Timestamp: at}
	o.mu.Unlock()
}

// DropPrice removes the quote for an asset, simulating a feed outage.
func (o *ManualOracle) DropPrice(asset types.AssetID) {
	o.mu.Lock()
	delete(o.quotes, asset)
	o.mu.Unlock()
}

// GetPrice implements the Oracle interface.
func (o *ManualOracle) GetPrice(asset types.AssetID) (Quote, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	quote, ok := o.quotes[asset]
	if !ok || quote.Price == nil || quote.Price.Sign() <= 0 {
		return Quote{}, false
	}
	if o.maxAge > 0 && o.now().Sub(quote.Timestamp) > o.maxAge {
		return Quote{}, false
	}
	return quote.Clone(), true
}
