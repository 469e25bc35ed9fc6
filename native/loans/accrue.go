package loans

import (
	"math/big"
	"time"

	"moneymarket/core/types"
)

// AccrueInterest rolls the market forward to the current time inside its own
// unit of work. Position operations accrue internally, so explicit accrual is
// only needed by read paths that want fresh stats.
func (e *Engine) AccrueInterest(asset types.AssetID) error {
	return e.run(func() error {
		return e.accrueInterest(asset)
	})
}

// accrueInterest applies borrow interest for the elapsed wall-clock delta:
// total borrows and the borrow index grow by ratePerYear*delta/year, the
// reserve factor share of new interest is retained, and the exchange rate is
// recomputed from the post-accrual cash, borrows and reserves.
func (e *Engine) accrueInterest(asset types.AssetID) error {
	market, err := e.market(asset)
	if err != nil {
		return err
	}
	stats, err := e.stats(asset)
	if err != nil {
		return err
	}
	now := e.now()

	// First touch only records the clock; interest starts on the next call.
	if stats.LastAccrualTime == 0 {
		stats.LastAccrualTime = now
		return e.state.PutStats(asset, stats)
	}
	if now <= stats.LastAccrualTime {
		return nil
	}
	delta := big.NewInt(now - stats.LastAccrualTime)
	stats.LastAccrualTime = now

	util, err := UtilizationRatio(e.totalCash(asset), stats.TotalBorrows, stats.TotalReserves)
	if err != nil {
		return err
	}
	borrowRate, err := market.RateModel.BorrowRate(util)
	if err != nil {
		return err
	}
	supplyRate, err := SupplyRate(borrowRate, util, market.ReserveFactor)
	if err != nil {
		return err
	}
	stats.UtilizationRatio = util
	stats.BorrowRate = borrowRate
	stats.SupplyRate = supplyRate

	if borrowRate.Sign() > 0 {
		elapsedRate := new(big.Int).Mul(borrowRate, delta)
		if stats.TotalBorrows.Sign() > 0 {
			yearScale := new(big.Int).Mul(RateScale, big.NewInt(SecondsPerYear))
			interest, err := mulDiv(stats.TotalBorrows, elapsedRate, yearScale)
			if err != nil {
				return err
			}
			if interest.Sign() > 0 {
				stats.TotalBorrows = new(big.Int).Add(stats.TotalBorrows, interest)
				stats.TotalReserves = new(big.Int).Add(stats.TotalReserves, rayMul(interest, market.ReserveFactor))
			}
		}
		// The index advances even with no borrows outstanding.
		growth := new(big.Int).Quo(elapsedRate, big.NewInt(SecondsPerYear))
		factor := new(big.Int).Add(RateScale, growth)
		stats.BorrowIndex = rayMul(stats.BorrowIndex, factor)
	}

	if stats.TotalSupply.Sign() > 0 {
		backing := new(big.Int).Add(e.totalCash(asset), stats.TotalBorrows)
		backing = saturatingSub(backing, stats.TotalReserves)
		rate, err := rayDiv(backing, stats.TotalSupply)
		if err != nil {
			return err
		}
		if rate.Cmp(MinExchangeRate) < 0 || rate.Cmp(MaxExchangeRate) >= 0 {
			return ErrInvalidExchangeRate
		}
		stats.ExchangeRate = rate
	}

	if err := e.state.PutStats(asset, stats); err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.MarketAccrued(asset.String())
		e.metrics.MarketRatesUpdated(asset.String(), stats.BorrowRate, stats.UtilizationRatio)
	}
	return nil
}

func (e *Engine) now() int64 {
	if e.timeSource != nil {
		return e.timeSource()
	}
	return time.Now().Unix()
}
