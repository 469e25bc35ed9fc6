package loans

import (
	"math/big"

	"moneymarket/core/types"
)

// MarketState is the lifecycle state of a market. Pending markets accept no
// user operations, Active markets accept everything, Supervision markets are
// frozen for new exposure (mint/borrow) but still allow positions to unwind.
type MarketState uint8

const (
	MarketStatePending MarketState = iota
	MarketStateActive
	MarketStateSupervision
)

func (s MarketState) String() string {
	switch s {
	case MarketStatePending:
		return "pending"
	case MarketStateActive:
		return "active"
	case MarketStateSupervision:
		return "supervision"
	default:
		return "unknown"
	}
}

// Market holds the per-asset configuration governing lending and borrowing of
// one underlying asset. All factor and rate fields carry RateScale precision.
type Market struct {
	// CollateralFactor is the fraction of a collateral deposit's value usable
	// as borrowing power.
	CollateralFactor *big.Int
	// LooseCollateralFactor is the laxer factor applied when judging
	// liquidation eligibility. Always >= CollateralFactor.
	LooseCollateralFactor *big.Int
	// ReserveFactor is the share of accrued interest set aside for reserves.
	ReserveFactor *big.Int
	// CloseFactor bounds the debt fraction a single liquidation may repay.
	CloseFactor *big.Int
	// LiquidateIncentive is the bonus multiplier on seized collateral, >= 1.
	LiquidateIncentive *big.Int
	// LiquidateIncentiveReservedFactor is the share of the liquidation bonus
	// retained by the protocol reserves.
	LiquidateIncentiveReservedFactor *big.Int
	// RateModel shapes borrow rates as a function of utilization.
	RateModel RateModel
	// State is the current lifecycle state.
	State MarketState
	// SupplyCap bounds the pool's underlying value, in underlying units.
	SupplyCap *big.Int
	// BorrowCap bounds total outstanding borrows, in underlying units.
	BorrowCap *big.Int
	// VoucherAssetID names the derivative voucher (ptoken) for this market.
	VoucherAssetID types.AssetID
}

// Clone returns a deep copy of the market.
func (m *Market) Clone() *Market {
	if m == nil {
		return nil
	}
	clone := &Market{
		CollateralFactor:                 cloneBig(m.CollateralFactor),
		LooseCollateralFactor:            cloneBig(m.LooseCollateralFactor),
		ReserveFactor:                    cloneBig(m.ReserveFactor),
		CloseFactor:                      cloneBig(m.CloseFactor),
		LiquidateIncentive:               cloneBig(m.LiquidateIncentive),
		LiquidateIncentiveReservedFactor: cloneBig(m.LiquidateIncentiveReservedFactor),
		RateModel:                        m.RateModel.Clone(),
		State:                            m.State,
		SupplyCap:                        cloneBig(m.SupplyCap),
		BorrowCap:                        cloneBig(m.BorrowCap),
		VoucherAssetID:                   m.VoucherAssetID,
	}
	return clone
}

// MarketStats is the per-asset global accounting record. It is owned
// exclusively by the accrual step; every other component only reads it.
type MarketStats struct {
	// TotalSupply is the circulating voucher amount.
	TotalSupply *big.Int
	// TotalBorrows is the outstanding borrowed underlying incl. interest.
	TotalBorrows *big.Int
	// TotalReserves is the underlying set aside for the protocol.
	TotalReserves *big.Int
	// BorrowIndex is the monotonic compounding ratio, starts at 1 ray.
	BorrowIndex *big.Int
	// ExchangeRate is the underlying-per-voucher conversion rate.
	ExchangeRate *big.Int
	// UtilizationRatio, BorrowRate and SupplyRate are the rates persisted at
	// the last accrual, for the read surface.
	UtilizationRatio *big.Int
	BorrowRate       *big.Int
	SupplyRate       *big.Int
	// LastAccrualTime is the unix second of the last accrual, 0 before the
	// first call seeds it.
	LastAccrualTime int64
}

// Clone returns a deep copy of the stats record.
func (s *MarketStats) Clone() *MarketStats {
	if s == nil {
		return nil
	}
	return &MarketStats{
		TotalSupply:      cloneBig(s.TotalSupply),
		TotalBorrows:     cloneBig(s.TotalBorrows),
		TotalReserves:    cloneBig(s.TotalReserves),
		BorrowIndex:      cloneBig(s.BorrowIndex),
		ExchangeRate:     cloneBig(s.ExchangeRate),
		UtilizationRatio: cloneBig(s.UtilizationRatio),
		BorrowRate:       cloneBig(s.BorrowRate),
		SupplyRate:       cloneBig(s.SupplyRate),
		LastAccrualTime:  s.LastAccrualTime,
	}
}

func newMarketStats() *MarketStats {
	return &MarketStats{
		TotalSupply:      bigZero(),
		TotalBorrows:     bigZero(),
		TotalReserves:    bigZero(),
		BorrowIndex:      cloneBig(RateScale),
		ExchangeRate:     cloneBig(MinExchangeRate),
		UtilizationRatio: bigZero(),
		BorrowRate:       bigZero(),
		SupplyRate:       bigZero(),
	}
}

func (s *MarketStats) ensureDefaults() {
	if s.TotalSupply == nil {
		s.TotalSupply = bigZero()
	}
	if s.TotalBorrows == nil {
		s.TotalBorrows = bigZero()
	}
	if s.TotalReserves == nil {
		s.TotalReserves = bigZero()
	}
	if s.BorrowIndex == nil || s.BorrowIndex.Sign() == 0 {
		s.BorrowIndex = cloneBig(RateScale)
	}
	if s.ExchangeRate == nil || s.ExchangeRate.Sign() == 0 {
		s.ExchangeRate = cloneBig(MinExchangeRate)
	}
	if s.UtilizationRatio == nil {
		s.UtilizationRatio = bigZero()
	}
	if s.BorrowRate == nil {
		s.BorrowRate = bigZero()
	}
	if s.SupplyRate == nil {
		s.SupplyRate = bigZero()
	}
}

// Deposits is the per-(asset, account) voucher position.
type Deposits struct {
	// VoucherBalance is the voucher amount held.
	VoucherBalance *big.Int
	// IsCollateral marks whether the deposit backs borrowing.
	IsCollateral bool
}

// Clone returns a deep copy of the deposit record.
func (d *Deposits) Clone() *Deposits {
	if d == nil {
		return nil
	}
	return &Deposits{VoucherBalance: cloneBig(d.VoucherBalance), IsCollateral: d.IsCollateral}
}

// BorrowSnapshot is the per-(asset, account) debt checkpoint. The pair allows
// O(1) compounding: currentDebt = Principal * globalIndex / BorrowIndex.
type BorrowSnapshot struct {
	// Principal is the balance after the most recent balance-changing action.
	Principal *big.Int
	// BorrowIndex is the global borrow index at that action.
	BorrowIndex *big.Int
}

// Clone returns a deep copy of the snapshot.
func (b *BorrowSnapshot) Clone() *BorrowSnapshot {
	if b == nil {
		return nil
	}
	return &BorrowSnapshot{Principal: cloneBig(b.Principal), BorrowIndex: cloneBig(b.BorrowIndex)}
}

// AccountLiquidity is the cross-asset valuation of one account, in ray value
// units (underlying units times ray price).
type AccountLiquidity struct {
	// Liquidity is the spare borrowing power, zero when in shortfall.
	Liquidity *big.Int
	// Shortfall is the uncovered debt value, zero when healthy.
	Shortfall *big.Int
}
