package loans

import (
	"math/big"

	"moneymarket/core/types"
)

// Market lifecycle administration. Callers are expected to gate these behind
// governance; the engine only enforces parameter and state-machine validity.

// ValidateMarketParams checks market parameters for internal consistency.
// AddMarket and UpdateMarket apply it; config loading reuses it so a bad
// market file fails before any state transition is attempted.
func ValidateMarketParams(market *Market) error {
	if market == nil {
		return ErrInvalidMarketParam
	}
	if err := market.RateModel.Validate(); err != nil {
		return err
	}
	factorBounded := func(f *big.Int) bool {
		return f != nil && f.Sign() >= 0 && f.Cmp(RateScale) <= 0
	}
	if !factorBounded(market.CollateralFactor) || !factorBounded(market.LooseCollateralFactor) {
		return ErrInvalidMarketParam
	}
	if market.LooseCollateralFactor.Cmp(market.CollateralFactor) < 0 {
		return ErrInvalidMarketParam
	}
	if !factorBounded(market.ReserveFactor) || !factorBounded(market.LiquidateIncentiveReservedFactor) {
		return ErrInvalidMarketParam
	}
	if market.CloseFactor == nil || market.CloseFactor.Sign() <= 0 || market.CloseFactor.Cmp(RateScale) > 0 {
		return ErrInvalidMarketParam
	}
	if market.LiquidateIncentive == nil || market.LiquidateIncentive.Cmp(RateScale) < 0 {
		return ErrInvalidMarketParam
	}
	if market.SupplyCap == nil || market.SupplyCap.Sign() <= 0 {
		return ErrInvalidMarketParam
	}
	if market.BorrowCap == nil || market.BorrowCap.Sign() < 0 {
		return ErrInvalidMarketParam
	}
	if market.VoucherAssetID == "" {
		return ErrInvalidMarketParam
	}
	return nil
}

// AddMarket registers a new market in the Pending state and seeds its stats
// record at the initial borrow index and exchange rate.
func (e *Engine) AddMarket(asset types.AssetID, market *Market) error {
	return e.run(func() error {
		if market == nil {
			return ErrInvalidMarketParam
		}
		if market.State != MarketStatePending {
			return ErrNewMarketMustHavePendingState
		}
		if err := ValidateMarketParams(market); err != nil {
			return err
		}
		existing, err := e.state.GetMarket(asset)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrMarketAlreadyExists
		}
		stored := market.Clone()
		if err := e.state.PutMarket(asset, stored); err != nil {
			return err
		}
		if err := e.state.PutStats(asset, newMarketStats()); err != nil {
			return err
		}
		e.emit(marketEvent(EventTypeMarketAdded, asset, stored))
		return nil
	})
}

// UpdateMarket replaces the economic parameters of an existing market. The
// lifecycle state and voucher binding are not updatable through this path.
func (e *Engine) UpdateMarket(asset types.AssetID, update *Market) error {
	return e.run(func() error {
		if update == nil {
			return ErrInvalidMarketParam
		}
		current, err := e.market(asset)
		if err != nil {
			return err
		}
		next := update.Clone()
		next.State = current.State
		next.VoucherAssetID = current.VoucherAssetID
		if err := ValidateMarketParams(next); err != nil {
			return err
		}
		if current.State != MarketStatePending {
			if err := e.accrueInterest(asset); err != nil {
				return err
			}
		}
		if err := e.state.PutMarket(asset, next); err != nil {
			return err
		}
		e.emit(marketEvent(EventTypeMarketUpdated, asset, next))
		return nil
	})
}

// ActivateMarket moves a Pending or Supervision market into Active.
func (e *Engine) ActivateMarket(asset types.AssetID) error {
	return e.run(func() error {
		market, err := e.market(asset)
		if err != nil {
			return err
		}
		if market.State == MarketStateActive {
			return ErrMarketAlreadyActivated
		}
		market.State = MarketStateActive
		if err := e.state.PutMarket(asset, market); err != nil {
			return err
		}
		e.emit(marketEvent(EventTypeMarketActivated, asset, market))
		return nil
	})
}

// SuperviseMarket freezes an Active market for new exposure. Existing
// positions keep accruing and may still be unwound or liquidated.
func (e *Engine) SuperviseMarket(asset types.AssetID) error {
	return e.run(func() error {
		market, err := e.market(asset)
		if err != nil {
			return err
		}
		if market.State != MarketStateActive {
			return ErrMarketNotActivated
		}
		if err := e.accrueInterest(asset); err != nil {
			return err
		}
		market.State = MarketStateSupervision
		if err := e.state.PutMarket(asset, market); err != nil {
			return err
		}
		e.emit(marketEvent(EventTypeMarketSupervised, asset, market))
		return nil
	})
}

// GetMarket returns a copy of the market configuration.
func (e *Engine) GetMarket(asset types.AssetID) (*Market, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.market(asset)
}

// GetMarketStats returns a copy of the market's accounting record.
func (e *Engine) GetMarketStats(asset types.AssetID) (*MarketStats, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if _, err := e.market(asset); err != nil {
		return nil, err
	}
	return e.stats(asset)
}

// MarketAssets lists all registered market assets in deterministic order.
func (e *Engine) MarketAssets() ([]types.AssetID, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.MarketAssets()
}
