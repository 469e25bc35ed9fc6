package loans

import (
	"math/big"

	"moneymarket/core/events"
	"moneymarket/core/types"
	"moneymarket/native/assets"
	"moneymarket/native/common"
	"moneymarket/native/oracle"
)

// Metrics receives engine-level observations. The prometheus implementation
// lives in observability/metrics; a nil recorder disables reporting.
type Metrics interface {
	MarketAccrued(asset string)
	MarketRatesUpdated(asset string, borrowRate, utilization *big.Int)
	PositionChanged(op, asset string)
	LiquidationRecorded(debtAsset, collateralAsset string)
}

// Engine orchestrates the lending market state transitions. Calls are
// processed one at a time against the shared ledger; every public entry point
// runs inside a unit of work that discards all of its mutations on failure.
type Engine struct {
	state           State
	ledger          assets.Ledger
	oracle          oracle.Oracle
	poolAccount     types.AccountID
	reservesAccount types.AccountID
	pauses          common.PauseView
	emitter         events.Emitter
	metrics         Metrics
	timeSource      func() int64
}

// NewEngine constructs a lending engine holding pooled funds on poolAccount
// and protocol-retained vouchers on reservesAccount.
func NewEngine(poolAccount, reservesAccount types.AccountID) *Engine {
	return &Engine{
		poolAccount:     poolAccount,
		reservesAccount: reservesAccount,
		emitter:         events.NoopEmitter{},
	}
}

// SetState wires the engine to its persistence layer.
func (e *Engine) SetState(state State) { e.state = state }

// SetLedger wires the engine to the underlying fungible-asset backend.
func (e *Engine) SetLedger(ledger assets.Ledger) { e.ledger = ledger }

// SetOracle wires the engine to the external price feed.
func (e *Engine) SetOracle(o oracle.Oracle) { e.oracle = o }

// SetPauses wires the administrative pause switches.
func (e *Engine) SetPauses(p common.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter wires the structured event sink. A nil emitter resets to noop.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetMetrics wires the metrics recorder.
func (e *Engine) SetMetrics(m Metrics) {
	if e == nil {
		return
	}
	e.metrics = m
}

// SetTimeSource overrides the clock used for accrual deltas. The source must
// be monotonic for accrual to make progress; tests drive it explicitly.
func (e *Engine) SetTimeSource(now func() int64) {
	if e == nil || now == nil {
		return
	}
	e.timeSource = now
}

// PoolAccount returns the account holding the pooled underlying.
func (e *Engine) PoolAccount() types.AccountID { return e.poolAccount }

// ReservesAccount returns the account holding protocol-retained vouchers.
func (e *Engine) ReservesAccount() types.AccountID { return e.reservesAccount }

// run executes fn inside the call-scoped unit of work: paired snapshots of
// the loans state and the asset ledger are reverted together on any error, so
// no partial state is ever observable.
func (e *Engine) run(fn func() error) error {
	if err := e.ready(); err != nil {
		return err
	}
	stateSnap := e.state.Snapshot()
	ledgerSnap := e.ledger.Snapshot()
	if err := fn(); err != nil {
		e.state.RevertToSnapshot(stateSnap)
		e.ledger.RevertToSnapshot(ledgerSnap)
		return err
	}
	return nil
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil || e.ledger == nil {
		return ErrStateNotConfigured
	}
	return nil
}

func (e *Engine) emit(evt *types.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) observePosition(op string, asset types.AssetID) {
	if e.metrics != nil {
		e.metrics.PositionChanged(op, asset.String())
	}
}

func (e *Engine) market(asset types.AssetID) (*Market, error) {
	market, err := e.state.GetMarket(asset)
	if err != nil {
		return nil, err
	}
	if market == nil {
		return nil, ErrMarketDoesNotExist
	}
	return market, nil
}

func (e *Engine) activeMarket(asset types.AssetID) (*Market, error) {
	market, err := e.market(asset)
	if err != nil {
		return nil, err
	}
	if market.State != MarketStateActive {
		return nil, ErrMarketNotActivated
	}
	return market, nil
}

// usableMarket admits Active and Supervision markets: positions may unwind
// under supervision, only new exposure is frozen.
func (e *Engine) usableMarket(asset types.AssetID) (*Market, error) {
	market, err := e.market(asset)
	if err != nil {
		return nil, err
	}
	if market.State == MarketStatePending {
		return nil, ErrMarketNotActivated
	}
	return market, nil
}

func (e *Engine) stats(asset types.AssetID) (*MarketStats, error) {
	stats, err := e.state.GetStats(asset)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = newMarketStats()
	}
	stats.ensureDefaults()
	return stats, nil
}

func (e *Engine) price(asset types.AssetID) (*big.Int, error) {
	if e.oracle == nil {
		return nil, ErrPriceIsInvalid
	}
	quote, ok := e.oracle.GetPrice(asset)
	if !ok || quote.Price == nil || quote.Price.Sign() <= 0 {
		return nil, ErrPriceIsInvalid
	}
	return quote.Price, nil
}

func (e *Engine) totalCash(asset types.AssetID) *big.Int {
	return e.ledger.BalanceOf(asset, e.poolAccount)
}

// currentDebt compounds a snapshot against the present borrow index:
// principal * index / indexAtSnapshot, floored.
func currentDebt(snapshot *BorrowSnapshot, index *big.Int) (*big.Int, error) {
	if snapshot == nil || snapshot.Principal == nil || snapshot.Principal.Sign() == 0 {
		return bigZero(), nil
	}
	if snapshot.BorrowIndex == nil || snapshot.BorrowIndex.Sign() == 0 {
		return bigZero(), nil
	}
	return mulDiv(snapshot.Principal, index, snapshot.BorrowIndex)
}

// Mint supplies underlying into the market pool and credits vouchers at the
// current exchange rate.
func (e *Engine) Mint(who types.AccountID, asset types.AssetID, amount *big.Int) error {
	return e.run(func() error {
		if err := common.Guard(e.pauses, moduleName); err != nil {
			return err
		}
		if amount == nil || amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
		market, err := e.activeMarket(asset)
		if err != nil {
			return err
		}
		if err := e.accrueInterest(asset); err != nil {
			return err
		}
		stats, err := e.stats(asset)
		if err != nil {
			return err
		}

		pooled := rayMul(stats.TotalSupply, stats.ExchangeRate)
		pooled.Add(pooled, amount)
		if market.SupplyCap != nil && market.SupplyCap.Sign() > 0 && pooled.Cmp(market.SupplyCap) > 0 {
			return ErrSupplyCapacityExceeded
		}

		vouchers, err := rayDiv(amount, stats.ExchangeRate)
		if err != nil {
			return err
		}
		if vouchers.Sign() == 0 {
			return ErrInsufficientDeposit
		}

		if err := e.ledger.Transfer(asset, who, e.poolAccount, amount); err != nil {
			return err
		}

		deposit, err := e.state.GetDeposit(asset, who)
		if err != nil {
			return err
		}
		if deposit == nil {
			deposit = &Deposits{VoucherBalance: bigZero()}
		}
		deposit.VoucherBalance = new(big.Int).Add(deposit.VoucherBalance, vouchers)
		if err := e.state.PutDeposit(asset, who, deposit); err != nil {
			return err
		}

		stats.TotalSupply = new(big.Int).Add(stats.TotalSupply, vouchers)
		if err := e.state.PutStats(asset, stats); err != nil {
			return err
		}

		e.observePosition("mint", asset)
		e.emit(mintedEvent(who, asset, amount, vouchers))
		return nil
	})
}

// Redeem burns vouchers and releases the corresponding underlying. A deposit
// flagged as collateral can only release the slack not needed to back debt.
func (e *Engine) Redeem(who types.AccountID, asset types.AssetID, vouchers *big.Int) error {
	return e.run(func() error {
		return e.redeem(who, asset, vouchers)
	})
}

// RedeemAll redeems the caller's entire voucher balance for the asset.
func (e *Engine) RedeemAll(who types.AccountID, asset types.AssetID) error {
	return e.run(func() error {
		deposit, err := e.state.GetDeposit(asset, who)
		if err != nil {
			return err
		}
		if deposit == nil || deposit.VoucherBalance.Sign() == 0 {
			return ErrInsufficientDeposit
		}
		return e.redeem(who, asset, deposit.VoucherBalance)
	})
}

func (e *Engine) redeem(who types.AccountID, asset types.AssetID, vouchers *big.Int) error {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if vouchers == nil || vouchers.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if _, err := e.usableMarket(asset); err != nil {
		return err
	}
	if err := e.accrueInterest(asset); err != nil {
		return err
	}
	stats, err := e.stats(asset)
	if err != nil {
		return err
	}
	deposit, err := e.state.GetDeposit(asset, who)
	if err != nil {
		return err
	}
	if deposit == nil || deposit.VoucherBalance.Cmp(vouchers) < 0 {
		return ErrInsufficientDeposit
	}
	if deposit.IsCollateral {
		movable, err := e.canMove(asset, who)
		if err != nil {
			return err
		}
		if vouchers.Cmp(movable) > 0 {
			return ErrInsufficientLiquidity
		}
	}

	underlying := rayMul(vouchers, stats.ExchangeRate)
	if underlying.Sign() == 0 {
		return ErrInsufficientDeposit
	}

	deposit.VoucherBalance, err = checkedSub(deposit.VoucherBalance, vouchers)
	if err != nil {
		return err
	}
	if deposit.VoucherBalance.Sign() == 0 && !deposit.IsCollateral {
		if err := e.state.DeleteDeposit(asset, who); err != nil {
			return err
		}
	} else if err := e.state.PutDeposit(asset, who, deposit); err != nil {
		return err
	}

	stats.TotalSupply, err = checkedSub(stats.TotalSupply, vouchers)
	if err != nil {
		return err
	}
	if err := e.state.PutStats(asset, stats); err != nil {
		return err
	}

	if err := e.ledger.Transfer(asset, e.poolAccount, who, underlying); err != nil {
		return err
	}

	e.observePosition("redeem", asset)
	e.emit(redeemedEvent(who, asset, vouchers, underlying))
	return nil
}

// Borrow draws underlying from the pool against the caller's collateral.
func (e *Engine) Borrow(who types.AccountID, asset types.AssetID, amount *big.Int) error {
	return e.run(func() error {
		if err := common.Guard(e.pauses, moduleName); err != nil {
			return err
		}
		if amount == nil || amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
		market, err := e.activeMarket(asset)
		if err != nil {
			return err
		}
		if err := e.accrueInterest(asset); err != nil {
			return err
		}
		stats, err := e.stats(asset)
		if err != nil {
			return err
		}

		projected := new(big.Int).Add(stats.TotalBorrows, amount)
		if market.BorrowCap != nil && market.BorrowCap.Sign() > 0 && projected.Cmp(market.BorrowCap) > 0 {
			return ErrBorrowCapacityExceeded
		}

		liquidity, err := e.accountLiquidity(who, standardValuation)
		if err != nil {
			return err
		}
		price, err := e.price(asset)
		if err != nil {
			return err
		}
		borrowValue := new(big.Int).Mul(amount, price)
		if borrowValue.Cmp(liquidity.Liquidity) > 0 {
			return ErrInsufficientLiquidity
		}

		if e.totalCash(asset).Cmp(amount) < 0 {
			return ErrInsufficientLiquidity
		}

		snapshot, err := e.state.GetBorrow(asset, who)
		if err != nil {
			return err
		}
		debt, err := currentDebt(snapshot, stats.BorrowIndex)
		if err != nil {
			return err
		}
		principal := new(big.Int).Add(debt, amount)
		if err := e.state.PutBorrow(asset, who, &BorrowSnapshot{
			Principal:   principal,
			BorrowIndex: stats.BorrowIndex,
		}); err != nil {
			return err
		}

		stats.TotalBorrows = projected
		if err := e.state.PutStats(asset, stats); err != nil {
			return err
		}

		if err := e.ledger.Transfer(asset, e.poolAccount, who, amount); err != nil {
			return err
		}

		e.observePosition("borrow", asset)
		e.emit(borrowedEvent(who, asset, amount))
		return nil
	})
}

// RepayBorrow pays down the caller's index-adjusted debt by amount.
func (e *Engine) RepayBorrow(who types.AccountID, asset types.AssetID, amount *big.Int) error {
	return e.run(func() error {
		return e.repayBorrow(who, asset, amount, false)
	})
}

// RepayBorrowAll settles the caller's entire outstanding debt for the asset.
func (e *Engine) RepayBorrowAll(who types.AccountID, asset types.AssetID) error {
	return e.run(func() error {
		return e.repayBorrow(who, asset, nil, true)
	})
}

func (e *Engine) repayBorrow(who types.AccountID, asset types.AssetID, amount *big.Int, all bool) error {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if !all && (amount == nil || amount.Sign() <= 0) {
		return ErrInvalidAmount
	}
	if _, err := e.usableMarket(asset); err != nil {
		return err
	}
	if err := e.accrueInterest(asset); err != nil {
		return err
	}
	stats, err := e.stats(asset)
	if err != nil {
		return err
	}
	snapshot, err := e.state.GetBorrow(asset, who)
	if err != nil {
		return err
	}
	debt, err := currentDebt(snapshot, stats.BorrowIndex)
	if err != nil {
		return err
	}
	if debt.Sign() == 0 {
		return ErrNoDebtToRepay
	}
	repay := amount
	if all {
		repay = debt
	} else if amount.Cmp(debt) > 0 {
		return ErrTooMuchRepay
	}

	if err := e.ledger.Transfer(asset, who, e.poolAccount, repay); err != nil {
		return err
	}

	principal, err := checkedSub(debt, repay)
	if err != nil {
		return err
	}
	if principal.Sign() == 0 {
		if err := e.state.DeleteBorrow(asset, who); err != nil {
			return err
		}
	} else if err := e.state.PutBorrow(asset, who, &BorrowSnapshot{
		Principal:   principal,
		BorrowIndex: stats.BorrowIndex,
	}); err != nil {
		return err
	}

	stats.TotalBorrows = saturatingSub(stats.TotalBorrows, repay)
	if err := e.state.PutStats(asset, stats); err != nil {
		return err
	}

	e.observePosition("repay", asset)
	e.emit(repaidEvent(who, asset, repay))
	return nil
}

// CollateralAsset flips the is-collateral flag on the caller's deposit. No
// funds move. Disabling is denied while the remaining collateral could not
// back the account's current debt.
func (e *Engine) CollateralAsset(who types.AccountID, asset types.AssetID, enable bool) error {
	return e.run(func() error {
		if err := common.Guard(e.pauses, moduleName); err != nil {
			return err
		}
		if _, err := e.usableMarket(asset); err != nil {
			return err
		}
		deposit, err := e.state.GetDeposit(asset, who)
		if err != nil {
			return err
		}
		if enable {
			if deposit == nil || deposit.VoucherBalance.Sign() == 0 {
				return ErrDepositRequiredBeforeCollateral
			}
			if deposit.IsCollateral {
				return ErrAlreadyEnabledCollateral
			}
			deposit.IsCollateral = true
		} else {
			if deposit == nil || !deposit.IsCollateral {
				return ErrAlreadyDisabledCollateral
			}
			if err := e.accrueInterest(asset); err != nil {
				return err
			}
			borrowValue, collateralValue, err := e.accountValues(who, standardValuation)
			if err != nil {
				return err
			}
			thisValue, err := e.collateralValue(asset, who, standardValuation)
			if err != nil {
				return err
			}
			remaining := saturatingSub(collateralValue, thisValue)
			if borrowValue.Cmp(remaining) > 0 {
				return ErrCollateralDisableActionDenied
			}
			deposit.IsCollateral = false
		}
		if deposit.VoucherBalance.Sign() == 0 && !deposit.IsCollateral {
			if err := e.state.DeleteDeposit(asset, who); err != nil {
				return err
			}
		} else if err := e.state.PutDeposit(asset, who, deposit); err != nil {
			return err
		}
		e.observePosition("collateral", asset)
		e.emit(collateralToggledEvent(who, asset, enable))
		return nil
	})
}

// TransferPTokens moves voucher balance between accounts, subject to the same
// movable-amount cap as redeeming on the sending side.
func (e *Engine) TransferPTokens(from, to types.AccountID, asset types.AssetID, vouchers *big.Int) error {
	return e.run(func() error {
		if err := common.Guard(e.pauses, moduleName); err != nil {
			return err
		}
		if vouchers == nil || vouchers.Sign() <= 0 {
			return ErrInvalidAmount
		}
		if _, err := e.usableMarket(asset); err != nil {
			return err
		}
		if err := e.accrueInterest(asset); err != nil {
			return err
		}
		source, err := e.state.GetDeposit(asset, from)
		if err != nil {
			return err
		}
		if source == nil || source.VoucherBalance.Cmp(vouchers) < 0 {
			return ErrInsufficientDeposit
		}
		if source.IsCollateral {
			movable, err := e.canMove(asset, from)
			if err != nil {
				return err
			}
			if vouchers.Cmp(movable) > 0 {
				return ErrInsufficientDeposit
			}
		}

		source.VoucherBalance, err = checkedSub(source.VoucherBalance, vouchers)
		if err != nil {
			return err
		}
		if source.VoucherBalance.Sign() == 0 && !source.IsCollateral {
			if err := e.state.DeleteDeposit(asset, from); err != nil {
				return err
			}
		} else if err := e.state.PutDeposit(asset, from, source); err != nil {
			return err
		}

		dest, err := e.state.GetDeposit(asset, to)
		if err != nil {
			return err
		}
		if dest == nil {
			dest = &Deposits{VoucherBalance: bigZero()}
		}
		dest.VoucherBalance = new(big.Int).Add(dest.VoucherBalance, vouchers)
		if err := e.state.PutDeposit(asset, to, dest); err != nil {
			return err
		}

		e.observePosition("transfer", asset)
		e.emit(vouchersTransferredEvent(from, to, asset, vouchers))
		return nil
	})
}
