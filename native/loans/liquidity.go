package loans

import (
	"math/big"

	"moneymarket/core/types"
)

// valuationMode selects which collateral factor prices a deposit. The loose
// factor is only consulted when judging liquidation eligibility, so a
// position can sit between the two factors without being seizable.
type valuationMode uint8

const (
	standardValuation valuationMode = iota
	looseValuation
)

func (m *Market) factorFor(mode valuationMode) *big.Int {
	if mode == looseValuation {
		return m.LooseCollateralFactor
	}
	return m.CollateralFactor
}

// GetAccountLiquidity values every position of the account across all markets
// and returns spare borrowing power or shortfall, in ray value units.
func (e *Engine) GetAccountLiquidity(who types.AccountID) (AccountLiquidity, error) {
	if err := e.ready(); err != nil {
		return AccountLiquidity{}, err
	}
	return e.accountLiquidity(who, standardValuation)
}

func (e *Engine) accountLiquidity(who types.AccountID, mode valuationMode) (AccountLiquidity, error) {
	borrowValue, collateralValue, err := e.accountValues(who, mode)
	if err != nil {
		return AccountLiquidity{}, err
	}
	if collateralValue.Cmp(borrowValue) >= 0 {
		return AccountLiquidity{
			Liquidity: new(big.Int).Sub(collateralValue, borrowValue),
			Shortfall: bigZero(),
		}, nil
	}
	return AccountLiquidity{
		Liquidity: bigZero(),
		Shortfall: new(big.Int).Sub(borrowValue, collateralValue),
	}, nil
}

// accountValues sums the account's debt value and factored collateral value
// over every registered market. Prices are only required for assets the
// account actually has a position in.
func (e *Engine) accountValues(who types.AccountID, mode valuationMode) (*big.Int, *big.Int, error) {
	assets, err := e.state.MarketAssets()
	if err != nil {
		return nil, nil, err
	}
	borrowValue := bigZero()
	collateralValue := bigZero()
	for _, asset := range assets {
		debtValue, err := e.debtValue(asset, who)
		if err != nil {
			return nil, nil, err
		}
		borrowValue.Add(borrowValue, debtValue)

		depositValue, err := e.collateralValue(asset, who, mode)
		if err != nil {
			return nil, nil, err
		}
		collateralValue.Add(collateralValue, depositValue)
	}
	return borrowValue, collateralValue, nil
}

// debtValue returns the account's index-adjusted debt in the asset times the
// oracle price, in ray value units.
func (e *Engine) debtValue(asset types.AssetID, who types.AccountID) (*big.Int, error) {
	snapshot, err := e.state.GetBorrow(asset, who)
	if err != nil {
		return nil, err
	}
	if snapshot == nil || snapshot.Principal == nil || snapshot.Principal.Sign() == 0 {
		return bigZero(), nil
	}
	stats, err := e.stats(asset)
	if err != nil {
		return nil, err
	}
	debt, err := currentDebt(snapshot, stats.BorrowIndex)
	if err != nil {
		return nil, err
	}
	price, err := e.price(asset)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Mul(debt, price), nil
}

// collateralValue returns the factored value of the account's collateral
// deposit in the asset, in ray value units. Deposits not flagged as
// collateral contribute nothing.
func (e *Engine) collateralValue(asset types.AssetID, who types.AccountID, mode valuationMode) (*big.Int, error) {
	deposit, err := e.state.GetDeposit(asset, who)
	if err != nil {
		return nil, err
	}
	if deposit == nil || !deposit.IsCollateral || deposit.VoucherBalance.Sign() == 0 {
		return bigZero(), nil
	}
	market, err := e.market(asset)
	if err != nil {
		return nil, err
	}
	stats, err := e.stats(asset)
	if err != nil {
		return nil, err
	}
	price, err := e.price(asset)
	if err != nil {
		return nil, err
	}
	underlying := rayMul(deposit.VoucherBalance, stats.ExchangeRate)
	value := new(big.Int).Mul(underlying, price)
	return rayMul(value, market.factorFor(mode)), nil
}

// canMove returns the voucher amount the account may redeem or transfer out
// of the asset without its remaining collateral falling short of its debt.
func (e *Engine) canMove(asset types.AssetID, who types.AccountID) (*big.Int, error) {
	deposit, err := e.state.GetDeposit(asset, who)
	if err != nil {
		return nil, err
	}
	if deposit == nil || deposit.VoucherBalance.Sign() == 0 {
		return bigZero(), nil
	}
	if !deposit.IsCollateral {
		return cloneBig(deposit.VoucherBalance), nil
	}
	liquidity, err := e.accountLiquidity(who, standardValuation)
	if err != nil {
		return nil, err
	}
	if liquidity.Shortfall.Sign() > 0 {
		return bigZero(), nil
	}
	thisValue, err := e.collateralValue(asset, who, standardValuation)
	if err != nil {
		return nil, err
	}
	if liquidity.Liquidity.Cmp(thisValue) >= 0 {
		return cloneBig(deposit.VoucherBalance), nil
	}

	market, err := e.market(asset)
	if err != nil {
		return nil, err
	}
	stats, err := e.stats(asset)
	if err != nil {
		return nil, err
	}
	price, err := e.price(asset)
	if err != nil {
		return nil, err
	}
	if market.CollateralFactor.Sign() == 0 {
		return cloneBig(deposit.VoucherBalance), nil
	}
	// Invert the factored valuation: slack value -> underlying -> vouchers,
	// flooring at each step so the cap is never generous.
	unfactored, err := rayDiv(liquidity.Liquidity, market.CollateralFactor)
	if err != nil {
		return nil, err
	}
	underlying := new(big.Int).Quo(unfactored, price)
	vouchers, err := rayDiv(underlying, stats.ExchangeRate)
	if err != nil {
		return nil, err
	}
	if vouchers.Cmp(deposit.VoucherBalance) > 0 {
		return cloneBig(deposit.VoucherBalance), nil
	}
	return vouchers, nil
}
