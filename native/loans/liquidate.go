package loans

import (
	"math/big"

	"moneymarket/core/types"
	"moneymarket/native/common"
)

// LiquidateBorrow lets the liquidator repay part of an underwater borrower's
// debt and seize discounted collateral vouchers in another market. The
// repayment is bounded by the debt market's close factor; a protocol share of
// the seized bonus is diverted to the reserves account.
func (e *Engine) LiquidateBorrow(liquidator, borrower types.AccountID, debtAsset, collateralAsset types.AssetID, repay *big.Int) error {
	return e.run(func() error {
		if err := common.Guard(e.pauses, moduleName); err != nil {
			return err
		}
		if repay == nil || repay.Sign() <= 0 {
			return ErrInvalidAmount
		}
		if liquidator == borrower {
			return ErrLiquidatorIsBorrower
		}
		debtMarket, err := e.usableMarket(debtAsset)
		if err != nil {
			return err
		}
		if _, err := e.usableMarket(collateralAsset); err != nil {
			return err
		}
		if err := e.accrueInterest(debtAsset); err != nil {
			return err
		}
		if debtAsset != collateralAsset {
			if err := e.accrueInterest(collateralAsset); err != nil {
				return err
			}
		}

		collDeposit, err := e.state.GetDeposit(collateralAsset, borrower)
		if err != nil {
			return err
		}
		if collDeposit == nil || !collDeposit.IsCollateral {
			return ErrDepositsAreNotCollateral
		}

		// Eligibility is judged under the loose collateral factor, so a
		// position must decay past the grace band before it can be seized.
		liquidity, err := e.accountLiquidity(borrower, looseValuation)
		if err != nil {
			return err
		}
		if liquidity.Shortfall.Sign() == 0 {
			return ErrInsufficientShortfall
		}

		debtStats, err := e.stats(debtAsset)
		if err != nil {
			return err
		}
		snapshot, err := e.state.GetBorrow(debtAsset, borrower)
		if err != nil {
			return err
		}
		debt, err := currentDebt(snapshot, debtStats.BorrowIndex)
		if err != nil {
			return err
		}
		if debt.Sign() == 0 {
			return ErrNoDebtToRepay
		}
		maxRepay := rayMul(debt, debtMarket.CloseFactor)
		if repay.Cmp(maxRepay) > 0 {
			return ErrTooMuchRepay
		}

		debtPrice, err := e.price(debtAsset)
		if err != nil {
			return err
		}
		collPrice, err := e.price(collateralAsset)
		if err != nil {
			return err
		}
		collStats, err := e.stats(collateralAsset)
		if err != nil {
			return err
		}

		// repay value -> bonus value -> collateral underlying -> vouchers,
		// flooring throughout.
		repayValue := new(big.Int).Mul(repay, debtPrice)
		seizeValue := rayMul(repayValue, debtMarket.LiquidateIncentive)
		seizeUnderlying := new(big.Int).Quo(seizeValue, collPrice)
		seizeVouchers, err := rayDiv(seizeUnderlying, collStats.ExchangeRate)
		if err != nil {
			return err
		}
		if seizeVouchers.Sign() == 0 {
			return ErrInvalidAmount
		}
		if seizeVouchers.Cmp(collDeposit.VoucherBalance) > 0 {
			return ErrInsufficientCollateral
		}

		// Settle the debt side.
		if err := e.ledger.Transfer(debtAsset, liquidator, e.poolAccount, repay); err != nil {
			return err
		}
		principal, err := checkedSub(debt, repay)
		if err != nil {
			return err
		}
		if principal.Sign() == 0 {
			if err := e.state.DeleteBorrow(debtAsset, borrower); err != nil {
				return err
			}
		} else if err := e.state.PutBorrow(debtAsset, borrower, &BorrowSnapshot{
			Principal:   principal,
			BorrowIndex: debtStats.BorrowIndex,
		}); err != nil {
			return err
		}
		debtStats.TotalBorrows = saturatingSub(debtStats.TotalBorrows, repay)
		if err := e.state.PutStats(debtAsset, debtStats); err != nil {
			return err
		}

		// Split the seizure: the protocol retains the reserved share of the
		// bonus, the liquidator takes the rest.
		baseVouchers, err := rayDiv(seizeVouchers, debtMarket.LiquidateIncentive)
		if err != nil {
			return err
		}
		bonusVouchers, err := checkedSub(seizeVouchers, baseVouchers)
		if err != nil {
			return err
		}
		reservedVouchers := rayMul(bonusVouchers, debtMarket.LiquidateIncentiveReservedFactor)
		liquidatorVouchers, err := checkedSub(seizeVouchers, reservedVouchers)
		if err != nil {
			return err
		}

		collDeposit.VoucherBalance, err = checkedSub(collDeposit.VoucherBalance, seizeVouchers)
		if err != nil {
			return err
		}
		if collDeposit.VoucherBalance.Sign() == 0 && !collDeposit.IsCollateral {
			if err := e.state.DeleteDeposit(collateralAsset, borrower); err != nil {
				return err
			}
		} else if err := e.state.PutDeposit(collateralAsset, borrower, collDeposit); err != nil {
			return err
		}

		if err := e.creditVouchers(collateralAsset, liquidator, liquidatorVouchers); err != nil {
			return err
		}
		if reservedVouchers.Sign() > 0 {
			if err := e.creditVouchers(collateralAsset, e.reservesAccount, reservedVouchers); err != nil {
				return err
			}
		}

		if e.metrics != nil {
			e.metrics.LiquidationRecorded(debtAsset.String(), collateralAsset.String())
		}
		e.emit(liquidatedEvent(liquidator, borrower, debtAsset, collateralAsset, repay, seizeVouchers))
		return nil
	})
}

func (e *Engine) creditVouchers(asset types.AssetID, who types.AccountID, vouchers *big.Int) error {
	if vouchers == nil || vouchers.Sign() == 0 {
		return nil
	}
	deposit, err := e.state.GetDeposit(asset, who)
	if err != nil {
		return err
	}
	if deposit == nil {
		deposit = &Deposits{VoucherBalance: bigZero()}
	}
	deposit.VoucherBalance = new(big.Int).Add(deposit.VoucherBalance, vouchers)
	return e.state.PutDeposit(asset, who, deposit)
}
