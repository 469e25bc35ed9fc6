package loans

import "errors"

var (
	// Configuration.
	ErrMarketDoesNotExist            = errors.New("loans: market does not exist")
	ErrMarketAlreadyExists           = errors.New("loans: market already exists")
	ErrMarketAlreadyActivated        = errors.New("loans: market already activated")
	ErrNewMarketMustHavePendingState = errors.New("loans: new market must have pending state")
	ErrInvalidRateModelParam         = errors.New("loans: invalid rate model param")
	ErrInvalidMarketParam            = errors.New("loans: invalid market param")

	// Capacity.
	ErrSupplyCapacityExceeded = errors.New("loans: supply capacity exceeded")
	ErrBorrowCapacityExceeded = errors.New("loans: borrow capacity exceeded")

	// Arithmetic. Raised by any checked numeric step; always aborts the call.
	ErrOverflow       = errors.New("loans: arithmetic overflow")
	ErrUnderflow      = errors.New("loans: arithmetic underflow")
	ErrDivisionByZero = errors.New("loans: division by zero")

	// Liquidity and collateral.
	ErrInsufficientLiquidity        = errors.New("loans: insufficient liquidity")
	ErrInsufficientCollateral       = errors.New("loans: insufficient collateral")
	ErrInsufficientDeposit          = errors.New("loans: insufficient deposit")
	ErrInsufficientShortfall        = errors.New("loans: insufficient shortfall")
	ErrTooMuchRepay                 = errors.New("loans: too much repay")
	ErrDepositsAreNotCollateral     = errors.New("loans: deposits are not collateral")
	ErrLiquidatorIsBorrower         = errors.New("loans: liquidator is borrower")
	ErrNoDebtToRepay                = errors.New("loans: no outstanding debt to repay")
	ErrDepositRequiredBeforeCollateral = errors.New("loans: deposit required before enabling collateral")
	ErrAlreadyEnabledCollateral        = errors.New("loans: collateral already enabled")
	ErrAlreadyDisabledCollateral       = errors.New("loans: collateral already disabled")
	ErrCollateralDisableActionDenied   = errors.New("loans: collateral disable denied")

	// Market state.
	ErrMarketNotActivated = errors.New("loans: market not activated")

	// Pricing.
	ErrPriceIsInvalid = errors.New("loans: oracle price is invalid")

	// Invariant guard. Blocks first-depositor/donation-style manipulation of
	// the exchange rate.
	ErrInvalidExchangeRate = errors.New("loans: exchange rate out of bounds")

	// Wiring.
	ErrInvalidAmount     = errors.New("loans: amount must be positive")
	ErrStateNotConfigured = errors.New("loans: state not configured")
)
