package loans

import "math/big"

const moduleName = "loans"

// SecondsPerYear converts annualized rates into per-second contributions.
const SecondsPerYear = 31_536_000

var (
	// RateScale is the fixed-point scale for rates, ratios and prices (1e18).
	RateScale = big.NewInt(1_000_000_000_000_000_000)

	// MinExchangeRate is the lower bound of the voucher exchange rate and the
	// rate a fresh market starts at: 0.02 underlying per voucher. The bounds
	// are deployment policy; they exist to block donation-style manipulation
	// of the rate, not because the value is algorithmically derived.
	MinExchangeRate = big.NewInt(20_000_000_000_000_000)

	// MaxExchangeRate is the exclusive upper bound of the voucher exchange
	// rate: 1.0 underlying per voucher.
	MaxExchangeRate = big.NewInt(1_000_000_000_000_000_000)

	// MaxRatePerYear caps every rate-model parameter at 35% per year.
	MaxRatePerYear = big.NewInt(350_000_000_000_000_000)
)
