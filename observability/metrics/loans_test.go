package metrics

import (
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"moneymarket/core/types"
	"moneymarket/native/assets"
	"moneymarket/native/loans"
)

func TestLoansReturnsSingleton(t *testing.T) {
	require.Same(t, Loans(), Loans())
}

func TestLoansObservesEngineOperations(t *testing.T) {
	m := Loans()

	const (
		asset = types.AssetID("eth")
		pool  = types.AccountID("loans/pool")
		safe  = types.AccountID("loans/reserves")
		user  = types.AccountID("alice")
	)

	state := loans.NewMemState()
	ledger := assets.NewMemLedger()
	now := int64(1_700_000_000)

	engine := loans.NewEngine(pool, safe)
	engine.SetState(state)
	engine.SetLedger(ledger)
	engine.SetMetrics(m)
	engine.SetTimeSource(func() int64 { return now })

	market := &loans.Market{
		CollateralFactor:                 loans.Ray(1, 2),
		LooseCollateralFactor:            loans.Ray(3, 5),
		ReserveFactor:                    loans.Ray(1, 10),
		CloseFactor:                      loans.Ray(1, 2),
		LiquidateIncentive:               loans.Ray(11, 10),
		LiquidateIncentiveReservedFactor: big.NewInt(0),
		RateModel:                        loans.NewRateModel(loans.Ray(1, 50), loans.Ray(1, 10), loans.Ray(8, 25), loans.Ray(4, 5)),
		State:                            loans.MarketStatePending,
		SupplyCap:                        big.NewInt(1_000_000_000),
		BorrowCap:                        big.NewInt(1_000_000_000),
		VoucherAssetID:                   types.AssetID("peth"),
	}
	require.NoError(t, engine.AddMarket(asset, market))
	require.NoError(t, engine.ActivateMarket(asset))

	accrualsBefore := testutil.ToFloat64(m.accruals.WithLabelValues("eth"))
	mintsBefore := testutil.ToFloat64(m.positionOps.WithLabelValues("mint", "eth"))

	require.NoError(t, ledger.Mint(asset, user, big.NewInt(1000)))
	require.NoError(t, engine.Mint(user, asset, big.NewInt(1000)))
	require.Equal(t, mintsBefore+1, testutil.ToFloat64(m.positionOps.WithLabelValues("mint", "eth")))

	// Idle market at an annual base rate of 2%: utilization stays zero.
	now += loans.SecondsPerYear
	require.NoError(t, engine.AccrueInterest(asset))
	require.Equal(t, accrualsBefore+1, testutil.ToFloat64(m.accruals.WithLabelValues("eth")))
	require.InDelta(t, 0.02, testutil.ToFloat64(m.borrowRate.WithLabelValues("eth")), 1e-12)
	require.InDelta(t, 0.0, testutil.ToFloat64(m.utilization.WithLabelValues("eth")), 1e-12)
}

func TestLoansRecordersTolerateMissingLabels(t *testing.T) {
	m := Loans()

	before := testutil.ToFloat64(m.accruals.WithLabelValues("unknown"))
	m.MarketAccrued("")
	require.Equal(t, before+1, testutil.ToFloat64(m.accruals.WithLabelValues("unknown")))

	liquidationsBefore := testutil.ToFloat64(m.liquidations.WithLabelValues("unknown", "unknown"))
	m.LiquidationRecorded("", "")
	require.Equal(t, liquidationsBefore+1, testutil.ToFloat64(m.liquidations.WithLabelValues("unknown", "unknown")))

	var missing *LoansMetrics
	missing.MarketAccrued("eth")
	missing.MarketRatesUpdated("eth", loans.Ray(1, 50), big.NewInt(0))
	missing.PositionChanged("mint", "eth")
	missing.LiquidationRecorded("eth", "usdc")
}
