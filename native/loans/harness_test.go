package loans

import (
	"math/big"
	"testing"
	"time"

	"moneymarket/core/events"
	"moneymarket/core/types"
	"moneymarket/native/assets"
	"moneymarket/native/oracle"
)

const (
	assetETH = types.AssetID("eth")
	assetUSD = types.AssetID("usdc")

	poolAccount    = types.AccountID("loans/pool")
	reserveAccount = types.AccountID("loans/reserves")

	alice = types.AccountID("alice")
	bob   = types.AccountID("bob")
	carol = types.AccountID("carol")
)

type testEnv struct {
	engine *Engine
	state  *MemState
	ledger *assets.MemLedger
	oracle *oracle.ManualOracle
	events *events.Recorder
	now    int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		state:  NewMemState(),
		ledger: assets.NewMemLedger(),
		oracle: oracle.NewManualOracle(24 * time.Hour),
		events: &events.Recorder{},
		now:    1_700_000_000,
	}
	env.oracle.SetClock(func() time.Time { return time.Unix(env.now, 0) })

	engine := NewEngine(poolAccount, reserveAccount)
	engine.SetState(env.state)
	engine.SetLedger(env.ledger)
	engine.SetOracle(env.oracle)
	engine.SetEmitter(env.events)
	engine.SetTimeSource(func() int64 { return env.now })
	env.engine = engine
	return env
}

func (env *testEnv) advance(seconds int64) {
	env.now += seconds
}

// testMarket returns a well-formed pending market: 50% collateral factor,
// 60% loose factor, 10% reserve factor, 50% close factor, 1.1 incentive and
// a 2% / 10% / 32% rate model kinked at 80% utilization.
func testMarket(voucher types.AssetID) *Market {
	return &Market{
		CollateralFactor:                 Ray(1, 2),
		LooseCollateralFactor:            Ray(3, 5),
		ReserveFactor:                    Ray(1, 10),
		CloseFactor:                      Ray(1, 2),
		LiquidateIncentive:               Ray(11, 10),
		LiquidateIncentiveReservedFactor: big.NewInt(0),
		RateModel:                        NewRateModel(Ray(1, 50), Ray(1, 10), Ray(8, 25), Ray(4, 5)),
		State:                            MarketStatePending,
		SupplyCap:                        big.NewInt(1_000_000_000),
		BorrowCap:                        big.NewInt(1_000_000_000),
		VoucherAssetID:                   voucher,
	}
}

func (env *testEnv) addActiveMarket(t *testing.T, asset types.AssetID, market *Market) {
	t.Helper()
	if market == nil {
		market = testMarket(types.AssetID("p" + asset.String()))
	}
	if err := env.engine.AddMarket(asset, market); err != nil {
		t.Fatalf("add market %s: %v", asset, err)
	}
	if err := env.engine.ActivateMarket(asset); err != nil {
		t.Fatalf("activate market %s: %v", asset, err)
	}
	env.oracle.SetPrice(asset, new(big.Int).Set(RateScale))
}

func (env *testEnv) fund(t *testing.T, who types.AccountID, asset types.AssetID, amount int64) {
	t.Helper()
	if err := env.ledger.Mint(asset, who, big.NewInt(amount)); err != nil {
		t.Fatalf("fund %s with %d %s: %v", who, amount, asset, err)
	}
}

func (env *testEnv) supply(t *testing.T, who types.AccountID, asset types.AssetID, amount int64) {
	t.Helper()
	env.fund(t, who, asset, amount)
	if err := env.engine.Mint(who, asset, big.NewInt(amount)); err != nil {
		t.Fatalf("mint %d %s for %s: %v", amount, asset, who, err)
	}
}

func (env *testEnv) supplyCollateral(t *testing.T, who types.AccountID, asset types.AssetID, amount int64) {
	t.Helper()
	env.supply(t, who, asset, amount)
	if err := env.engine.CollateralAsset(who, asset, true); err != nil {
		t.Fatalf("enable collateral %s for %s: %v", asset, who, err)
	}
}

func (env *testEnv) voucherBalance(t *testing.T, who types.AccountID, asset types.AssetID) *big.Int {
	t.Helper()
	deposit, err := env.state.GetDeposit(asset, who)
	if err != nil {
		t.Fatalf("get deposit %s/%s: %v", asset, who, err)
	}
	if deposit == nil {
		return big.NewInt(0)
	}
	return deposit.VoucherBalance
}

func (env *testEnv) stats(t *testing.T, asset types.AssetID) *MarketStats {
	t.Helper()
	stats, err := env.engine.GetMarketStats(asset)
	if err != nil {
		t.Fatalf("get stats %s: %v", asset, err)
	}
	return stats
}

func mustBig(t *testing.T, got *big.Int, want int64, label string) {
	t.Helper()
	if got == nil || got.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("%s = %v, want %d", label, got, want)
	}
}
