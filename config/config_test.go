package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"moneymarket/native/loans"
)

const sampleConfig = `
DataDir = "./data"
PoolAccount = "loans/pool"
ReservesAccount = "loans/reserves"
OracleMaxAgeSeconds = 600
PausedModules = ["loans"]

[markets.eth]
CollateralFactorBps = 5000
LooseCollateralFactorBps = 6000
ReserveFactorBps = 1000
CloseFactorBps = 5000
LiquidateIncentiveBps = 11000
LiquidateIncentiveReservedFactorBps = 500
BaseRateBps = 200
JumpRateBps = 1000
FullRateBps = 3200
KinkBps = 8000
SupplyCap = "1000000000000000000000"
BorrowCap = "500000000000000000000"
VoucherAsset = "peth"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loans.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.Equal(t, "loans/pool", cfg.PoolAccount)
	require.Equal(t, int64(600), cfg.OracleMaxAgeSeconds)
	require.Equal(t, []string{"eth"}, cfg.MarketAssets())
	require.True(t, cfg.Pauses().IsPaused("loans"))
	require.False(t, cfg.Pauses().IsPaused("swap"))

	market, err := cfg.Markets["eth"].Market()
	require.NoError(t, err)
	require.Equal(t, loans.MarketStatePending, market.State)
	require.Equal(t, 0, market.CollateralFactor.Cmp(loans.Ray(1, 2)))
	require.Equal(t, 0, market.LiquidateIncentive.Cmp(loans.Ray(11, 10)))
	require.Equal(t, 0, market.RateModel.JumpUtilization.Cmp(loans.Ray(4, 5)))
	require.NoError(t, loans.ValidateMarketParams(market))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, "loans/pool", cfg.PoolAccount)
	require.Equal(t, "loans/reserves", cfg.ReservesAccount)
	require.Equal(t, int64(300), cfg.OracleMaxAgeSeconds)
	require.Empty(t, cfg.Markets)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	_, err := Load(writeConfig(t, "Bogus = true\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestLoadRejectsSharedAccounts(t *testing.T) {
	_, err := Load(writeConfig(t, "PoolAccount = \"x\"\nReservesAccount = \"x\"\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "must differ")
}

func TestLoadRejectsBadMarket(t *testing.T) {
	body := sampleConfig + "\n[markets.usdc]\nVoucherAsset = \"pusdc\"\nSupplyCap = \"10\"\nBorrowCap = \"5\"\n"
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)
	require.Contains(t, err.Error(), "market usdc")
}

func TestMarketConfigCapParsing(t *testing.T) {
	mc := MarketConfig{VoucherAsset: "peth", SupplyCap: "not-a-number"}
	_, err := mc.Market()
	require.Error(t, err)

	mc = MarketConfig{VoucherAsset: "peth", SupplyCap: "-5"}
	_, err = mc.Market()
	require.Error(t, err)

	mc = MarketConfig{SupplyCap: "10"}
	_, err = mc.Market()
	require.Error(t, err, "missing voucher asset")
}
