package config

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"moneymarket/core/types"
	"moneymarket/native/common"
	"moneymarket/native/loans"

	"github.com/BurntSushi/toml"
)

// Config is the en-bloc runtime configuration. Factors and rates are given in
// basis points; caps are decimal strings in underlying base units so very
// large supplies survive the TOML round trip.
type Config struct {
	DataDir             string   `toml:"DataDir"`
	PoolAccount         string   `toml:"PoolAccount"`
	ReservesAccount     string   `toml:"ReservesAccount"`
	OracleMaxAgeSeconds int64    `toml:"OracleMaxAgeSeconds"`
	PausedModules       []string `toml:"PausedModules"`

	Markets map[string]MarketConfig `toml:"markets"`
}

// Pauses converts the paused-module list into the switch view the engine's
// guard consumes.
func (c *Config) Pauses() common.StaticPauses {
	pauses := make(common.StaticPauses, len(c.PausedModules))
	for _, module := range c.PausedModules {
		module = strings.TrimSpace(module)
		if module != "" {
			pauses[module] = true
		}
	}
	return pauses
}

// MarketConfig is the declarative form of one market's parameters.
type MarketConfig struct {
	CollateralFactorBps                 uint64 `toml:"CollateralFactorBps"`
	LooseCollateralFactorBps            uint64 `toml:"LooseCollateralFactorBps"`
	ReserveFactorBps                    uint64 `toml:"ReserveFactorBps"`
	CloseFactorBps                      uint64 `toml:"CloseFactorBps"`
	LiquidateIncentiveBps               uint64 `toml:"LiquidateIncentiveBps"`
	LiquidateIncentiveReservedFactorBps uint64 `toml:"LiquidateIncentiveReservedFactorBps"`

	BaseRateBps uint64 `toml:"BaseRateBps"`
	JumpRateBps uint64 `toml:"JumpRateBps"`
	FullRateBps uint64 `toml:"FullRateBps"`
	KinkBps     uint64 `toml:"KinkBps"`

	SupplyCap    string `toml:"SupplyCap"`
	BorrowCap    string `toml:"BorrowCap"`
	VoucherAsset string `toml:"VoucherAsset"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0])
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.PoolAccount) == "" {
		c.PoolAccount = "loans/pool"
	}
	if strings.TrimSpace(c.ReservesAccount) == "" {
		c.ReservesAccount = "loans/reserves"
	}
	if c.OracleMaxAgeSeconds == 0 {
		c.OracleMaxAgeSeconds = 300
	}
	if c.Markets == nil {
		c.Markets = map[string]MarketConfig{}
	}
}

// Validate checks account wiring and every declared market.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.PoolAccount) == "" || strings.TrimSpace(c.ReservesAccount) == "" {
		return fmt.Errorf("config: pool and reserves accounts must be set")
	}
	if c.PoolAccount == c.ReservesAccount {
		return fmt.Errorf("config: pool and reserves accounts must differ")
	}
	if c.OracleMaxAgeSeconds <= 0 {
		return fmt.Errorf("config: OracleMaxAgeSeconds must be positive")
	}
	for _, asset := range c.MarketAssets() {
		market, err := c.Markets[asset].Market()
		if err != nil {
			return fmt.Errorf("config: market %s: %w", asset, err)
		}
		if err := loans.ValidateMarketParams(market); err != nil {
			return fmt.Errorf("config: market %s: %w", asset, err)
		}
	}
	return nil
}

// MarketAssets lists the configured market assets in sorted order.
func (c *Config) MarketAssets() []string {
	assets := make([]string, 0, len(c.Markets))
	for asset := range c.Markets {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}

func parseCap(name, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("%s must be a non-negative decimal, got %q", name, value)
	}
	return parsed, nil
}

// Market converts the declarative form into engine parameters. The returned
// market is in the pending state; activation is a separate admin step.
func (m MarketConfig) Market() (*loans.Market, error) {
	supplyCap, err := parseCap("SupplyCap", m.SupplyCap)
	if err != nil {
		return nil, err
	}
	borrowCap, err := parseCap("BorrowCap", m.BorrowCap)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(m.VoucherAsset) == "" {
		return nil, fmt.Errorf("VoucherAsset must be set")
	}
	return &loans.Market{
		CollateralFactor:                 loans.RayFromBps(m.CollateralFactorBps),
		LooseCollateralFactor:            loans.RayFromBps(m.LooseCollateralFactorBps),
		ReserveFactor:                    loans.RayFromBps(m.ReserveFactorBps),
		CloseFactor:                      loans.RayFromBps(m.CloseFactorBps),
		LiquidateIncentive:               loans.RayFromBps(m.LiquidateIncentiveBps),
		LiquidateIncentiveReservedFactor: loans.RayFromBps(m.LiquidateIncentiveReservedFactorBps),
		RateModel: loans.NewRateModel(
			loans.RayFromBps(m.BaseRateBps),
			loans.RayFromBps(m.JumpRateBps),
			loans.RayFromBps(m.FullRateBps),
			loans.RayFromBps(m.KinkBps),
		),
		State:          loans.MarketStatePending,
		SupplyCap:      supplyCap,
		BorrowCap:      borrowCap,
		VoucherAssetID: types.AssetID(m.VoucherAsset),
	}, nil
}
