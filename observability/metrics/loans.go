package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"moneymarket/native/loans"
)

// LoansMetrics exposes the lending engine's operational counters and gauges.
// It satisfies the engine's metrics interface; wire it with SetMetrics.
type LoansMetrics struct {
	accruals     *prometheus.CounterVec
	positionOps  *prometheus.CounterVec
	liquidations *prometheus.CounterVec
	borrowRate   *prometheus.GaugeVec
	utilization  *prometheus.GaugeVec
}

var _ loans.Metrics = (*LoansMetrics)(nil)

var (
	loansOnce     sync.Once
	loansRegistry *LoansMetrics
)

// Loans returns the process-wide lending metrics registry.
func Loans() *LoansMetrics {
	loansOnce.Do(func() {
		loansRegistry = &LoansMetrics{
			accruals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loans_accruals_total",
				Help: "Count of interest accrual passes per market asset.",
			}, []string{"asset"}),
			positionOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loans_position_ops_total",
				Help: "Count of successful position operations by kind and asset.",
			}, []string{"op", "asset"}),
			liquidations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loans_liquidations_total",
				Help: "Count of successful liquidations by debt and collateral asset.",
			}, []string{"debt_asset", "collateral_asset"}),
			borrowRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "loans_borrow_rate",
				Help: "Annualized borrow rate per market at the last accrual, scaled to [0,1].",
			}, []string{"asset"}),
			utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "loans_utilization_ratio",
				Help: "Utilization ratio per market at the last accrual, scaled to [0,1].",
			}, []string{"asset"}),
		}
		prometheus.MustRegister(
			loansRegistry.accruals,
			loansRegistry.positionOps,
			loansRegistry.liquidations,
			loansRegistry.borrowRate,
			loansRegistry.utilization,
		)
	})
	return loansRegistry
}

// MarketAccrued counts an accrual pass for the asset.
func (m *LoansMetrics) MarketAccrued(asset string) {
	if m == nil {
		return
	}
	if asset == "" {
		asset = "unknown"
	}
	m.accruals.WithLabelValues(asset).Inc()
}

// PositionChanged counts a successful position operation.
func (m *LoansMetrics) PositionChanged(op, asset string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if asset == "" {
		asset = "unknown"
	}
	m.positionOps.WithLabelValues(op, asset).Inc()
}

// LiquidationRecorded counts a successful liquidation.
func (m *LoansMetrics) LiquidationRecorded(debtAsset, collateralAsset string) {
	if m == nil {
		return
	}
	if debtAsset == "" {
		debtAsset = "unknown"
	}
	if collateralAsset == "" {
		collateralAsset = "unknown"
	}
	m.liquidations.WithLabelValues(debtAsset, collateralAsset).Inc()
}

// MarketRatesUpdated publishes the post-accrual borrow rate and utilization,
// downscaled from ray fixed-point to plain [0,1] floats.
func (m *LoansMetrics) MarketRatesUpdated(asset string, borrowRate, utilization *big.Int) {
	if m == nil {
		return
	}
	if asset == "" {
		asset = "unknown"
	}
	m.borrowRate.WithLabelValues(asset).Set(rayFloat(borrowRate))
	m.utilization.WithLabelValues(asset).Set(rayFloat(utilization))
}

func rayFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), new(big.Float).SetInt(loans.RateScale)).Float64()
	return f
}
