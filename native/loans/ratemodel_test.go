package loans

import (
	"errors"
	"math/big"
	"testing"
)

func TestUtilizationZeroWithoutBorrows(t *testing.T) {
	util, err := UtilizationRatio(big.NewInt(1_000_000), big.NewInt(0), big.NewInt(0))
	if err != nil {
		t.Fatalf("utilization: %v", err)
	}
	if util.Sign() != 0 {
		t.Fatalf("utilization = %s, want 0", util)
	}

	util, err = UtilizationRatio(nil, nil, nil)
	if err != nil {
		t.Fatalf("utilization with nils: %v", err)
	}
	if util.Sign() != 0 {
		t.Fatalf("utilization with nils = %s, want 0", util)
	}
}

func TestUtilizationHalf(t *testing.T) {
	util, err := UtilizationRatio(big.NewInt(500), big.NewInt(500), big.NewInt(0))
	if err != nil {
		t.Fatalf("utilization: %v", err)
	}
	if util.Cmp(Ray(1, 2)) != 0 {
		t.Fatalf("utilization = %s, want %s", util, Ray(1, 2))
	}
}

func TestBorrowRateContinuousAtKink(t *testing.T) {
	model := NewRateModel(Ray(1, 50), Ray(1, 10), Ray(8, 25), Ray(4, 5))
	atKink, err := model.BorrowRate(Ray(4, 5))
	if err != nil {
		t.Fatalf("rate at kink: %v", err)
	}
	if atKink.Cmp(model.JumpRate) != 0 {
		t.Fatalf("rate at kink = %s, want jump rate %s", atKink, model.JumpRate)
	}
}

func TestBorrowRateEndpoints(t *testing.T) {
	model := NewRateModel(Ray(1, 50), Ray(1, 10), Ray(8, 25), Ray(4, 5))
	atZero, err := model.BorrowRate(big.NewInt(0))
	if err != nil {
		t.Fatalf("rate at zero: %v", err)
	}
	if atZero.Cmp(model.BaseRate) != 0 {
		t.Fatalf("rate at zero = %s, want base %s", atZero, model.BaseRate)
	}
	atFull, err := model.BorrowRate(new(big.Int).Set(RateScale))
	if err != nil {
		t.Fatalf("rate at full: %v", err)
	}
	if atFull.Cmp(model.FullRate) != 0 {
		t.Fatalf("rate at full = %s, want full %s", atFull, model.FullRate)
	}
}

func TestBorrowRateMonotonic(t *testing.T) {
	model := NewRateModel(Ray(1, 50), Ray(1, 10), Ray(8, 25), Ray(4, 5))
	prev := big.NewInt(-1)
	for pct := int64(0); pct <= 100; pct += 5 {
		rate, err := model.BorrowRate(Ray(pct, 100))
		if err != nil {
			t.Fatalf("rate at %d%%: %v", pct, err)
		}
		if rate.Cmp(prev) < 0 {
			t.Fatalf("rate decreased at %d%% utilization: %s < %s", pct, rate, prev)
		}
		prev = rate
	}
}

func TestSupplyRateBelowBorrowRate(t *testing.T) {
	model := NewRateModel(Ray(1, 50), Ray(1, 10), Ray(8, 25), Ray(4, 5))
	util := Ray(1, 2)
	borrowRate, err := model.BorrowRate(util)
	if err != nil {
		t.Fatalf("borrow rate: %v", err)
	}
	supplyRate, err := SupplyRate(borrowRate, util, Ray(1, 10))
	if err != nil {
		t.Fatalf("supply rate: %v", err)
	}
	// 7% borrow rate, 10% reserve factor, 50% utilization: 3.15% supply.
	want := Ray(315, 10_000)
	if supplyRate.Cmp(want) != 0 {
		t.Fatalf("supply rate = %s, want %s", supplyRate, want)
	}
}

func TestRateModelValidate(t *testing.T) {
	cases := []struct {
		name  string
		model RateModel
	}{
		{"base above jump", NewRateModel(Ray(1, 5), Ray(1, 10), Ray(8, 25), Ray(4, 5))},
		{"jump above full", NewRateModel(Ray(1, 50), Ray(8, 25), Ray(1, 10), Ray(4, 5))},
		{"full above cap", NewRateModel(Ray(1, 50), Ray(1, 10), Ray(1, 2), Ray(4, 5))},
		{"zero kink", NewRateModel(Ray(1, 50), Ray(1, 10), Ray(8, 25), big.NewInt(0))},
		{"kink above one", NewRateModel(Ray(1, 50), Ray(1, 10), Ray(8, 25), Ray(3, 2))},
	}
	for _, tc := range cases {
		if err := tc.model.Validate(); !errors.Is(err, ErrInvalidRateModelParam) {
			t.Fatalf("%s: err = %v, want ErrInvalidRateModelParam", tc.name, err)
		}
	}
	valid := NewRateModel(Ray(1, 50), Ray(1, 10), Ray(8, 25), Ray(4, 5))
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid model rejected: %v", err)
	}
}
