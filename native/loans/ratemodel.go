package loans

import "math/big"

// RateModel is the jump interest rate model: a straight line from BaseRate at
// zero utilization to JumpRate at the kink, then a steeper line up to
// FullRate at 100% utilization. Both segments meet at the kink, so the borrow
// rate is continuous and non-decreasing over the whole range.
type RateModel struct {
	// BaseRate is the annualized borrow rate at zero utilization.
	BaseRate *big.Int
	// JumpRate is the annualized borrow rate at the kink.
	JumpRate *big.Int
	// FullRate is the annualized borrow rate at full utilization.
	FullRate *big.Int
	// JumpUtilization is the kink point, in RateScale precision.
	JumpUtilization *big.Int
}

// NewRateModel builds a jump model from annualized ray rates.
func NewRateModel(base, jump, full, kink *big.Int) RateModel {
	return RateModel{
		BaseRate:        cloneBig(base),
		JumpRate:        cloneBig(jump),
		FullRate:        cloneBig(full),
		JumpUtilization: cloneBig(kink),
	}
}

// Clone returns a deep copy of the model.
func (m RateModel) Clone() RateModel {
	return NewRateModel(m.BaseRate, m.JumpRate, m.FullRate, m.JumpUtilization)
}

// Validate checks the model for sanity: rates must be ordered
// base <= jump <= full, every rate must stay under MaxRatePerYear, and the
// kink must lie strictly inside (0, 1].
func (m RateModel) Validate() error {
	if m.BaseRate == nil || m.JumpRate == nil || m.FullRate == nil || m.JumpUtilization == nil {
		return ErrInvalidRateModelParam
	}
	if m.BaseRate.Sign() < 0 || m.BaseRate.Cmp(m.JumpRate) > 0 || m.JumpRate.Cmp(m.FullRate) > 0 {
		return ErrInvalidRateModelParam
	}
	if m.FullRate.Cmp(MaxRatePerYear) > 0 {
		return ErrInvalidRateModelParam
	}
	if m.JumpUtilization.Sign() <= 0 || m.JumpUtilization.Cmp(RateScale) > 0 {
		return ErrInvalidRateModelParam
	}
	return nil
}

// UtilizationRatio computes borrows / (cash + borrows - reserves) in ray
// precision. Utilization is defined as zero when nothing is borrowed.
func UtilizationRatio(cash, borrows, reserves *big.Int) (*big.Int, error) {
	if borrows == nil || borrows.Sign() == 0 {
		return bigZero(), nil
	}
	total := new(big.Int).Add(cloneBig(cash), borrows)
	total, err := checkedSub(total, cloneBig(reserves))
	if err != nil {
		return nil, err
	}
	return rayDiv(borrows, total)
}

// BorrowRate returns the annualized borrow rate at the given utilization.
//
// Below the kink: base + (jump - base) * u / kink.
// Above it: jump + (full - jump) * (u - kink) / (1 - kink).
func (m RateModel) BorrowRate(util *big.Int) (*big.Int, error) {
	u := cloneBig(util)
	if u.Cmp(m.JumpUtilization) <= 0 {
		slope, err := checkedSub(m.JumpRate, m.BaseRate)
		if err != nil {
			return nil, err
		}
		extra, err := mulDiv(slope, u, m.JumpUtilization)
		if err != nil {
			return nil, err
		}
		return extra.Add(extra, m.BaseRate), nil
	}
	slope, err := checkedSub(m.FullRate, m.JumpRate)
	if err != nil {
		return nil, err
	}
	excess, err := checkedSub(u, m.JumpUtilization)
	if err != nil {
		return nil, err
	}
	room, err := checkedSub(RateScale, m.JumpUtilization)
	if err != nil {
		return nil, err
	}
	extra, err := mulDiv(slope, excess, room)
	if err != nil {
		return nil, err
	}
	return extra.Add(extra, m.JumpRate), nil
}

// SupplyRate derives the annualized supply rate:
// borrowRate * (1 - reserveFactor) * utilization.
func SupplyRate(borrowRate, util, reserveFactor *big.Int) (*big.Int, error) {
	oneMinus, err := checkedSub(RateScale, cloneBig(reserveFactor))
	if err != nil {
		return nil, err
	}
	toPool := rayMul(cloneBig(borrowRate), oneMinus)
	return rayMul(toPool, cloneBig(util)), nil
}
