package loans

import "math/big"

// All fixed-point values carry RateScale (1e18) precision. Division floors,
// which keeps every user-visible balance conservative for the pool.

func rayMul(a, b *big.Int) *big.Int {
	if a == nil || b == nil {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, RateScale)
}

func rayDiv(a, b *big.Int) (*big.Int, error) {
	if a == nil || b == nil || b.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	numerator := new(big.Int).Mul(a, RateScale)
	return numerator.Quo(numerator, b), nil
}

// mulDiv computes floor(a * b / divisor) with a zero-divisor check.
func mulDiv(a, b, divisor *big.Int) (*big.Int, error) {
	if a == nil || b == nil {
		return big.NewInt(0), nil
	}
	if divisor == nil || divisor.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, divisor), nil
}

func checkedSub(a, b *big.Int) (*big.Int, error) {
	if a == nil || b == nil {
		return nil, ErrUnderflow
	}
	if a.Cmp(b) < 0 {
		return nil, ErrUnderflow
	}
	return new(big.Int).Sub(a, b), nil
}

// saturatingSub clamps at zero instead of failing; used where rounding drift
// in global counters must never abort a repayment.
func saturatingSub(a, b *big.Int) *big.Int {
	if a == nil {
		return big.NewInt(0)
	}
	if b == nil {
		return new(big.Int).Set(a)
	}
	if a.Cmp(b) < 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Sub(a, b)
}

func bigZero() *big.Int { return big.NewInt(0) }

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// Ray converts a rational p/q into RateScale fixed point, flooring.
func Ray(p, q int64) *big.Int {
	num := new(big.Int).Mul(big.NewInt(p), RateScale)
	return num.Quo(num, big.NewInt(q))
}

// RayFromBps converts basis points into RateScale fixed point.
func RayFromBps(bps uint64) *big.Int {
	num := new(big.Int).Mul(new(big.Int).SetUint64(bps), RateScale)
	return num.Quo(num, big.NewInt(10_000))
}
