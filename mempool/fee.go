package mempool

import (
	"math/big"

	"animica.dev/node/policy"
)

// FeeFloor tracks the dynamic economic floor: an EMA of recently-included
// effective fees, with a surge multiplier activated once pool utilization
// crosses a threshold. The EMA itself is carried in math/big, the same
// discipline the difficulty controller's lambda_obs EMA uses, so the floor
// a block producer computes and the floor a validating peer recomputes
// never diverge due to floating point rounding.
type FeeFloor struct {
	cfg      policy.FeeMarket
	emaFee   *big.Int // EMA of effective fee, exact integer
}

// NewFeeFloor starts the EMA at the given seed (e.g. a governance-set
// minimum, or the last epoch's closing value on restart).
func NewFeeFloor(cfg policy.FeeMarket, seedFee uint64) *FeeFloor {
	return &FeeFloor{cfg: cfg, emaFee: new(big.Int).SetUint64(seedFee)}
}

// Observe folds one newly-included entry's effective fee into the EMA:
// ema' = ema + (fee - ema) * alpha_num / alpha_den.
func (f *FeeFloor) Observe(effectiveFee uint64) {
	fee := new(big.Int).SetUint64(effectiveFee)
	delta := new(big.Int).Sub(fee, f.emaFee)
	delta.Mul(delta, new(big.Int).SetUint64(f.cfg.EMAAlphaNumerator))
	delta.Quo(delta, new(big.Int).SetUint64(f.cfg.EMAAlphaDenominator))
	f.emaFee.Add(f.emaFee, delta)
	if f.emaFee.Sign() < 0 {
		f.emaFee.SetUint64(0)
	}
}

// MinFee returns the current admission floor given pool utilization
// (0..100). Utilization at or above the configured threshold activates the
// surge multiplier.
func (f *FeeFloor) MinFee(utilizationPct uint64) uint64 {
	floor := new(big.Int).Set(f.emaFee)
	if utilizationPct >= f.cfg.SurgeThresholdPct {
		floor.Mul(floor, new(big.Int).SetUint64(f.cfg.SurgeMultiplierPct))
		floor.Quo(floor, big.NewInt(100))
	}
	return floor.Uint64()
}

// ReplacementFloor returns the minimum effective fee a replacement for
// priorFee must meet: priorFee * (1 + bump_pct/100).
func (f *FeeFloor) ReplacementFloor(priorFee uint64) uint64 {
	bumped := new(big.Int).SetUint64(priorFee)
	bumped.Mul(bumped, big.NewInt(int64(100+f.cfg.BumpPct)))
	bumped.Quo(bumped, big.NewInt(100))
	return bumped.Uint64()
}
