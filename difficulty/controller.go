// Package difficulty implements the PoIES acceptance-threshold retarget:
// an EMA over observed inter-block intervals, retargeted at fixed epoch
// boundaries with clamped per-epoch change. This is a direct generalization
// of this codebase's original hash-target retarget (floor-division of a
// ratio, then clamp to a bounded multiple of the old value) from a 256-bit
// PoW target to a µ-nat acceptance threshold Θ.
package difficulty

import (
	"math/big"
)

// Config pins the knobs a parameter bundle carries for difficulty
// retargeting. AlphaNumerator/AlphaDenominator express the EMA smoothing
// weight α as a rational in [0.6, 0.98]; ClampDownPct/ClampUpPct bound how
// far a single epoch's retarget may move Θ.
type Config struct {
	// LambdaTargetSeconds is the target inter-block interval.
	LambdaTargetSeconds uint64
	// AlphaNumerator / AlphaDenominator express α, clamped to [0.6, 0.98].
	AlphaNumerator   uint64
	AlphaDenominator uint64
	// ClampDownPct/ClampUpPct bound a single epoch's retarget, e.g. 20 and
	// 15 for -20%/+15%.
	ClampDownPct uint64
	ClampUpPct   uint64
	// EpochBlocks is the fixed block count between retargets.
	EpochBlocks uint64
}

// Validate enforces the invariants this controller depends on: a sane
// target interval, α within its allowed band, and nonzero clamp/epoch
// configuration.
func (c Config) Validate() error {
	if c.LambdaTargetSeconds == 0 {
		return errInvalidConfig("lambda_target_seconds must be > 0")
	}
	if c.AlphaDenominator == 0 || c.AlphaNumerator > c.AlphaDenominator {
		return errInvalidConfig("alpha must be a ratio in [0,1]")
	}
	// alpha in [0.6, 0.98] <=> 60*den <= 100*num <= 98*den
	if 100*c.AlphaNumerator < 60*c.AlphaDenominator || 100*c.AlphaNumerator > 98*c.AlphaDenominator {
		return errInvalidConfig("alpha out of [0.6, 0.98] band")
	}
	if c.ClampDownPct == 0 || c.ClampDownPct >= 100 {
		return errInvalidConfig("clamp_down_pct must be in (0,100)")
	}
	if c.ClampUpPct == 0 {
		return errInvalidConfig("clamp_up_pct must be > 0")
	}
	if c.EpochBlocks == 0 {
		return errInvalidConfig("epoch_blocks must be > 0")
	}
	return nil
}

type errInvalidConfig string

func (e errInvalidConfig) Error() string { return "difficulty: " + string(e) }

// Controller maintains the observed-interval EMA and produces the next
// epoch's Θ. It is a pure function of the sequence of Observe calls fed to
// it along the canonical chain — never of wall-clock time — so two
// independent replicas fed the identical block timestamps converge on
// bit-identical state.
type Controller struct {
	cfg Config
	// lambdaObsMicros is the EMA state, fixed-point scaled by 1e6 seconds
	// so the smoothing update never touches floating point.
	lambdaObsMicros *big.Int
}

const microScale = 1_000_000

// NewController seeds the EMA at the configured target interval, the
// neutral starting point before any observations have been made.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := new(big.Int).SetUint64(cfg.LambdaTargetSeconds * microScale)
	return &Controller{cfg: cfg, lambdaObsMicros: seed}, nil
}

// Observe folds one more observed inter-block interval into the EMA:
//
//	lambda_obs = alpha*interval + (1-alpha)*lambda_obs
//
// carried out in integer micro-second fixed point so the result is
// bit-for-bit reproducible.
func (c *Controller) Observe(intervalSeconds uint64) {
	interval := new(big.Int).SetUint64(intervalSeconds * microScale)
	num := new(big.Int).SetUint64(c.cfg.AlphaNumerator)
	den := new(big.Int).SetUint64(c.cfg.AlphaDenominator)

	weighted := new(big.Int).Mul(interval, num)
	weighted.Div(weighted, den)

	complementNum := new(big.Int).Sub(den, num)
	carried := new(big.Int).Mul(c.lambdaObsMicros, complementNum)
	carried.Div(carried, den)

	c.lambdaObsMicros = new(big.Int).Add(weighted, carried)
}

// LambdaObsSeconds reports the current EMA estimate, truncated to whole
// seconds, for diagnostics and tests.
func (c *Controller) LambdaObsSeconds() uint64 {
	return new(big.Int).Div(c.lambdaObsMicros, big.NewInt(microScale)).Uint64()
}

// Retarget computes Θ' from the current Θ and the accumulated EMA state:
//
//	Θ' = clamp( floor(Θ · λ_target / λ_obs), Θ·(1-clamp_down), Θ·(1+clamp_up) )
//
// f = λ_target/λ_obs is >1 (raising Θ, making acceptance harder) when
// blocks have been arriving faster than target, and <1 (lowering Θ) when
// they have been arriving slower — mirroring the direction of the
// original hash-target retarget but inverted, since here a *higher* Θ
// makes the chain *harder* to extend rather than a smaller target.
func (c *Controller) Retarget(thetaOld *big.Int) (*big.Int, error) {
	if thetaOld == nil || thetaOld.Sign() <= 0 {
		return nil, errInvalidConfig("theta_old must be positive")
	}
	if c.lambdaObsMicros.Sign() <= 0 {
		return nil, errInvalidConfig("lambda_obs must be positive")
	}

	lambdaTargetMicros := new(big.Int).SetUint64(c.cfg.LambdaTargetSeconds * microScale)

	num := new(big.Int).Mul(thetaOld, lambdaTargetMicros)
	thetaNew := new(big.Int).Div(num, c.lambdaObsMicros)

	lower := new(big.Int).Mul(thetaOld, big.NewInt(int64(100-c.cfg.ClampDownPct)))
	lower.Div(lower, big.NewInt(100))
	upper := new(big.Int).Mul(thetaOld, big.NewInt(int64(100+c.cfg.ClampUpPct)))
	upper.Div(upper, big.NewInt(100))

	if thetaNew.Cmp(lower) < 0 {
		thetaNew = lower
	}
	if thetaNew.Cmp(upper) > 0 {
		thetaNew = upper
	}
	return thetaNew, nil
}
