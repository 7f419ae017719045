// Package pricing implements the closed-form demand-integral price model.
// Every function here is pure: no shared state, no I/O, no locking. This is
// deliberate — it is the one component in this service that should be
// provable by property tests alone.
package pricing

import "math"

// degenerateLambdaThreshold is the point below which the exponential-decay
// integral is replaced by its linear limit to avoid a near-zero divide.
const degenerateLambdaThreshold = 1e-9

// Revenue computes the definite integral of (env*basePrice)*e^(-|lambda|*x)
// from startN to startN+amount — the exact average price over a quantity
// instead of a discretized per-unit price. It degrades to the linear form
// env*basePrice*amount as |lambda| -> 0, and is always clamped to >= 0 and
// rounded to 2 decimals.
func Revenue(basePrice, env, startN, amount, lambda float64) float64 {
	if !isFinitePositive(amount) || !isFinitePositive(basePrice) || !isFinite(env) || env <= 0 {
		return 0
	}
	if startN < 0 {
		startN = 0
	}

	pMax := env * basePrice
	absLambda := math.Abs(lambda)

	if absLambda < degenerateLambdaThreshold {
		return round2(pMax * amount)
	}

	nEnd := startN + amount
	expStart := math.Exp(-absLambda * startN)
	expEnd := math.Exp(-absLambda * nEnd)
	revenue := (pMax / absLambda) * (expStart - expEnd)

	if !isFinite(revenue) || revenue < 0 {
		return 0
	}
	return round2(revenue)
}

// SellPrice is Revenue priced at the catalog base rate.
func SellPrice(basePrice, env, effectiveN, amount, lambda float64) float64 {
	return Revenue(basePrice, env, effectiveN, amount, lambda)
}

// BuyPrice implements the buy-side asymmetry: buys walk
// left along the demand curve, consuming the discounted stock first; any
// quantity beyond the available effective inventory is priced flat at the
// premium rate because the curve is undefined below zero inventory.
func BuyPrice(basePrice, env, effectiveN, amount, lambda, buyPremium float64) float64 {
	premiumBase := basePrice * buyPremium

	nStart := effectiveN - amount
	if nStart < 0 {
		nStart = 0
	}
	discountQty := effectiveN - nStart
	if discountQty < 0 {
		discountQty = 0
	}
	if discountQty > amount {
		discountQty = amount
	}

	if discountQty < amount {
		discounted := Revenue(premiumBase, env, nStart, discountQty, lambda)
		leftover := amount - discountQty
		flat := leftover * premiumBase * env
		total := discounted + flat
		if !isFinite(total) || total < 0 {
			return 0
		}
		return round2(total)
	}
	return Revenue(premiumBase, env, nStart, amount, lambda)
}

// EffectiveN computes the recovery-weighted sum of historical signed trade
// amounts plus an additive offset, clamped to be non-negative. delta<=0
// means impact never recovers (permanent).
func EffectiveN(history []HistoryPoint, iota, delta, tau float64, nowMs int64) float64 {
	total := 0.0
	for _, p := range history {
		elapsedSecs := float64(nowMs-p.TimestampMs) / 1000.0
		if elapsedSecs < 0 {
			elapsedSecs = 0
		}
		decay := 1.0
		if delta > 0 {
			decay = math.Exp(-delta * (elapsedSecs / tau))
		}
		total += p.Amount * decay
	}
	total += iota
	if total < 0 {
		total = 0
	}
	if !isFinite(total) {
		return math.Max(0, iota)
	}
	return total
}

// HistoryPoint is the minimal shape EffectiveN needs from a sales record,
// decoupling internal/pricing from internal/state's richer SalesRecord.
type HistoryPoint struct {
	TimestampMs int64
	Amount      float64
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isFinitePositive(v float64) bool {
	return isFinite(v) && v > 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
