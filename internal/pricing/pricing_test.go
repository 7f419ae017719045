package pricing

import (
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// S1: linear limit.
func TestRevenue_LinearLimit(t *testing.T) {
	got := Revenue(100, 1, 0, 5, 0)
	if got != 500.00 {
		t.Fatalf("Revenue = %v, want 500.00", got)
	}
}

// S2: integral sell.
func TestRevenue_IntegralSell(t *testing.T) {
	got := SellPrice(100, 1, 0, 10, 0.1)
	want := (100.0 / 0.1) * (1 - math.Exp(-1))
	want = math.Round(want*100) / 100
	if got != want {
		t.Fatalf("SellPrice = %v, want %v", got, want)
	}
	if !approxEqual(got, 632.12, 0.01) {
		t.Fatalf("SellPrice = %v, want ~632.12", got)
	}
}

// S3: buy asymmetry.
func TestBuyPrice_Asymmetry(t *testing.T) {
	got := BuyPrice(100, 1, 4, 10, 0.1, 1.25)
	discounted := Revenue(125, 1, 0, 4, 0.1)
	flat := 6 * 125 * 1.0
	want := math.Round((discounted+flat)*100) / 100
	if got != want {
		t.Fatalf("BuyPrice = %v, want %v", got, want)
	}
}

func TestBuyPrice_FullyWithinInventory(t *testing.T) {
	// n_eff large enough that the whole purchase is discounted.
	got := BuyPrice(100, 1, 20, 5, 0.1, 1.25)
	want := Revenue(125, 1, 15, 5, 0.1)
	if got != want {
		t.Fatalf("BuyPrice = %v, want %v", got, want)
	}
}

func TestBuyPrice_FromZeroInventory(t *testing.T) {
	got := BuyPrice(100, 1, 0, 10, 0.1, 1.25)
	want := 10 * 125 * 1.0
	if got != want {
		t.Fatalf("BuyPrice = %v, want %v", got, want)
	}
}

// S4: recovery.
func TestEffectiveN_Recovery(t *testing.T) {
	delta := math.Ln2
	tau := 3600.0
	now := int64(3_600_000) // ms
	history := []HistoryPoint{{TimestampMs: 0, Amount: 10}}
	got := EffectiveN(history, 0, delta, tau, now)
	if !approxEqual(got, 5.0, 1e-6) {
		t.Fatalf("EffectiveN = %v, want ~5.0", got)
	}
}

func TestEffectiveN_NoRecoveryWhenDeltaZero(t *testing.T) {
	history := []HistoryPoint{{TimestampMs: 0, Amount: 10}}
	got := EffectiveN(history, 0, 0, 3600, 999_999_999)
	if got != 10 {
		t.Fatalf("EffectiveN = %v, want 10 (no decay)", got)
	}
}

func TestEffectiveN_ClampedNonNegative(t *testing.T) {
	history := []HistoryPoint{{TimestampMs: 0, Amount: -50}}
	got := EffectiveN(history, 0, 0, 3600, 0)
	if got != 0 {
		t.Fatalf("EffectiveN = %v, want 0 (clamped)", got)
	}
}

func TestEffectiveN_EmptyHistoryReturnsIota(t *testing.T) {
	got := EffectiveN(nil, 3, 0, 3600, 0)
	if got != 3 {
		t.Fatalf("EffectiveN = %v, want 3", got)
	}
}

// Property 1: bounds.
func TestRevenue_BoundsProperty(t *testing.T) {
	cases := []struct {
		base, amount, lambda, n1, env float64
	}{
		{100, 5, 1e-9, 0, 1},
		{50, 100, 10, 0, 2},
		{10, 1, 0.001, 50, 0.5},
		{1000, 0.5, 5, 3, 1.5},
	}
	for _, c := range cases {
		got := Revenue(c.base, c.env, c.n1, c.amount, c.lambda)
		if got < 0 {
			t.Fatalf("Revenue(%v) = %v, want >= 0", c, got)
		}
		upper := c.env * c.base * c.amount
		if got > upper+1e-6 {
			t.Fatalf("Revenue(%v) = %v, want <= %v", c, got, upper)
		}
	}
}

// Property 2: additivity over the integration interval.
func TestRevenue_Additivity(t *testing.T) {
	base, env, lambda := 100.0, 1.2, 0.3
	n1, d1, d2 := 2.0, 3.0, 4.0
	left := Revenue(base, env, n1, d1, lambda) + Revenue(base, env, n1+d1, d2, lambda)
	whole := Revenue(base, env, n1, d1+d2, lambda)
	if !approxEqual(left, whole, 1e-2) {
		// rounding to 2dp on each side can accumulate up to ~1 cent per term
		t.Fatalf("additivity: left=%v whole=%v", left, whole)
	}
}

// Property 3: continuity as lambda -> 0.
func TestRevenue_ContinuousAtZeroLambda(t *testing.T) {
	base, env, n1, amount := 100.0, 1.0, 0.0, 10.0
	small := Revenue(base, env, n1, amount, 1e-8)
	linear := env * base * amount
	if !approxEqual(small, linear, 0.5) {
		t.Fatalf("Revenue near-zero lambda = %v, want close to linear %v", small, linear)
	}
}
