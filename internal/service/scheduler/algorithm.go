package scheduler

import (
	"math"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// ln09 is ln(0.9), the log of the reference retention the forgetting
// curve is normalized to.
var ln09 = math.Log(0.9)

// Retrievability is the probability of recall after elapsed days under
// the exponential forgetting curve:
//
//	R(t, S) = 0.9^(t/S)
func Retrievability(elapsedDays float64, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	return math.Exp(ln09 * elapsedDays / stability)
}

// NextInterval converts stability and target retention to a review
// interval in days:
//
//	I(S, r) = round(S * ln(r) / ln(0.9))
//
// clamped to at least 1 day.
func NextInterval(stability, requestRetention float64) int {
	if requestRetention <= 0 || requestRetention >= 1 {
		return 1
	}
	interval := stability * math.Log(requestRetention) / ln09
	return max(1, int(math.Round(interval)))
}

// InitialStability is the starting stability for a first rating.
//
//	S0(r) = w[r]
func InitialStability(w []float64, rating domain.Rating) float64 {
	idx := int(rating)
	if idx < 0 || idx > 3 {
		idx = int(domain.RatingGood)
	}
	return math.Max(MinStability, w[idx])
}

// InitialDifficulty is the starting difficulty for a first rating,
// clamped to [1, 10]:
//
//	D0(r) = w4 - exp(w5 * r) + 1
func InitialDifficulty(w []float64, rating domain.Rating) float64 {
	d := w[4] - math.Exp(w[5]*float64(rating)) + 1
	return clampDifficulty(d)
}

// NextDifficulty updates difficulty after a review, with mean reversion
// toward D0(Easy) so difficulty cannot drift to a rail:
//
//	D'(D, r) = w7 * D0(Easy) + (1 - w7) * (D - w6 * (r - 2))
func NextDifficulty(w []float64, d float64, rating domain.Rating) float64 {
	d0Easy := InitialDifficulty(w, domain.RatingEasy)
	newD := w[7]*d0Easy + (1-w[7])*(d-w[6]*(float64(rating)-2))
	return clampDifficulty(newD)
}

// StabilityAfterRecall is the post-review stability for Hard/Good/Easy:
//
//	S'(S, D, R, r) = S * (exp(w8) * (11-D) * S^(-w9) * (exp(w10*(1-R)) - 1) * hp * eb + 1)
//
// where hp = w15 for Hard and eb = w16 for Easy.
func StabilityAfterRecall(w []float64, s, d, r float64, rating domain.Rating) float64 {
	hardPenalty := 1.0
	if rating == domain.RatingHard {
		hardPenalty = w[15]
	}
	easyBonus := 1.0
	if rating == domain.RatingEasy {
		easyBonus = w[16]
	}

	newS := s * (math.Exp(w[8])*
		(11-d)*
		math.Pow(s, -w[9])*
		(math.Exp(w[10]*(1-r))-1)*
		hardPenalty*
		easyBonus + 1)

	return math.Max(MinStability, newS)
}

// StabilityAfterForgetting is the post-lapse stability:
//
//	S'f(S, D, R) = w11 * D^(-w12) * ((S+1)^w13 - 1) * exp(w14*(1-R))
func StabilityAfterForgetting(w []float64, s, d, r float64) float64 {
	newS := w[11] *
		math.Pow(d, -w[12]) *
		(math.Pow(s+1, w[13]) - 1) *
		math.Exp(w[14]*(1-r))
	return math.Max(MinStability, newS)
}

// StabilityAfterForgettingCapped caps the post-lapse stability so a lapse
// always damps it relative to the pre-lapse value:
//
//	newS = min(S / exp(w20), S'f)
func StabilityAfterForgettingCapped(w []float64, s, d, r float64) float64 {
	sMin := s / math.Exp(w[20])
	sf := StabilityAfterForgetting(w, s, d, r)
	return math.Max(MinStability, math.Min(sMin, sf))
}

// ShortTermStability updates stability for sub-day reviews in the
// learning phases. Growth is damped for already-stable cards:
//
//	S'(S, r) = S * exp(w17 * (r - 2 + w18) * S^(-w19))
func ShortTermStability(w []float64, s float64, rating domain.Rating) float64 {
	if s <= 0 {
		s = MinStability
	}
	exponent := w[17] * (float64(rating) - 2 + w[18]) * math.Pow(s, -w[19])
	return math.Max(MinStability, s*math.Exp(exponent))
}

func clampDifficulty(d float64) float64 {
	return math.Max(1, math.Min(10, d))
}
