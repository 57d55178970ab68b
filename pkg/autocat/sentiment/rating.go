package sentiment

// NormalizeRating maps a rating from its declared scale onto [-2, +2]
// linearly: the scale midpoint maps to 0, the maximum to +2, the minimum
// to -2. Higher ratings mean satisfaction, so "negative" is anything
// below the midpoint. Ratings outside the declared scale are clamped.
func NormalizeRating(rating, scaleMin, scaleMax float64) float64 {
	if scaleMax <= scaleMin {
		return 0
	}
	if rating < scaleMin {
		rating = scaleMin
	}
	if rating > scaleMax {
		rating = scaleMax
	}
	mid := (scaleMin + scaleMax) / 2
	halfSpan := (scaleMax - scaleMin) / 2
	return 2 * (rating - mid) / halfSpan
}
