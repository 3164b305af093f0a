package workflow

const (
	MinRating = 1
	MaxRating = 5
)

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return Validation("Review", "rating must be between %d and %d, got %d", MinRating, MaxRating, rating)
	}
	return nil
}

// The running average is only ever moved by these recurrences, never
// recomputed from the stored reviews, so any float drift carries forward.

// RatingAfterCreate folds a new rating into the average. n is the number of
// reviews before the new one.
func RatingAfterCreate(current *float64, n int64, rating int) float64 {
	prev := 0.0
	if current != nil {
		prev = *current
	}
	return (prev*float64(n) + float64(rating)) / float64(n+1)
}

// RatingAfterEdit swaps one rating for another. n is the review count, which
// an edit does not change.
func RatingAfterEdit(current *float64, n int64, oldRating, newRating int) *float64 {
	if n <= 0 {
		return current
	}
	prev := 0.0
	if current != nil {
		prev = *current
	}
	v := (prev*float64(n) - float64(oldRating) + float64(newRating)) / float64(n)
	return &v
}

// RatingAfterDelete drops a rating from the average. n is the count before
// removal; removing the last review clears the average.
func RatingAfterDelete(current *float64, n int64, rating int) *float64 {
	if n <= 1 {
		return nil
	}
	prev := 0.0
	if current != nil {
		prev = *current
	}
	v := (prev*float64(n) - float64(rating)) / float64(n-1)
	return &v
}
