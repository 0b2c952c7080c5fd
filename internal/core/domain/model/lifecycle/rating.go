package lifecycle

import (
	"errors"
	"strings"
	"unicode/utf8"

	"partner/internal/pkg/errs"
	"partner/internal/pkg/guard"
)

const (
	MinStars        = 1
	MaxStars        = 5
	MaxReviewLength = 500
)

var ErrRatingIsNotConstructed = errors.New("Rating must be created via NewRating constructor")

// Rating is the partner's 1–5 star score for a finished delivery plus an optional
// free-text review.
type Rating struct {
	stars  int
	review string
	guard  guard.ConstructorGuard
}

func NewRating(stars int, review string) (Rating, error) {
	if stars < MinStars || stars > MaxStars {
		return Rating{}, errs.NewValueIsOutOfRangeError("stars", stars, MinStars, MaxStars)
	}
	review = strings.TrimSpace(review)
	if n := utf8.RuneCountInString(review); n > MaxReviewLength {
		return Rating{}, errs.NewValueIsOutOfRangeError("review length", n, 0, MaxReviewLength)
	}
	return Rating{stars: stars, review: review, guard: guard.NewConstructorGuard()}, nil
}

func (r Rating) Validate() error {
	return r.guard.Validate(ErrRatingIsNotConstructed)
}

func (r Rating) Stars() int {
	return r.stars
}

func (r Rating) Review() string {
	return r.review
}
