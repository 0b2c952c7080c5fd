package commands

import (
	"errors"

	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/pkg/guard"
)

var ErrSubmitRatingCommandIsNotConstructed = errors.New(
	"SubmitRatingCommand must be created via NewSubmitRatingCommand constructor",
)

// SubmitRatingCommand rates the delivered order: 1 to 5 stars and an optional review.
type SubmitRatingCommand struct { //nolint:recvcheck //using for validation
	rating lifecycle.Rating

	guard guard.ConstructorGuard
}

func NewSubmitRatingCommand(stars int, review string) (SubmitRatingCommand, error) {
	r, err := lifecycle.NewRating(stars, review)
	if err != nil {
		return SubmitRatingCommand{}, err
	}
	return SubmitRatingCommand{rating: r, guard: guard.NewConstructorGuard()}, nil
}

func (c SubmitRatingCommand) Validate() error {
	return c.guard.Validate(ErrSubmitRatingCommandIsNotConstructed)
}

func (c SubmitRatingCommand) Stars() int {
	return c.rating.Stars()
}

func (c SubmitRatingCommand) Review() string {
	return c.rating.Review()
}
