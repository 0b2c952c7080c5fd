package commands

import (
	"context"
)

type SubmitRatingCommandHandler struct {
	submitter RatingSubmitter
}

func NewSubmitRatingCommandHandler(submitter RatingSubmitter) SubmitRatingCommandHandler {
	return SubmitRatingCommandHandler{submitter: submitter}
}

func (h SubmitRatingCommandHandler) Handle(ctx context.Context, cmd SubmitRatingCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return h.submitter.SubmitRating(ctx, cmd.Stars(), cmd.Review())
}
