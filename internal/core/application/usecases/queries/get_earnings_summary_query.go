// Package queries contains read operations. Each query is built through a validating
// constructor and answered by its handler with a read model.
package queries

import (
	"errors"

	"partner/internal/core/domain/model/wallet"
	"partner/internal/pkg/guard"
)

var ErrGetEarningsSummaryQueryIsNotConstructed = errors.New(
	"GetEarningsSummaryQuery must be created via NewGetEarningsSummaryQuery constructor",
)

// GetEarningsSummaryQuery asks for the earnings, trips and hours of one period.
//
// Example:
//
//	query, err := NewGetEarningsSummaryQuery("week")
//	if err != nil {
//	    return err
//	}
//	summary, err := handler.Handle(ctx, query)
type GetEarningsSummaryQuery struct {
	period wallet.Period

	guard guard.ConstructorGuard
}

func NewGetEarningsSummaryQuery(period string) (GetEarningsSummaryQuery, error) {
	p, err := wallet.ParsePeriod(period)
	if err != nil {
		return GetEarningsSummaryQuery{}, err
	}
	return GetEarningsSummaryQuery{period: p, guard: guard.NewConstructorGuard()}, nil
}

func (q GetEarningsSummaryQuery) Validate() error {
	return q.guard.Validate(ErrGetEarningsSummaryQueryIsNotConstructed)
}

func (q GetEarningsSummaryQuery) Period() wallet.Period {
	return q.period
}

// GetEarningsSummaryQueryResponse is the earnings screen of one period. The wallet
// totals are not period-bound.
type GetEarningsSummaryQueryResponse struct {
	Period         wallet.Period `json:"period"`
	Earnings       float64       `json:"earnings"`
	Trips          int           `json:"trips"`
	ActiveHours    float64       `json:"activeHours"`
	DistanceMeters float64       `json:"distanceMeters"`

	TotalBalance   float64              `json:"totalBalance"`
	CashInHand     float64              `json:"cashInHand"`
	TotalWithdrawn float64              `json:"totalWithdrawn"`
	TotalEarned    float64              `json:"totalEarned"`
	Transactions   []wallet.Transaction `json:"transactions"`

	// WalletUnavailable is set when the backend could not be reached and the
	// figures come from the empty wallet.
	WalletUnavailable bool `json:"walletUnavailable"`
	// HistoryUnavailable is set when the delivery history could not be read and the
	// trip figures are zero.
	HistoryUnavailable bool `json:"historyUnavailable"`
}
