package queries

import (
	"context"

	"partner/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetRecentDeliveriesQueryHandler reads the delivery history with plain SQL.
type GetRecentDeliveriesQueryHandler struct {
	db *gorm.DB
}

func NewGetRecentDeliveriesQueryHandler(db *gorm.DB) GetRecentDeliveriesQueryHandler {
	return GetRecentDeliveriesQueryHandler{db: db}
}

func (h GetRecentDeliveriesQueryHandler) Handle(
	ctx context.Context,
	query GetRecentDeliveriesQuery,
) ([]GetRecentDeliveriesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	deliveries := make([]GetRecentDeliveriesQueryResponse, 0, query.limit)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			order_id,
			earnings,
			distance,
			accepted_at,
			delivered_at,
			stars,
			review
		FROM deliveries
		ORDER BY delivered_at DESC
		LIMIT ?
	`, query.limit).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var d GetRecentDeliveriesQueryResponse
		var id uuid.UUID

		err = rows.Scan(
			&id,
			&d.OrderID,
			&d.Earnings,
			&d.DistanceMeters,
			&d.AcceptedAt,
			&d.DeliveredAt,
			&d.Stars,
			&d.Review,
		)
		if err != nil {
			return nil, err
		}

		deliveryID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		d.ID = deliveryID
		deliveries = append(deliveries, d)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return deliveries, nil
}
