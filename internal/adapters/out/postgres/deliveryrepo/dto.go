// Package deliveryrepo persists settled deliveries with GORM.
package deliveryrepo

import (
	"time"

	"partner/internal/core/domain/model/delivery"
	"partner/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// DeliveryDTO is one row of the delivery history. Distance is meters.
type DeliveryDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OfferID     uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	OrderID     string    `gorm:"size:64;not null"`
	Earnings    float64   `gorm:"type:numeric(12,2)"`
	Distance    float64
	AcceptedAt  time.Time
	DeliveredAt time.Time `gorm:"index"`
	SettledAt   time.Time
	Stars       int    `gorm:"type:smallint"`
	Review      string `gorm:"size:500"`
}

func (DeliveryDTO) TableName() string {
	return "deliveries"
}

func fromDomain(r *delivery.Record) DeliveryDTO {
	return DeliveryDTO{
		ID:          r.ID().Raw(),
		OfferID:     r.OfferID().Raw(),
		OrderID:     r.OrderID(),
		Earnings:    r.Earnings(),
		Distance:    r.Distance(),
		AcceptedAt:  r.AcceptedAt().UTC(),
		DeliveredAt: r.DeliveredAt().UTC(),
		SettledAt:   r.SettledAt().UTC(),
		Stars:       r.Stars(),
		Review:      r.Review(),
	}
}

func toDomain(dto DeliveryDTO) (*delivery.Record, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	offerID, err := kernel.UUIDFromBytes(dto.OfferID[:])
	if err != nil {
		return nil, err
	}

	return delivery.RestoreRecord(
		id,
		offerID,
		dto.OrderID,
		dto.Earnings,
		dto.Distance,
		delivery.Timeline{
			AcceptedAt:  dto.AcceptedAt,
			DeliveredAt: dto.DeliveredAt,
			SettledAt:   dto.SettledAt,
		},
		dto.Stars,
		dto.Review,
	)
}
