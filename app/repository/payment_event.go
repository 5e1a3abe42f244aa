package repository

import (
	"context"
	"time"

	"github.com/tokenfolio/ms-go-portfolios/app/entity"
)

type PaymentEventRepository struct {
	db DBTX
}

func NewPaymentEventRepository(db DBTX) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

func (r *PaymentEventRepository) Create(ctx context.Context, event *entity.PaymentEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO payment_events (
			payment_id, event_type, old_status, new_status, helio_tx_id, detail, payload_json, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableUint64Value(event.PaymentID),
		event.EventType,
		nullableStatusValue(event.OldStatus),
		nullableStatusValue(event.NewStatus),
		nullableStringValue(event.HelioTxID),
		nullableStringValue(event.Detail),
		nullableStringValue(event.PayloadJSON),
		event.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = uint64(id)

	return nil
}

func nullableUint64Value(v *uint64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableStatusValue(v *entity.PaymentStatus) interface{} {
	if v == nil {
		return nil
	}
	return string(*v)
}
