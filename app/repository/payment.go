package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tokenfolio/ms-go-portfolios/app/entity"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (
			portfolio_id, amount, currency, status,
			helio_paylink_id, helio_tx_id, verified_at,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		payment.PortfolioID,
		payment.Amount,
		payment.Currency,
		string(payment.Status),
		payment.HelioPaylinkID,
		nullableStringValue(payment.HelioTxID),
		nullableTimeValue(payment.VerifiedAt),
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	payment.ID = uint64(id)
	return nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uint64) (*entity.Payment, error) {
	query := selectPayment + ` WHERE id = ?`

	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, id), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payment, nil
}

// FindLatestPendingByPaylink is the best-effort fallback matcher for webhook
// events that carry no caller metadata: the most recently created payment
// still pending against the given paylink.
func (r *PaymentRepository) FindLatestPendingByPaylink(ctx context.Context, paylinkID string) (*entity.Payment, error) {
	query := selectPayment + ` WHERE helio_paylink_id = ? AND status = ? ORDER BY id DESC LIMIT 1`

	payment := &entity.Payment{}
	err := scanPayment(r.db.QueryRowContext(ctx, query, paylinkID, string(entity.PaymentStatusPending)), payment)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payment, nil
}

// MarkTerminal moves a payment from pending to the given terminal status as a
// single conditional write. Under concurrent delivery of the same event
// exactly one caller observes true; every other caller gets false and must
// treat the delivery as a replay.
func (r *PaymentRepository) MarkTerminal(
	ctx context.Context,
	id uint64,
	status entity.PaymentStatus,
	txID *string,
	verifiedAt *time.Time,
	now time.Time,
) (bool, error) {
	query := `
		UPDATE payments SET
			status = ?,
			helio_tx_id = COALESCE(?, helio_tx_id),
			verified_at = ?,
			updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(status),
		nullableStringValue(txID),
		nullableTimeValue(verifiedAt),
		now,
		id,
		string(entity.PaymentStatusPending),
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// AttachTransactionID backfills the external transaction id on a payment
// already sitting at the given status, without touching the status itself.
func (r *PaymentRepository) AttachTransactionID(
	ctx context.Context,
	id uint64,
	status entity.PaymentStatus,
	txID string,
	now time.Time,
) (bool, error) {
	query := `
		UPDATE payments SET
			helio_tx_id = ?,
			updated_at = ?
		WHERE id = ? AND status = ? AND helio_tx_id IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, txID, now, id, string(status))
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PaymentRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Payment, error) {
	query := selectPayment + `
		WHERE status = ? AND created_at <= ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, string(entity.PaymentStatusPending), cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*entity.Payment, 0)
	for rows.Next() {
		item := &entity.Payment{}
		if err := scanPayment(rows, item); err != nil {
			return nil, err
		}
		payments = append(payments, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

const selectPayment = `
	SELECT id, portfolio_id, amount, currency, status,
		helio_paylink_id, helio_tx_id, verified_at,
		created_at, updated_at
	FROM payments
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(scan rowScanner, payment *entity.Payment) error {
	var status string
	var txID sql.NullString
	var verifiedAt sql.NullTime

	err := scan.Scan(
		&payment.ID,
		&payment.PortfolioID,
		&payment.Amount,
		&payment.Currency,
		&status,
		&payment.HelioPaylinkID,
		&txID,
		&verifiedAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return err
	}

	payment.Status = entity.PaymentStatus(status)
	payment.HelioTxID = stringPtrFromNull(txID)
	payment.VerifiedAt = timePtrFromNull(verifiedAt)
	return nil
}
