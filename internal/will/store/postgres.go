package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"testament/internal/will/models"
	id "testament/pkg/domain"
	"testament/pkg/platform/sentinel"
)

// uniqueViolation is the Postgres error code for duplicate-key inserts.
const uniqueViolation = "23505"

// Postgres persists wills in PostgreSQL. Execute runs its callback inside a
// transaction holding SELECT ... FOR UPDATE on the will row, giving the same
// per-will mutual exclusion as the in-memory store across multiple service
// instances.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, will *models.Will) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create will: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertWill(ctx, tx, will); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert will: %w", err)
	}
	if err := insertBeneficiaries(ctx, tx, will); err != nil {
		return fmt.Errorf("insert beneficiaries: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create will: %w", err)
	}
	return nil
}

func (s *Postgres) FindByOwner(ctx context.Context, owner id.AccountID) (*models.Will, error) {
	will, err := scanWill(ctx, s.db, owner, false)
	if err != nil {
		return nil, err
	}
	will.Beneficiaries, err = scanBeneficiaries(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}
	return will, nil
}

// Execute loads the owner's will under FOR UPDATE, runs fn on it, and writes
// the result back. fn returning an error rolls the transaction back, so a
// ledger transfer invoked inside fn and the claimed-flag update it guards
// commit or abort together.
func (s *Postgres) Execute(ctx context.Context, owner id.AccountID, fn func(*models.Will) error) (*models.Will, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin will tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	will, err := scanWill(ctx, tx, owner, true)
	if err != nil {
		return nil, err
	}
	will.Beneficiaries, err = scanBeneficiaries(ctx, tx, owner)
	if err != nil {
		return nil, err
	}

	if err := fn(will); err != nil {
		return nil, err
	}

	if err := updateWill(ctx, tx, will); err != nil {
		return nil, fmt.Errorf("update will: %w", err)
	}
	if err := replaceBeneficiaries(ctx, tx, will); err != nil {
		return nil, fmt.Errorf("replace beneficiaries: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit will tx: %w", err)
	}
	return will, nil
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wills`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count wills: %w", err)
	}
	return n, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanWill(ctx context.Context, q queryer, owner id.AccountID, forUpdate bool) (*models.Will, error) {
	query := `
		SELECT owner_id, balance, executed_balance, last_check_in,
		       inactivity_period_seconds, active, executed, created_at, updated_at
		FROM wills
		WHERE owner_id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		will          models.Will
		ownerUUID     uuid.UUID
		balance       int64
		executedBal   int64
		periodSeconds int64
	)
	err := q.QueryRowContext(ctx, query, uuid.UUID(owner)).Scan(
		&ownerUUID, &balance, &executedBal, &will.LastCheckIn,
		&periodSeconds, &will.Active, &will.Executed, &will.CreatedAt, &will.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find will: %w", err)
	}
	will.Owner = id.AccountID(ownerUUID)
	will.Balance = uint64(balance)
	will.ExecutedBalance = uint64(executedBal)
	will.InactivityPeriod = time.Duration(periodSeconds) * time.Second
	return &will, nil
}

func scanBeneficiaries(ctx context.Context, q queryer, owner id.AccountID) ([]models.Beneficiary, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT account_id, share_percent, claimed
		FROM will_beneficiaries
		WHERE owner_id = $1
		ORDER BY position`, uuid.UUID(owner))
	if err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	defer rows.Close()

	var beneficiaries []models.Beneficiary
	for rows.Next() {
		var (
			account uuid.UUID
			b       models.Beneficiary
		)
		if err := rows.Scan(&account, &b.SharePercent, &b.Claimed); err != nil {
			return nil, fmt.Errorf("scan beneficiary: %w", err)
		}
		b.Account = id.AccountID(account)
		beneficiaries = append(beneficiaries, b)
	}
	return beneficiaries, rows.Err()
}

func insertWill(ctx context.Context, e execer, will *models.Will) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO wills (owner_id, balance, executed_balance, last_check_in,
		                   inactivity_period_seconds, active, executed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(will.Owner), int64(will.Balance), int64(will.ExecutedBalance),
		will.LastCheckIn, int64(will.InactivityPeriod/time.Second),
		will.Active, will.Executed, will.CreatedAt, will.UpdatedAt,
	)
	return err
}

func updateWill(ctx context.Context, e execer, will *models.Will) error {
	_, err := e.ExecContext(ctx, `
		UPDATE wills
		SET balance = $2, executed_balance = $3, last_check_in = $4,
		    active = $5, executed = $6, updated_at = $7
		WHERE owner_id = $1`,
		uuid.UUID(will.Owner), int64(will.Balance), int64(will.ExecutedBalance),
		will.LastCheckIn, will.Active, will.Executed, will.UpdatedAt,
	)
	return err
}

// replaceBeneficiaries rewrites the beneficiary rows wholesale. Sets are
// small (shares sum to 100) and the replace-all semantics of the domain make
// diffing pointless.
func replaceBeneficiaries(ctx context.Context, e execer, will *models.Will) error {
	if _, err := e.ExecContext(ctx,
		`DELETE FROM will_beneficiaries WHERE owner_id = $1`, uuid.UUID(will.Owner)); err != nil {
		return err
	}
	return insertBeneficiaries(ctx, e, will)
}

func insertBeneficiaries(ctx context.Context, e execer, will *models.Will) error {
	for i, b := range will.Beneficiaries {
		if _, err := e.ExecContext(ctx, `
			INSERT INTO will_beneficiaries (owner_id, position, account_id, share_percent, claimed)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.UUID(will.Owner), i, uuid.UUID(b.Account), b.SharePercent, b.Claimed,
		); err != nil {
			return err
		}
	}
	return nil
}
