package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-dive-auth/internal/model"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `u.id, u.first_name, u.last_name, u.email, u.password_hash, u.role,
	u.is_active, u.created_at, u.updated_at,
	p.verification_status, p.verified_at, p.rejection_reason`

const userFrom = ` FROM users u LEFT JOIN dive_operator_profiles p ON p.user_id = u.id`

func (r *UserRepository) CreateUser(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, first_name, last_name, email, password_hash, role, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return mapWriteError("create user", err)
	}
	return nil
}

// CreateOperator writes the user, the operator profile and every document in one transaction.
func (r *UserRepository) CreateOperator(ctx context.Context, u model.User) error {
	if u.Operator == nil {
		return fmt.Errorf("create operator: missing operator profile")
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (id, first_name, last_name, email, password_hash, role, is_active, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt); err != nil {
			return mapWriteError("create operator user", err)
		}

		v := u.Operator.Verification
		if _, err := tx.Exec(ctx,
			`INSERT INTO dive_operator_profiles (user_id, verification_status, verified_at, rejection_reason, updated_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			u.ID, v.Status, v.VerifiedAt, v.RejectionReason, u.UpdatedAt); err != nil {
			return fmt.Errorf("create operator profile: %w", err)
		}

		batch := &pgx.Batch{}
		for _, d := range u.Operator.Documents {
			batch.Queue(
				`INSERT INTO dive_operator_documents
				   (id, user_id, doc_type, original_filename, stored_key, file_size, mime_type, uploaded_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				d.ID, u.ID, d.DocType, d.OriginalFilename, d.StoredKey, d.FileSize, d.MimeType, d.UploadedAt)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("create operator documents: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+userFrom+` WHERE u.id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	if err := r.attachDocuments(ctx, r.pool, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+userFrom+` WHERE lower(u.email) = lower($1)`,
		strings.TrimSpace(email))
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	if err := r.attachDocuments(ctx, r.pool, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`,
		strings.TrimSpace(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET first_name = $2, last_name = $3, email = $4, updated_at = $5 WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Email, u.UpdatedAt)
	if err != nil {
		return mapWriteError("update profile", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		userID, passwordHash, at)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// ListOperators returns dive operators newest first, optionally filtered by status.
func (r *UserRepository) ListOperators(ctx context.Context, status model.VerificationStatus) ([]model.User, error) {
	query := `SELECT ` + userColumns + userFrom + ` WHERE u.role = $1 AND p.user_id IS NOT NULL`
	args := []any{model.RoleDiveOperator}
	if status != model.VerificationNone {
		query += ` AND p.verification_status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY u.created_at DESC, u.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	index := make(map[string]int)
	ids := make([]string, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operator: %w", err)
		}
		index[u.ID] = len(users)
		ids = append(ids, u.ID)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operators: %w", err)
	}
	if len(ids) == 0 {
		return users, nil
	}

	docs, err := queryDocuments(ctx, r.pool,
		`WHERE user_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		i, ok := index[d.UserID]
		if !ok || users[i].Operator == nil {
			continue
		}
		users[i].Operator.Documents = append(users[i].Operator.Documents, d)
	}

	return users, nil
}

// TransitionVerification locks the operator profile row, asks fn for the next state and stores it.
// An fn error aborts the transaction and is returned unchanged.
func (r *UserRepository) TransitionVerification(ctx context.Context, userID string, fn model.VerificationTransition) (model.User, error) {
	var updated model.User

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+userColumns+userFrom+` WHERE u.id = $1 FOR UPDATE OF u`, userID)
		u, err := scanUser(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrOperatorNotFound
		}
		if err != nil {
			return fmt.Errorf("lock operator: %w", err)
		}
		if !u.IsDiveOperator() || u.Operator == nil {
			return model.ErrOperatorNotFound
		}

		next, err := fn(u)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err := tx.Exec(ctx,
			`UPDATE dive_operator_profiles
			 SET verification_status = $2, verified_at = $3, rejection_reason = $4, updated_at = $5
			 WHERE user_id = $1`,
			userID, next.Status, next.VerifiedAt, next.RejectionReason, now); err != nil {
			return fmt.Errorf("update verification: %w", err)
		}

		u.Operator.Verification = next
		if err := r.attachDocuments(ctx, tx, &u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	return updated, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *UserRepository) attachDocuments(ctx context.Context, q querier, u *model.User) error {
	if u.Operator == nil {
		return nil
	}
	docs, err := queryDocuments(ctx, q, `WHERE user_id = $1`, u.ID)
	if err != nil {
		return err
	}
	u.Operator.Documents = docs
	return nil
}

func queryDocuments(ctx context.Context, q querier, where string, arg any) ([]model.Document, error) {
	rows, err := q.Query(ctx,
		`SELECT id, user_id, doc_type, original_filename, stored_key, file_size, mime_type, uploaded_at
		 FROM dive_operator_documents `+where+` ORDER BY uploaded_at, doc_type`, arg)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]model.Document, 0, 2)
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.UserID, &d.DocType, &d.OriginalFilename, &d.StoredKey,
			&d.FileSize, &d.MimeType, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		u        model.User
		status   *string
		verified *time.Time
		reason   *string
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt, &status, &verified, &reason)
	if err != nil {
		return model.User{}, err
	}

	if status != nil {
		u.Operator = &model.DiveOperatorProfile{
			UserID: u.ID,
			Verification: model.VerificationState{
				Status:          model.VerificationStatus(*status),
				VerifiedAt:      verified,
				RejectionReason: reason,
			},
			Documents: []model.Document{},
		}
	}
	return u, nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.ErrEmailTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}
