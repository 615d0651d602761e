package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumilearn/tutor-backend/internal/model"
)

// ProgressRepository handles the per-student progress ledger. Rows are keyed
// by (student_id, item_id); item IDs are curriculum section IDs plus the
// per-topic tutor session aggregate.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// Get retrieves one ledger row. Returns pgx.ErrNoRows when absent.
func (r *ProgressRepository) Get(ctx context.Context, studentID int, itemID string) (*model.SectionProgress, error) {
	p := &model.SectionProgress{}
	err := r.pool.QueryRow(ctx,
		`SELECT student_id, item_id, status, attempts_in_section, completion_reason, last_attempt_at, created_at, updated_at
		 FROM section_progress WHERE student_id = $1 AND item_id = $2`,
		studentID, itemID,
	).Scan(&p.StudentID, &p.ItemID, &p.Status, &p.AttemptsInSection, &p.CompletionReason, &p.LastAttemptAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// StatusMap returns item_id -> status for the given items. Items without a
// ledger row are simply absent from the map.
func (r *ProgressRepository) StatusMap(ctx context.Context, studentID int, itemIDs []string) (map[string]model.ProgressStatus, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT item_id, status FROM section_progress
		 WHERE student_id = $1 AND item_id = ANY($2)`,
		studentID, itemIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]model.ProgressStatus)
	for rows.Next() {
		var itemID string
		var status model.ProgressStatus
		if err := rows.Scan(&itemID, &status); err != nil {
			return nil, err
		}
		out[itemID] = status
	}
	return out, rows.Err()
}

// GetItems returns the ledger rows for the given items. Items without a row
// are absent from the result.
func (r *ProgressRepository) GetItems(ctx context.Context, studentID int, itemIDs []string) ([]model.SectionProgress, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id, item_id, status, attempts_in_section, completion_reason, last_attempt_at, created_at, updated_at
		 FROM section_progress WHERE student_id = $1 AND item_id = ANY($2)`,
		studentID, itemIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SectionProgress
	for rows.Next() {
		var p model.SectionProgress
		if err := rows.Scan(&p.StudentID, &p.ItemID, &p.Status, &p.AttemptsInSection, &p.CompletionReason, &p.LastAttemptAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InitInProgressTx creates an in_progress row for an item unless one already
// exists. Used when the student enters a new section.
func (r *ProgressRepository) InitInProgressTx(ctx context.Context, tx pgx.Tx, studentID int, itemID string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO section_progress (student_id, item_id, status)
		 VALUES ($1, $2, 'in_progress')
		 ON CONFLICT (student_id, item_id) DO NOTHING`,
		studentID, itemID,
	)
	return err
}

// ListForStudent returns every ledger row for a student, ordered by item ID.
// Backs the cross-topic progress report.
func (r *ProgressRepository) ListForStudent(ctx context.Context, studentID int) ([]model.SectionProgress, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id, item_id, status, attempts_in_section, completion_reason, last_attempt_at, created_at, updated_at
		 FROM section_progress WHERE student_id = $1 ORDER BY item_id`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SectionProgress
	for rows.Next() {
		var p model.SectionProgress
		if err := rows.Scan(&p.StudentID, &p.ItemID, &p.Status, &p.AttemptsInSection, &p.CompletionReason, &p.LastAttemptAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertTx writes one ledger row inside a caller-owned transaction. The
// persist worker applies a whole turn outcome atomically through this.
func (r *ProgressRepository) UpsertTx(ctx context.Context, tx pgx.Tx, p *model.SectionProgress) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO section_progress (student_id, item_id, status, attempts_in_section, completion_reason, last_attempt_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (student_id, item_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   attempts_in_section = EXCLUDED.attempts_in_section,
		   completion_reason = EXCLUDED.completion_reason,
		   last_attempt_at = EXCLUDED.last_attempt_at,
		   updated_at = CURRENT_TIMESTAMP`,
		p.StudentID, p.ItemID, p.Status, p.AttemptsInSection, p.CompletionReason, p.LastAttemptAt,
	)
	return err
}

// DeleteItemsTx removes ledger rows for the given items inside a
// caller-owned transaction. Backs the topic reset.
func (r *ProgressRepository) DeleteItemsTx(ctx context.Context, tx pgx.Tx, studentID int, itemIDs []string) error {
	_, err := tx.Exec(ctx,
		`DELETE FROM section_progress WHERE student_id = $1 AND item_id = ANY($2)`,
		studentID, itemIDs,
	)
	return err
}
