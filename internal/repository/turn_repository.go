package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumilearn/tutor-backend/internal/model"
)

// TurnRepository handles the append-only turn log. Turns are never updated;
// a topic reset is the only path that deletes them.
type TurnRepository struct {
	pool *pgxpool.Pool
}

// NewTurnRepository creates a new TurnRepository.
func NewTurnRepository(pool *pgxpool.Pool) *TurnRepository {
	return &TurnRepository{pool: pool}
}

// InsertTx appends one turn inside a caller-owned transaction.
func (r *TurnRepository) InsertTx(ctx context.Context, tx pgx.Tx, t *model.Turn) error {
	return tx.QueryRow(ctx,
		`INSERT INTO session_turns (student_id, section_id, sender, message)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		t.StudentID, t.SectionID, t.Sender, t.Message,
	).Scan(&t.ID, &t.CreatedAt)
}

// Insert appends one turn outside a transaction. Used for the opening tutor
// turn when a session starts.
func (r *TurnRepository) Insert(ctx context.Context, t *model.Turn) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO session_turns (student_id, section_id, sender, message)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		t.StudentID, t.SectionID, t.Sender, t.Message,
	).Scan(&t.ID, &t.CreatedAt)
}

// Window returns a student's turns for the given sections, oldest first.
// Feeds the engine's conversation window and the resume recap.
func (r *TurnRepository) Window(ctx context.Context, studentID int, sectionIDs []string) ([]model.Turn, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, section_id, sender, message, created_at
		 FROM session_turns
		 WHERE student_id = $1 AND section_id = ANY($2)
		 ORDER BY id`,
		studentID, sectionIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Turn
	for rows.Next() {
		var t model.Turn
		if err := rows.Scan(&t.ID, &t.StudentID, &t.SectionID, &t.Sender, &t.Message, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteForSectionsTx removes a student's turns for the given sections
// inside a caller-owned transaction. Backs the topic reset.
func (r *TurnRepository) DeleteForSectionsTx(ctx context.Context, tx pgx.Tx, studentID int, sectionIDs []string) error {
	_, err := tx.Exec(ctx,
		`DELETE FROM session_turns WHERE student_id = $1 AND section_id = ANY($2)`,
		studentID, sectionIDs,
	)
	return err
}
