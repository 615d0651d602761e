package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/lumilearn/tutor-backend/internal/config"
	"github.com/lumilearn/tutor-backend/internal/model"
	"github.com/lumilearn/tutor-backend/internal/repository"
)

// TurnWorker is the single consumer of the persist queue. Each queued item
// is one judged chat turn; the worker applies the turn log append and the
// ledger updates in one transaction. Running exactly one consumer keeps a
// student's outcomes applied in the order they were judged.
type TurnWorker struct {
	pool     *pgxpool.Pool
	rdb      *redis.Client
	progress *repository.ProgressRepository
	turns    *repository.TurnRepository
	log      zerolog.Logger
}

// NewTurnWorker creates a new TurnWorker.
func NewTurnWorker(pool *pgxpool.Pool, rdb *redis.Client, progress *repository.ProgressRepository, turns *repository.TurnRepository, log zerolog.Logger) *TurnWorker {
	return &TurnWorker{
		pool:     pool,
		rdb:      rdb,
		progress: progress,
		turns:    turns,
		log:      log.With().Str("component", "turn_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *TurnWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *TurnWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistTurnsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var outcome model.TurnOutcome
	if err := json.Unmarshal([]byte(result[1]), &outcome); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.applyOutcome(ctx, &outcome); err != nil {
		w.log.Error().Err(err).
			Int("student_id", outcome.StudentID).
			Str("section_id", outcome.SectionID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistTurnsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

// applyOutcome writes one judged turn atomically: both turns, the current
// section's ledger row, and on advance the next section's row plus the topic
// aggregate.
func (w *TurnWorker) applyOutcome(ctx context.Context, o *model.TurnOutcome) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	studentTurn := &model.Turn{
		StudentID: o.StudentID,
		SectionID: o.SectionID,
		Sender:    model.SenderStudent,
		Message:   o.StudentMessage,
	}
	if err := w.turns.InsertTx(ctx, tx, studentTurn); err != nil {
		return err
	}

	// A transition message opens the next section; tag it there so the
	// resume path picks it up.
	tutorSection := o.SectionID
	if o.SectionCompleted && o.NextSectionID != "" {
		tutorSection = o.NextSectionID
	}
	tutorTurn := &model.Turn{
		StudentID: o.StudentID,
		SectionID: tutorSection,
		Sender:    model.SenderTutor,
		Message:   o.TutorMessage,
	}
	if err := w.turns.InsertTx(ctx, tx, tutorTurn); err != nil {
		return err
	}

	now := time.Now()
	if err := w.progress.UpsertTx(ctx, tx, sectionRow(o, now)); err != nil {
		return err
	}

	if o.SectionCompleted && o.NextSectionID != "" {
		if err := w.progress.InitInProgressTx(ctx, tx, o.StudentID, o.NextSectionID); err != nil {
			return err
		}
	}

	if aggregate := aggregateRow(o, now); aggregate != nil {
		if err := w.progress.UpsertTx(ctx, tx, aggregate); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// sectionRow builds the ledger row for the section the answer was judged
// against.
func sectionRow(o *model.TurnOutcome, now time.Time) *model.SectionProgress {
	row := &model.SectionProgress{
		StudentID:         o.StudentID,
		ItemID:            o.SectionID,
		Status:            model.ProgressInProgress,
		AttemptsInSection: o.AttemptCount,
		LastAttemptAt:     &now,
	}
	if o.SectionCompleted {
		row.Status = model.ProgressCompleted
		row.CompletionReason = o.CompletionReason
	}
	return row
}

// aggregateRow builds the per-topic aggregate row, or nil when the topic is
// not yet finished. The aggregate reaches mastered once every section of the
// topic is completed; it carries no completion reason of its own since the
// per-section rows already record how each section ended.
func aggregateRow(o *model.TurnOutcome, now time.Time) *model.SectionProgress {
	if !o.TopicFinished {
		return nil
	}
	return &model.SectionProgress{
		StudentID:     o.StudentID,
		ItemID:        model.TutorSessionItemID(o.Topic),
		Status:        model.ProgressMastered,
		LastAttemptAt: &now,
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *TurnWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistTurnsQueue).Result()
		if err != nil {
			break
		}

		var outcome model.TurnOutcome
		if err := json.Unmarshal([]byte(result), &outcome); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.applyOutcome(ctx, &outcome); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistTurnsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
