package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/lumilearn/tutor-backend/internal/config"
	"github.com/lumilearn/tutor-backend/internal/curriculum"
	"github.com/lumilearn/tutor-backend/internal/model"
	"github.com/lumilearn/tutor-backend/internal/oracle"
	"github.com/lumilearn/tutor-backend/internal/repository"
	"github.com/lumilearn/tutor-backend/internal/tutor"
)

// ErrTopicNotSupported indicates a request for a topic the curriculum
// library does not contain.
var ErrTopicNotSupported = errors.New("topic not supported")

// windowSections is how many preceding sections of turns are loaded
// alongside the current section's when building the conversation window.
const windowSections = 2

// statusCacheTTL bounds staleness of the cached topic status. The cache is
// also invalidated on every chat turn and reset.
const statusCacheTTL = 30 * time.Second

// SessionMode tells the client what kind of opening message it received.
type SessionMode string

const (
	SessionNew            SessionMode = "new"
	SessionResume         SessionMode = "resume"
	SessionPracticeReview SessionMode = "practice_review"
)

// StartResult is the outcome of opening a tutoring session.
type StartResult struct {
	Mode             SessionMode `json:"mode"`
	Message          string      `json:"message"`
	CurrentSectionID string      `json:"current_section_id,omitempty"`
}

// ChatResult is the outcome of one judged chat turn.
type ChatResult struct {
	Message          string                  `json:"message"`
	Correct          bool                    `json:"correct"`
	SectionCompleted bool                    `json:"section_completed"`
	CurrentSectionID string                  `json:"current_section_id"`
	NextSectionID    string                  `json:"next_section_id,omitempty"`
	CompletionReason *model.CompletionReason `json:"completion_reason,omitempty"`
	AttemptCount     int                     `json:"attempt_count"`
	TopicFinished    bool                    `json:"topic_finished"`
}

// TopicStatus is the per-step progress report for one topic.
type TopicStatus struct {
	Topic             string                    `json:"topic"`
	Steps             []curriculum.StepProgress `json:"steps"`
	TotalSections     int                       `json:"total_sections"`
	CompletedSections int                       `json:"completed_sections"`
	CurrentSectionID  string                    `json:"current_section_id,omitempty"`
	Finished          bool                      `json:"finished"`
}

// TutorService orchestrates tutoring sessions: it owns one progression
// engine per topic and mediates between HTTP handlers, the ledger, and the
// persist queue. The synchronous path never writes to PostgreSQL; judged
// turns are queued to Redis and the worker applies them.
type TutorService struct {
	engines  map[string]*tutor.Engine
	pool     *pgxpool.Pool
	rdb      *redis.Client
	progress *repository.ProgressRepository
	turns    *repository.TurnRepository
	log      zerolog.Logger
}

// NewTutorService builds an engine per library topic. The engine set is
// fixed at startup; unknown topics fail fast at request time.
func NewTutorService(
	lib *curriculum.Library,
	eval oracle.Evaluator,
	gen oracle.Generator,
	maxAttempts int,
	pool *pgxpool.Pool,
	rdb *redis.Client,
	progress *repository.ProgressRepository,
	turns *repository.TurnRepository,
	log zerolog.Logger,
) *TutorService {
	engines := make(map[string]*tutor.Engine)
	for _, name := range lib.Topics() {
		topic, _ := lib.Topic(name)
		engines[name] = tutor.NewEngine(name, curriculum.NewNavigator(topic), eval, gen, maxAttempts)
	}
	return &TutorService{
		engines:  engines,
		pool:     pool,
		rdb:      rdb,
		progress: progress,
		turns:    turns,
		log:      log.With().Str("component", "tutor_service").Logger(),
	}
}

// Topics returns the topic names the service can tutor, sorted.
func (s *TutorService) Topics() []string {
	names := make([]string, 0, len(s.engines))
	for name := range s.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Steps returns the step metadata for a topic's learn page.
func (s *TutorService) Steps(topic string) ([]curriculum.Step, error) {
	e, err := s.engine(topic)
	if err != nil {
		return nil, err
	}
	return e.Navigator().Topic().Steps, nil
}

// Start opens (or resumes) a tutoring session for a topic.
//
// Three outcomes: a fresh session renders the first incomplete section and
// records the opening tutor turn; a session with prior turns on the current
// section produces a generated resume recap; a fully finished topic produces
// a practice-review greeting.
func (s *TutorService) Start(ctx context.Context, studentID int, topic string) (*StartResult, error) {
	e, err := s.engine(topic)
	if err != nil {
		return nil, err
	}
	nav := e.Navigator()

	statuses, err := s.progress.StatusMap(ctx, studentID, nav.AllSectionIDs())
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	current := nav.CurrentSectionFor(statuses)
	if current == "" {
		msg, err := s.practiceReviewMessage(ctx, e, studentID)
		if err != nil {
			return nil, err
		}
		return &StartResult{Mode: SessionPracticeReview, Message: msg}, nil
	}

	window, err := s.loadWindow(ctx, studentID, nav, current)
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}

	if hasTurnsFor(window, current) {
		msg, err := e.ResumeMessage(ctx, window, current)
		if err != nil {
			return nil, err
		}
		return &StartResult{Mode: SessionResume, Message: msg, CurrentSectionID: current}, nil
	}

	msg, current := e.ConversationStarter(statuses)

	// Record the opening turn so the engine's window sees the question that
	// was actually asked.
	openingTurn := &model.Turn{
		StudentID: studentID,
		SectionID: current,
		Sender:    model.SenderTutor,
		Message:   msg,
	}
	if err := s.turns.Insert(ctx, openingTurn); err != nil {
		return nil, fmt.Errorf("record opening turn: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	if err := s.progress.InitInProgressTx(ctx, tx, studentID, current); err != nil {
		return nil, fmt.Errorf("init progress: %w", err)
	}
	if err := s.progress.InitInProgressTx(ctx, tx, studentID, model.TutorSessionItemID(topic)); err != nil {
		return nil, fmt.Errorf("init session progress: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &StartResult{Mode: SessionNew, Message: msg, CurrentSectionID: current}, nil
}

// Chat judges one student answer against the current section. The ledger and
// turn log are untouched until the worker applies the queued outcome.
func (s *TutorService) Chat(ctx context.Context, studentID int, topic string, req *model.ChatRequest) (*ChatResult, error) {
	e, err := s.engine(topic)
	if err != nil {
		return nil, err
	}
	nav := e.Navigator()

	statuses, err := s.progress.StatusMap(ctx, studentID, nav.AllSectionIDs())
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	current := nav.CurrentSectionFor(statuses)
	if current == "" {
		msg, err := s.practiceReviewMessage(ctx, e, studentID)
		if err != nil {
			return nil, err
		}
		return &ChatResult{Message: msg, CurrentSectionID: "", TopicFinished: true}, nil
	}

	window, err := s.loadWindow(ctx, studentID, nav, current)
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}

	stored := 0
	if row, err := s.progress.Get(ctx, studentID, current); err == nil {
		stored = row.AttemptsInSection
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load attempts: %w", err)
	}

	res, err := e.Advance(ctx, tutor.AdvanceInput{
		StudentAnswer:    req.StudentAnswer,
		Window:           window,
		Progress:         statuses,
		CurrentSectionID: current,
		StoredAttempts:   stored,
		Emotional:        req.Emotional,
	})
	if err != nil {
		return nil, err
	}

	outcome := model.TurnOutcome{
		StudentID:        studentID,
		Topic:            topic,
		SectionID:        res.CurrentSectionID,
		StudentMessage:   req.StudentAnswer,
		TutorMessage:     res.TutorMessage,
		SectionCompleted: res.SectionCompleted,
		AttemptCount:     res.AttemptCount,
		NextSectionID:    res.NextSectionID,
		TopicFinished:    res.SectionCompleted && res.NextSectionID == "",
	}
	if res.SectionCompleted {
		reason := res.CompletionReason
		outcome.CompletionReason = &reason
	}
	if err := s.enqueueOutcome(ctx, &outcome); err != nil {
		return nil, fmt.Errorf("enqueue outcome: %w", err)
	}

	s.invalidateStatus(ctx, studentID, topic)

	out := &ChatResult{
		Message:          res.TutorMessage,
		Correct:          res.Correct,
		SectionCompleted: res.SectionCompleted,
		CurrentSectionID: res.CurrentSectionID,
		NextSectionID:    res.NextSectionID,
		AttemptCount:     res.AttemptCount,
		TopicFinished:    outcome.TopicFinished,
	}
	out.CompletionReason = outcome.CompletionReason
	return out, nil
}

// Status reports per-step progress for a topic. Served from a short-lived
// Redis cache; chat turns and resets invalidate it.
func (s *TutorService) Status(ctx context.Context, studentID int, topic string) (*TopicStatus, error) {
	e, err := s.engine(topic)
	if err != nil {
		return nil, err
	}

	cacheKey := config.CacheKey.TutorStatusKey(studentID, topic)
	if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
		var st TopicStatus
		if json.Unmarshal([]byte(cached), &st) == nil {
			return &st, nil
		}
	}

	nav := e.Navigator()
	statuses, err := s.progress.StatusMap(ctx, studentID, nav.AllSectionIDs())
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	st := &TopicStatus{
		Topic:            topic,
		Steps:            nav.StepProgressFor(statuses),
		TotalSections:    len(nav.AllSectionIDs()),
		CurrentSectionID: nav.CurrentSectionFor(statuses),
	}
	for _, step := range st.Steps {
		st.CompletedSections += step.CompletedSections
	}
	st.Finished = st.CurrentSectionID == ""

	if raw, err := json.Marshal(st); err == nil {
		s.rdb.Set(ctx, cacheKey, raw, statusCacheTTL)
	}
	return st, nil
}

// Reset wipes a student's turns and ledger rows for one topic. Both tables
// are cleared in a single transaction; the queued-but-unapplied outcomes for
// other students are unaffected.
func (s *TutorService) Reset(ctx context.Context, studentID int, topic string) error {
	e, err := s.engine(topic)
	if err != nil {
		return err
	}

	sectionIDs := e.Navigator().AllSectionIDs()
	itemIDs := append(append([]string{}, sectionIDs...), model.TutorSessionItemID(topic))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.turns.DeleteForSectionsTx(ctx, tx, studentID, sectionIDs); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	if err := s.progress.DeleteItemsTx(ctx, tx, studentID, itemIDs); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.invalidateStatus(ctx, studentID, topic)
	s.log.Info().Int("student_id", studentID).Str("topic", topic).Msg("Topic reset")
	return nil
}

// PracticeReview returns the review greeting for a finished topic,
// regardless of whether the client arrived via Start or asked directly.
func (s *TutorService) PracticeReview(ctx context.Context, studentID int, topic string) (string, error) {
	e, err := s.engine(topic)
	if err != nil {
		return "", err
	}
	return s.practiceReviewMessage(ctx, e, studentID)
}

func (s *TutorService) practiceReviewMessage(ctx context.Context, e *tutor.Engine, studentID int) (string, error) {
	rows, err := s.progress.GetItems(ctx, studentID, e.Navigator().AllSectionIDs())
	if err != nil {
		return "", fmt.Errorf("load progress: %w", err)
	}
	solved, exhausted := 0, 0
	for _, row := range rows {
		if row.CompletionReason == nil {
			continue
		}
		switch *row.CompletionReason {
		case model.CompletionSolved:
			solved++
		case model.CompletionExhausted:
			exhausted++
		}
	}
	return e.PracticeReviewMessage(ctx, solved, exhausted)
}

func (s *TutorService) engine(topic string) (*tutor.Engine, error) {
	e, ok := s.engines[topic]
	if !ok {
		return nil, ErrTopicNotSupported
	}
	return e, nil
}

// loadWindow fetches the turns for the current section plus the two
// preceding sections, oldest first.
func (s *TutorService) loadWindow(ctx context.Context, studentID int, nav *curriculum.Navigator, current string) ([]model.Turn, error) {
	ids := append(nav.PrevSectionIDs(current, windowSections), current)
	return s.turns.Window(ctx, studentID, ids)
}

func (s *TutorService) enqueueOutcome(ctx context.Context, outcome *model.TurnOutcome) error {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, config.WorkerKey.PersistTurnsQueue, raw).Err()
}

func (s *TutorService) invalidateStatus(ctx context.Context, studentID int, topic string) {
	if err := s.rdb.Del(ctx, config.CacheKey.TutorStatusKey(studentID, topic)).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Status cache invalidation failed")
	}
}

func hasTurnsFor(window []model.Turn, sectionID string) bool {
	for _, t := range window {
		if t.SectionID == sectionID {
			return true
		}
	}
	return false
}
