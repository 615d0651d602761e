package service

import (
	"context"
	"fmt"

	"github.com/lumilearn/tutor-backend/internal/curriculum"
	"github.com/lumilearn/tutor-backend/internal/model"
	"github.com/lumilearn/tutor-backend/internal/repository"
)

// TopicSummary is one row of the cross-topic progress report.
type TopicSummary struct {
	Topic             string `json:"topic"`
	Title             string `json:"title"`
	TotalSections     int    `json:"total_sections"`
	CompletedSections int    `json:"completed_sections"`
	SolvedSections    int    `json:"solved_sections"`
	ExhaustedSections int    `json:"exhausted_sections"`
	Started           bool   `json:"started"`
	Finished          bool   `json:"finished"`
}

// ProgressService builds cross-topic progress reports from the ledger.
type ProgressService struct {
	lib      *curriculum.Library
	progress *repository.ProgressRepository
}

// NewProgressService creates a new ProgressService.
func NewProgressService(lib *curriculum.Library, progress *repository.ProgressRepository) *ProgressService {
	return &ProgressService{lib: lib, progress: progress}
}

// Report summarizes a student's standing in every library topic. Topics the
// student never touched still appear, with zero counts.
func (s *ProgressService) Report(ctx context.Context, studentID int) ([]TopicSummary, error) {
	rows, err := s.progress.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	byItem := make(map[string]*model.SectionProgress, len(rows))
	for i := range rows {
		byItem[rows[i].ItemID] = &rows[i]
	}

	var out []TopicSummary
	for _, name := range s.lib.Topics() {
		topic, _ := s.lib.Topic(name)
		summary := TopicSummary{
			Topic:         name,
			Title:         topic.Title,
			TotalSections: topic.SectionCount(),
		}
		for _, step := range topic.Steps {
			for _, sec := range step.Sections {
				row, ok := byItem[sec.ID]
				if !ok {
					continue
				}
				summary.Started = true
				if row.Status != model.ProgressCompleted {
					continue
				}
				summary.CompletedSections++
				if row.CompletionReason == nil {
					continue
				}
				switch *row.CompletionReason {
				case model.CompletionSolved:
					summary.SolvedSections++
				case model.CompletionExhausted:
					summary.ExhaustedSections++
				}
			}
		}
		summary.Finished = summary.TotalSections > 0 && summary.CompletedSections >= summary.TotalSections
		out = append(out, summary)
	}
	return out, nil
}
