package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

type ProgressRequest struct {
	ProgramID uuid.UUID
	Actor     uuid.UUID
	Day       int
	Score     *int
	Vitals    *Vitals
	Notes     string
}

// RecordProgress appends a progress entry for one day of an active program.
func (s *Service) RecordProgress(ctx context.Context, req ProgressRequest) (*ProgressEntry, error) {
	if req.Score == nil && req.Vitals == nil && strings.TrimSpace(req.Notes) == "" {
		return nil, ErrEmptyProgress
	}
	if req.Score != nil && (*req.Score < 1 || *req.Score > 10) {
		return nil, ErrInvalidScore
	}

	prog, err := s.loadProgram(ctx, req.ProgramID)
	if err != nil {
		return nil, err
	}
	if err := requireAssignedDoctor(prog.DoctorID, req.Actor); err != nil {
		return nil, err
	}
	if prog.Status != StatusConfirmed && prog.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: status %s", ErrProgramNotActive, prog.Status)
	}
	if req.Day < 1 || req.Day > prog.Duration {
		return nil, fmt.Errorf("%w: day %d of %d", ErrDayOutOfRange, req.Day, prog.Duration)
	}

	entry := &ProgressEntry{
		ID:         uuid.New(),
		ProgramID:  prog.ID,
		DoctorID:   req.Actor,
		Day:        req.Day,
		Score:      req.Score,
		Vitals:     req.Vitals,
		Notes:      strings.TrimSpace(req.Notes),
		RecordedAt: s.now(),
	}
	if err := s.repo.InsertProgress(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert progress: %w", err)
	}

	s.logEvent(ctx, OwnerProgram, prog.ID, EventProgressRecorded, map[string]any{
		"day":   entry.Day,
		"actor": req.Actor.String(),
	})
	return entry, nil
}

// ProgressSummary groups a program's progress entries by day, in day order.
func (s *Service) ProgressSummary(ctx context.Context, programID uuid.UUID) ([]DailyProgress, error) {
	prog, err := s.loadProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListProgress(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return summarize(&prog.Schedule, entries), nil
}

// summarize expects entries ordered by day then recording time.
func summarize(schedule *plan.Schedule, entries []ProgressEntry) []DailyProgress {
	out := []DailyProgress{}
	for i := 0; i < len(entries); {
		day := entries[i].Day
		dp := DailyProgress{Day: day}
		if d, err := schedule.Day(day); err == nil {
			dp.Date = d.Date
		}

		sum, scored := 0, 0
		for ; i < len(entries) && entries[i].Day == day; i++ {
			e := entries[i]
			dp.Entries = append(dp.Entries, e)
			if e.Score != nil {
				sum += *e.Score
				scored++
			}
			if e.Vitals != nil {
				v := *e.Vitals
				dp.LastVitals = &v
			}
		}
		if scored > 0 {
			avg := float64(sum) / float64(scored)
			dp.AverageScore = &avg
		}
		out = append(out, dp)
	}
	return out
}
