package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
	redisclient "github.com/hackgods/therapy-center-scheduling/internal/redis"
)

const (
	reminderPageSize = 100
	// Long enough to cover the whole day the reminder is for.
	reminderClaimTTL = 48 * time.Hour
)

// SendDailyReminders notifies the patient of every confirmed or in-progress
// program that has a working day on date. Each program/date pair is claimed
// through dedupe first, so overlapping runs send one reminder. Rest days and
// dates outside a program's span send nothing. It returns how many reminders
// were handed to the notifier.
func (s *Service) SendDailyReminders(ctx context.Context, date time.Time, dedupe redisclient.Deduper) (int, error) {
	if s.notifier == nil {
		return 0, nil
	}
	dateStr := plan.FormatDate(date)

	sent := 0
	for _, status := range []Status{StatusConfirmed, StatusInProgress} {
		st := status
		for offset := 0; ; offset += reminderPageSize {
			progs, err := s.repo.ListPrograms(ctx, ProgramFilter{Status: &st, Limit: reminderPageSize, Offset: offset})
			if err != nil {
				return sent, fmt.Errorf("list %s programs: %w", st, err)
			}
			for i := range progs {
				ok, err := s.remind(ctx, &progs[i], dateStr, dedupe)
				if err != nil {
					return sent, err
				}
				if ok {
					sent++
				}
			}
			if len(progs) < reminderPageSize {
				break
			}
		}
	}
	return sent, nil
}

func (s *Service) remind(ctx context.Context, prog *Program, date string, dedupe redisclient.Deduper) (bool, error) {
	var day *plan.Day
	for i := range prog.Schedule.Days {
		if prog.Schedule.Days[i].Date == date {
			day = &prog.Schedule.Days[i]
			break
		}
	}
	if day == nil {
		return false, nil
	}

	key := redisclient.ReminderKey(prog.ID, date)
	claimed, err := dedupe.Claim(ctx, key, reminderClaimTTL)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	p := s.partiesForNotify(ctx, prog.PatientID, prog.CenterID, prog.DoctorID)
	msg := dailyReminderMessage(prog, day, p)
	if msg.Recipient == "" {
		s.logger.Debug().Str("program_id", prog.ID.String()).Msg("daily reminder skipped, patient has no email")
		return false, nil
	}
	msg.CreatedAt = s.now()
	if err := s.notifier.Notify(ctx, msg); err != nil {
		// Let the next run retry this one.
		if relErr := dedupe.Release(context.WithoutCancel(ctx), key); relErr != nil {
			s.logger.Warn().Err(relErr).Str("key", key).Msg("release reminder claim")
		}
		s.logger.Warn().Err(err).
			Str("program_id", prog.ID.String()).
			Int("day", day.Number).
			Msg("daily reminder not delivered")
		return false, nil
	}

	s.logger.Debug().
		Str("program_id", prog.ID.String()).
		Int("day", day.Number).
		Msg("daily reminder sent")
	return true, nil
}
