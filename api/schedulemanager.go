package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aouyang1/framesaver/store"
)

const scheduleInterval = time.Minute

// ScheduleGetter reads the on and off times of the frame
type ScheduleGetter interface {
	GetSchedule() (*store.Schedule, error)
}

// Pauser pauses and resumes the slideshow
type Pauser interface {
	SetPaused(paused bool)
}

// ScheduleManager will periodically check the time to decide if we need to turn off or on the display
type ScheduleManager struct {
	db      ScheduleGetter
	display Display
	show    Pauser
	now     func() time.Time

	lastCheck time.Time
}

func NewScheduleManager(db ScheduleGetter, display Display, show Pauser) (*ScheduleManager, error) {
	if db == nil {
		return nil, errors.New("no database provided for scheduler")
	}
	if display == nil {
		return nil, errors.New("no display provided for scheduler")
	}

	return &ScheduleManager{
		db:      db,
		display: display,
		show:    show,
		now:     time.Now,
	}, nil
}

func (s *ScheduleManager) checkSchedule() {
	schedule, err := s.db.GetSchedule()
	if err != nil {
		slog.Error("unable to get schedule", "error", err)
		return
	}

	if !schedule.Enabled {
		return
	}

	now := s.now()
	defer func() { s.lastCheck = now }()

	startTime, err := time.Parse("15:04", schedule.Start)
	if err != nil {
		slog.Warn("start time with invalid format", "start", schedule.Start, "error", err)
		return
	}
	startDate := time.Date(now.Year(), now.Month(), now.Day(), startTime.Hour(), startTime.Minute(), 0, 0, now.Location())

	endTime, err := time.Parse("15:04", schedule.End)
	if err != nil {
		slog.Warn("end time with invalid format", "end", schedule.End, "error", err)
		return
	}

	endDate := time.Date(now.Year(), now.Month(), now.Day(), endTime.Hour(), endTime.Minute(), 0, 0, now.Location())
	if startTime.After(endTime) {
		endDate = endDate.Add(24 * time.Hour)
	}

	// crossed into end of schedule - pause and turn off display
	if s.lastCheck.Before(endDate) && now.After(endDate) {
		if s.show != nil {
			s.show.SetPaused(true)
		}
		if err := s.display.SetEnabled(false); err != nil {
			slog.Warn("issue while turning off display for schedule", "error", err)
		} else {
			slog.Info("turning display off for schedule", "time", now)
		}
		return
	}

	// crossed into start of schedule - turn on display and resume
	if now.After(startDate) && s.lastCheck.Before(startDate) {
		if err := s.display.SetEnabled(true); err != nil {
			slog.Warn("issue while turning on display for schedule", "error", err)
		} else {
			slog.Info("turning display on for schedule", "time", now)
		}
		if s.show != nil {
			s.show.SetPaused(false)
		}
		return
	}
}

func (s *ScheduleManager) Run(ctx context.Context) {
	ticker := time.NewTicker(scheduleInterval)
	defer ticker.Stop()

	s.checkSchedule()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkSchedule()
		}
	}
}
