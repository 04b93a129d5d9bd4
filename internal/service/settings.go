package service

import (
	"time"

	"github.com/lshigami/examhall/config"
	"github.com/lshigami/examhall/internal/policy"
)

// Settings are the configurable rules shared by the attempt and view services.
type Settings struct {
	Reveal          policy.RevealPolicy
	EnforceDeadline bool
	DeadlineGrace   time.Duration
}

func NewSettings(cfg *config.Config) Settings {
	return Settings{
		Reveal:          policy.RevealPolicy{RequireEndForResults: cfg.Attempts.ResultsRequireEndTime},
		EnforceDeadline: cfg.Attempts.EnforceDeadline,
		DeadlineGrace:   cfg.Attempts.DeadlineGrace,
	}
}

// deadlinePassed reports whether an attempt started at startedAt can no
// longer be submitted. Tests without a duration have no deadline.
func (s Settings) deadlinePassed(startedAt time.Time, durationMinutes int, now time.Time) bool {
	if !s.EnforceDeadline || durationMinutes <= 0 {
		return false
	}
	deadline := startedAt.Add(time.Duration(durationMinutes)*time.Minute + s.DeadlineGrace)
	return now.After(deadline)
}
