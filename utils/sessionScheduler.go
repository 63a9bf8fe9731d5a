package utils

import (
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Sweeper drops expired records and reports how many went away.
type Sweeper interface {
	Sweep() int
}

func logScheduler(format string, args ...any) {
	log.WithField("component", "session-scheduler").Infof(format, args...)
}

// StartSessionSweep registers the once-a-minute expired session sweep on c.
func StartSessionSweep(c *cron.Cron, s Sweeper) error {
	_, err := c.AddFunc("* * * * *", func() {
		if removed := s.Sweep(); removed > 0 {
			logScheduler("removed %d expired sessions", removed)
		}
	})
	if err != nil {
		return err
	}
	logScheduler("session sweep scheduled - runs every minute")
	return nil
}

// InitializeSessionScheduler starts the cron runner for session upkeep.
// The caller stops it on shutdown.
func InitializeSessionScheduler(s Sweeper) (*cron.Cron, error) {
	c := cron.New()
	if err := StartSessionSweep(c, s); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
