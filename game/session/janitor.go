package session

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// JanitorConfig sets how often the background jobs run
type JanitorConfig struct {
	CleanupInterval time.Duration
	MaxIdle         time.Duration
	SyncInterval    time.Duration
}

// DefaultJanitorConfig evicts sessions idle for a day, checking hourly,
// and syncs with the sessions directory every five seconds
func DefaultJanitorConfig() JanitorConfig {
	return JanitorConfig{
		CleanupInterval: time.Hour,
		MaxIdle:         24 * time.Hour,
		SyncInterval:    5 * time.Second,
	}
}

// Janitor runs the periodic session maintenance jobs
type Janitor struct {
	manager     *Manager
	persistence SessionPersistence
	config      JanitorConfig
	scheduler   gocron.Scheduler
}

// NewJanitor creates a janitor; persistence may be nil, which disables the sync job
func NewJanitor(manager *Manager, persistence SessionPersistence, config JanitorConfig) *Janitor {
	return &Janitor{
		manager:     manager,
		persistence: persistence,
		config:      config,
	}
}

// Start schedules the jobs and starts the scheduler
func (j *Janitor) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if j.config.CleanupInterval > 0 {
		_, err = scheduler.NewJob(
			gocron.DurationJob(j.config.CleanupInterval),
			gocron.NewTask(func() { j.CleanupExpired() }),
			gocron.WithName("session-cleanup"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule session cleanup: %w", err)
		}
	}

	if j.persistence != nil && j.config.SyncInterval > 0 {
		_, err = scheduler.NewJob(
			gocron.DurationJob(j.config.SyncInterval),
			gocron.NewTask(func() { j.SyncWithPersistence() }),
			gocron.WithName("session-sync"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule session sync: %w", err)
		}
	}

	scheduler.Start()
	j.scheduler = scheduler
	log.Info().
		Dur("cleanup_interval", j.config.CleanupInterval).
		Dur("max_idle", j.config.MaxIdle).
		Dur("sync_interval", j.config.SyncInterval).
		Msg("session janitor started")
	return nil
}

// Shutdown stops the scheduler and waits for running jobs
func (j *Janitor) Shutdown() error {
	if j.scheduler == nil {
		return nil
	}
	return j.scheduler.Shutdown()
}

// CleanupExpired evicts sessions idle for longer than MaxIdle
func (j *Janitor) CleanupExpired() int {
	removed := j.manager.CleanupExpiredSessions(j.config.MaxIdle)
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("cleaned up expired sessions")
	}
	return removed
}

// SyncWithPersistence drops in-memory sessions whose files were deleted
func (j *Janitor) SyncWithPersistence() int {
	if j.persistence == nil {
		return 0
	}

	pruned := 0
	for _, sess := range j.manager.List() {
		if j.persistence.Exists(sess.ID) {
			continue
		}
		if err := j.manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.Info().Str("session", sess.ID).Msg("pruned session from memory (file deleted)")
		}
	}
	return pruned
}
