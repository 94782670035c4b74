package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gestprev/backend/internal/infrastructure/persistence"
)

// Retention windows enforced by the nightly cleanup
const (
	ChatRetention     = 30 * 24 * time.Hour
	PresenceRetention = 24 * time.Hour
)

// MaintenanceService runs the scheduled housekeeping jobs
type MaintenanceService struct {
	chat  *persistence.ChatRepository
	users *persistence.UserRepository
	cron  *cron.Cron
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(chat *persistence.ChatRepository, users *persistence.UserRepository) *MaintenanceService {
	return &MaintenanceService{chat: chat, users: users, cron: cron.New()}
}

// Start registers and launches the cleanup schedule
func (s *MaintenanceService) Start() error {
	// Nightly, after the backup window
	if _, err := s.cron.AddFunc("0 4 * * *", s.cleanup); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs
func (s *MaintenanceService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *MaintenanceService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()

	if n, err := s.chat.DeleteOlderThan(ctx, now.Add(-ChatRetention)); err != nil {
		log.Printf("chat cleanup failed: %v", err)
	} else if n > 0 {
		log.Printf("chat cleanup removed %d messages", n)
	}

	if n, err := s.users.ClearStalePresence(ctx, now.Add(-PresenceRetention)); err != nil {
		log.Printf("presence cleanup failed: %v", err)
	} else if n > 0 {
		log.Printf("presence cleanup cleared %d users", n)
	}
}
