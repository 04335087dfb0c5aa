package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"AgriValue/internal/appraisal"
	"AgriValue/internal/notifier"

	"github.com/robfig/cron/v3"
)

// Sender delivers a report somewhere the user will see it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the periodic price refresh of saved appraisals.
type Scheduler struct {
	Cron     *cron.Cron
	Service  *appraisal.Service
	Notifier Sender // optional
	Limit    int
	Ctx      context.Context

	wg sync.WaitGroup
}

// NewScheduler creates a new Scheduler. notifier may be nil.
func NewScheduler(ctx context.Context, svc *appraisal.Service, notifier Sender, limit int) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Notifier: notifier,
		Limit:    limit,
		Ctx:      ctx,
	}
}

// Register schedules the refresh task.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running refreshes to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately.
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

// RunRefreshAsync starts the refresh task in the background. Stop waits for it.
func (s *Scheduler) RunRefreshAsync() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refreshTask()
	}()
}

func (s *Scheduler) refreshTask() {
	log.Println("[INFO] running price refresh")
	report, err := s.Service.Refresh(s.Ctx, s.Limit)
	if err != nil {
		log.Printf("[ERROR] price refresh: %v", err)
		return
	}
	if report.Checked == 0 {
		log.Println("[INFO] price refresh: nothing to refresh")
		return
	}
	s.trySend(notifier.FormatRefresh(report))
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	var name string
	if fields := strings.Fields(command); len(fields) > 0 {
		name = strings.ToLower(fields[0])
	}
	switch name {
	case "/latest":
		a, ok := s.Service.Latest(ctx)
		if !ok {
			return "No history yet."
		}
		return notifier.FormatAppraisal(a, notifier.DefaultListingLimit)
	case "/history":
		return notifier.FormatHistory(s.Service.History.GetAll(ctx))
	case "/refresh":
		report, err := s.Service.Refresh(ctx, s.Limit)
		if err != nil {
			return fmt.Sprintf("Refresh failed: %v", err)
		}
		return notifier.FormatRefresh(report)
	default:
		return "Commands:\n• /latest\n• /history\n• /refresh"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Printf("[INFO] report:\n%s", text)
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
