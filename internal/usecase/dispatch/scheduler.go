package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-capture/internal/domain/entities"
	"github.com/johnquangdev/meeting-capture/internal/domain/repositories"
	"github.com/johnquangdev/meeting-capture/pkg/jobcontext"
)

// SchedulerConfig holds the dispatch polling policy
type SchedulerConfig struct {
	// TickInterval is how often due meetings are polled
	TickInterval time.Duration

	// LateWindow and EarlyWindow define the dispatch window around each
	// tick: join times in [now-LateWindow, now+EarlyWindow) are due
	LateWindow  time.Duration
	EarlyWindow time.Duration

	// MaxConcurrentTicks caps simultaneously running dispatch jobs; when
	// all slots are busy, new due meetings coalesce into a later tick
	MaxConcurrentTicks int

	// DispatchTimeout bounds one whole capture session
	DispatchTimeout time.Duration
}

// Dispatcher runs one claimed meeting to completion
type Dispatcher interface {
	Dispatch(ctx context.Context, m *entities.Meeting) error
}

// Scheduler polls for due meetings every tick and hands each one to the
// orchestrator in its own goroutine. A failure in one dispatch never
// affects the others or the tick loop itself.
type Scheduler struct {
	meetings   repositories.MeetingRepository
	dispatcher Dispatcher
	cfg        SchedulerConfig
	logger     *zap.Logger

	slots    chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	running bool
}

func NewScheduler(meetings repositories.MeetingRepository, dispatcher Dispatcher, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if cfg.MaxConcurrentTicks < 1 {
		cfg.MaxConcurrentTicks = 1
	}
	return &Scheduler{
		meetings:   meetings,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		slots:      make(chan struct{}, cfg.MaxConcurrentTicks),
		stopChan:   make(chan struct{}),
	}
}

// Start launches the tick loop
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("🚀 Dispatch scheduler started",
			zap.Duration("tick_interval", s.cfg.TickInterval),
			zap.Int("max_concurrent", s.cfg.MaxConcurrentTicks),
		)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx, time.Now())
			}
		}
	}()
}

// Stop stops the tick loop and waits for in-flight dispatches to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()

	if s.logger != nil {
		s.logger.Info("🛑 Dispatch scheduler stopped")
	}
}

// Tick runs one polling pass at the given time. Exported so a single pass
// can be driven directly.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	window := entities.DispatchWindow(now, s.cfg.LateWindow, s.cfg.EarlyWindow)

	meetings, err := s.meetings.GetDueMeetings(ctx, window)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Cannot query due meetings", zap.Error(err))
		}
		return
	}
	if len(meetings) == 0 {
		return
	}

	if s.logger != nil {
		s.logger.Info("📋 Due meetings found",
			zap.Int("count", len(meetings)),
			zap.String("window_from", window.From),
			zap.String("window_to", window.To),
		)
	}

	for _, m := range meetings {
		select {
		case s.slots <- struct{}{}:
		default:
			// All slots busy; the meeting stays unclaimed and a later
			// tick picks it up while it is still inside the window
			if s.logger != nil {
				s.logger.Warn("⚠️ Dispatch slots exhausted, deferring meeting",
					zap.String("meeting_id", m.ID.String()),
				)
			}
			continue
		}

		s.wg.Add(1)
		go func(m *entities.Meeting) {
			defer s.wg.Done()
			defer func() { <-s.slots }()

			jobCtx, cancel := jobcontext.JobBegin(ctx, m.ID, jobcontext.JobTypeCapture, s.cfg.DispatchTimeout)
			defer cancel()

			if err := s.dispatcher.Dispatch(jobCtx, m); err != nil && s.logger != nil {
				s.logger.Error("❌ Dispatch failed",
					zap.String("meeting_id", m.ID.String()),
					zap.String("meeting_name", m.Name),
					zap.Error(err),
				)
			}
		}(m)
	}
}
