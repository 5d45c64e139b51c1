package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-capture/internal/domain/entities"
)

type countingDispatcher struct {
	mu      sync.Mutex
	ids     []uuid.UUID
	block   chan struct{}
	started chan struct{}
}

func (d *countingDispatcher) Dispatch(ctx context.Context, m *entities.Meeting) error {
	d.mu.Lock()
	d.ids = append(d.ids, m.ID)
	d.mu.Unlock()
	if d.started != nil {
		d.started <- struct{}{}
	}
	if d.block != nil {
		<-d.block
	}
	return nil
}

func (d *countingDispatcher) dispatched() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ids)
}

func dueMeeting(joinTime string) *entities.Meeting {
	return &entities.Meeting{
		ID:       uuid.New(),
		Name:     "Standup",
		BotName:  "Note Taker",
		URL:      "https://meet.example/abc",
		JoinTime: joinTime,
		Active:   true,
	}
}

func TestTickDispatchesEachDueMeeting(t *testing.T) {
	repo := newFakeMeetingRepo()
	repo.dueMeetings = []*entities.Meeting{dueMeeting("10:00"), dueMeeting("10:02")}

	d := &countingDispatcher{}
	s := NewScheduler(repo, d, SchedulerConfig{
		TickInterval:       time.Minute,
		LateWindow:         5 * time.Minute,
		EarlyWindow:        time.Minute,
		MaxConcurrentTicks: 3,
		DispatchTimeout:    time.Second,
	}, nil)

	s.Tick(context.Background(), time.Date(2026, 9, 1, 10, 3, 0, 0, time.UTC))
	s.wg.Wait()

	if d.dispatched() != 2 {
		t.Fatalf("expected 2 dispatches, got %d", d.dispatched())
	}
}

func TestTickQueriesCorrectWindow(t *testing.T) {
	repo := newFakeMeetingRepo()

	s := NewScheduler(repo, &countingDispatcher{}, SchedulerConfig{
		LateWindow:         5 * time.Minute,
		EarlyWindow:        time.Minute,
		MaxConcurrentTicks: 1,
		DispatchTimeout:    time.Second,
	}, nil)

	s.Tick(context.Background(), time.Date(2026, 9, 1, 10, 3, 0, 0, time.UTC))

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.dueWindows) != 1 {
		t.Fatalf("expected 1 window query, got %d", len(repo.dueWindows))
	}
	w := repo.dueWindows[0]
	if w.From != "09:58" || w.To != "10:04" {
		t.Fatalf("wrong window, got [%s, %s)", w.From, w.To)
	}
}

func TestTickCoalescesWhenSlotsExhausted(t *testing.T) {
	repo := newFakeMeetingRepo()
	repo.dueMeetings = []*entities.Meeting{dueMeeting("10:00"), dueMeeting("10:01")}

	d := &countingDispatcher{
		block:   make(chan struct{}),
		started: make(chan struct{}, 64),
	}
	s := NewScheduler(repo, d, SchedulerConfig{
		LateWindow:         5 * time.Minute,
		EarlyWindow:        time.Minute,
		MaxConcurrentTicks: 1,
		DispatchTimeout:    time.Second,
	}, nil)

	s.Tick(context.Background(), time.Date(2026, 9, 1, 10, 2, 0, 0, time.UTC))

	// Exactly one dispatch runs; the second meeting is deferred, not queued
	select {
	case <-d.started:
	case <-time.After(time.Second):
		t.Fatal("first dispatch never started")
	}
	if d.dispatched() != 1 {
		t.Fatalf("expected 1 dispatch with 1 slot, got %d", d.dispatched())
	}

	close(d.block)
	s.wg.Wait()

	// Later ticks pick the deferred meeting up again
	deadline := time.Now().Add(time.Second)
	for d.dispatched() < 3 && time.Now().Before(deadline) {
		s.Tick(context.Background(), time.Date(2026, 9, 1, 10, 3, 0, 0, time.UTC))
		s.wg.Wait()
	}
	if d.dispatched() < 3 {
		t.Fatalf("deferred meeting never redispatched, got %d total", d.dispatched())
	}
}

func TestSchedulerStartStop(t *testing.T) {
	repo := newFakeMeetingRepo()
	s := NewScheduler(repo, &countingDispatcher{}, SchedulerConfig{
		TickInterval:       10 * time.Millisecond,
		LateWindow:         5 * time.Minute,
		EarlyWindow:        time.Minute,
		MaxConcurrentTicks: 1,
		DispatchTimeout:    time.Second,
	}, nil)

	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	repo.mu.Lock()
	ticks := len(repo.dueWindows)
	repo.mu.Unlock()
	if ticks == 0 {
		t.Fatal("scheduler never ticked")
	}

	// Stop is idempotent
	s.Stop()
}
