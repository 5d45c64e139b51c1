package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-capture/internal/domain/entities"
	"github.com/johnquangdev/meeting-capture/internal/domain/repositories"
	"github.com/johnquangdev/meeting-capture/internal/usecase/capture"
	"github.com/johnquangdev/meeting-capture/internal/usecase/session"
)

type fakeMeetingRepo struct {
	mu sync.Mutex

	claimResult bool
	claimErr    error

	claimed      []uuid.UUID
	cleared      []uuid.UUID
	failed       map[uuid.UUID]string
	capturing    []uuid.UUID
	finalized    map[uuid.UUID][2]string
	dueMeetings  []*entities.Meeting
	dueErr       error
	dueWindows   []entities.Window
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{
		claimResult: true,
		failed:      map[uuid.UUID]string{},
		finalized:   map[uuid.UUID][2]string{},
	}
}

func (f *fakeMeetingRepo) Create(ctx context.Context, m *entities.Meeting) error { return nil }

func (f *fakeMeetingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	return nil, nil
}

func (f *fakeMeetingRepo) List(ctx context.Context, limit, offset int) ([]*entities.Meeting, error) {
	return nil, nil
}

func (f *fakeMeetingRepo) GetDueMeetings(ctx context.Context, window entities.Window) ([]*entities.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dueWindows = append(f.dueWindows, window)
	return f.dueMeetings, f.dueErr
}

func (f *fakeMeetingRepo) TrySetJoined(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	if f.claimResult {
		f.claimed = append(f.claimed, id)
	}
	return f.claimResult, nil
}

func (f *fakeMeetingRepo) ClearJoined(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, id)
	return nil
}

func (f *fakeMeetingRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[id] = reason
	return nil
}

func (f *fakeMeetingRepo) MarkCapturing(ctx context.Context, id uuid.UUID, joinedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capturing = append(f.capturing, id)
	return nil
}

func (f *fakeMeetingRepo) FinalizeEnded(ctx context.Context, id uuid.UUID, audioPath, audioURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalized[id] = [2]string{audioPath, audioURL}
	return nil
}

func (f *fakeMeetingRepo) ClaimForTranscription(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeMeetingRepo) FindAwaitingTranscription(ctx context.Context, limit int) ([]*entities.Meeting, error) {
	return nil, nil
}

func (f *fakeMeetingRepo) CompleteTranscriptionHandoff(ctx context.Context, id uuid.UUID, transcriptionID, audioURL string) error {
	return nil
}

func (f *fakeMeetingRepo) FailTranscriptionHandoff(ctx context.Context, id uuid.UUID, reason string) error {
	return nil
}

type fakeScreenshotRepo struct {
	mu      sync.Mutex
	records []*entities.Screenshot
}

func (f *fakeScreenshotRepo) Create(ctx context.Context, s *entities.Screenshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, s)
	return nil
}

func (f *fakeScreenshotRepo) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Screenshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, nil
}

type fakeStatusStore struct {
	mu     sync.Mutex
	states map[string]string
}

func newFakeStatusStore() *fakeStatusStore {
	return &fakeStatusStore{states: map[string]string{}}
}

func (f *fakeStatusStore) SetSessionState(ctx context.Context, meetingID, state string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[meetingID] = state
	return nil
}

func (f *fakeStatusStore) ClearSession(ctx context.Context, meetingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, meetingID)
	return nil
}

func (f *fakeStatusStore) ListSessions(ctx context.Context) ([]repositories.SessionStatus, error) {
	return nil, nil
}

// sessionAgent is a scripted agent for full dispatch runs
type sessionAgent struct {
	mu         sync.Mutex
	visible    map[string]bool
	endVisible bool
	closes     int
}

func newSessionAgent() *sessionAgent {
	return &sessionAgent{visible: map[string]bool{}}
}

func (a *sessionAgent) Open(ctx context.Context, url string) error { return nil }

func (a *sessionAgent) WaitVisible(ctx context.Context, selector string) error {
	a.mu.Lock()
	ok := a.visible[selector]
	a.mu.Unlock()
	if !ok {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (a *sessionAgent) SendKeys(ctx context.Context, selector, text string) error { return nil }

func (a *sessionAgent) Click(ctx context.Context, selector string) error { return nil }

func (a *sessionAgent) ElementExists(ctx context.Context, selector string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.endVisible, nil
}

func (a *sessionAgent) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("png"), nil
}

func (a *sessionAgent) IsReachable(ctx context.Context) bool { return true }

func (a *sessionAgent) Close() error {
	a.mu.Lock()
	a.closes++
	a.mu.Unlock()
	return nil
}

func (a *sessionAgent) endCall() {
	a.mu.Lock()
	a.endVisible = true
	a.mu.Unlock()
}

type stubRecorder struct {
	output string
}

func (r *stubRecorder) Start() error                   { return nil }
func (r *stubRecorder) Stop(ctx context.Context) error { return nil }
func (r *stubRecorder) OutputPath() string             { return r.output }

func testMeeting() *entities.Meeting {
	return &entities.Meeting{
		ID:      uuid.New(),
		Name:    "Standup",
		BotName: "Note Taker",
		URL:     "https://meet.example/abc",
	}
}

func testOrchestratorConfig(t *testing.T) Config {
	return Config{
		Driver: session.Config{
			PageLoadRetries:  1,
			PageLoadBackoff:  time.Millisecond,
			NameFieldTimeout: 50 * time.Millisecond,
			ControlTimeout:   50 * time.Millisecond,
			EndPollInterval:  10 * time.Millisecond,
		},
		ScreenshotsDir:   t.TempDir(),
		SnapshotInterval: 10 * time.Millisecond,
		StopTimeout:      time.Second,
	}
}

func TestDispatchLostClaimIsNoOp(t *testing.T) {
	repo := newFakeMeetingRepo()
	repo.claimResult = false

	agentCalls := 0
	o := NewOrchestrator(repo, &fakeScreenshotRepo{}, nil,
		func() (session.Agent, error) {
			agentCalls++
			return newSessionAgent(), nil
		},
		func(meetingID string, startedAt time.Time) capture.Recorder {
			return &stubRecorder{}
		},
		nil, testOrchestratorConfig(t), nil)

	if err := o.Dispatch(context.Background(), testMeeting()); err != nil {
		t.Fatalf("lost claim must be silent, got %v", err)
	}
	if agentCalls != 0 {
		t.Fatal("a lost claim must not open an agent")
	}
}

func TestDispatchJoinFailureMarksFailedWithoutRearm(t *testing.T) {
	repo := newFakeMeetingRepo()
	agent := newSessionAgent()
	// name field never appears: transient join failure

	o := NewOrchestrator(repo, &fakeScreenshotRepo{}, newFakeStatusStore(),
		func() (session.Agent, error) { return agent, nil },
		func(meetingID string, startedAt time.Time) capture.Recorder { return &stubRecorder{} },
		nil, testOrchestratorConfig(t), nil)

	m := testMeeting()
	if err := o.Dispatch(context.Background(), m); err == nil {
		t.Fatal("expected join failure")
	}

	if _, ok := repo.failed[m.ID]; !ok {
		t.Fatal("meeting not marked failed")
	}
	if len(repo.cleared) != 0 {
		t.Fatal("meeting must stay claimed when retry is disabled")
	}
}

func TestDispatchJoinFailureRearmsWhenConfigured(t *testing.T) {
	repo := newFakeMeetingRepo()
	agent := newSessionAgent()

	cfg := testOrchestratorConfig(t)
	cfg.RetryOnJoinFailure = true

	o := NewOrchestrator(repo, &fakeScreenshotRepo{}, nil,
		func() (session.Agent, error) { return agent, nil },
		func(meetingID string, startedAt time.Time) capture.Recorder { return &stubRecorder{} },
		nil, cfg, nil)

	m := testMeeting()
	if err := o.Dispatch(context.Background(), m); err == nil {
		t.Fatal("expected join failure")
	}
	if len(repo.cleared) != 1 {
		t.Fatal("transient failure with retry enabled must re-arm the meeting")
	}
}

func TestDispatchFullSession(t *testing.T) {
	repo := newFakeMeetingRepo()
	shots := &fakeScreenshotRepo{}
	status := newFakeStatusStore()

	agent := newSessionAgent()
	agent.visible["//input[@placeholder='Your name']"] = true
	agent.visible["//button[.//span[contains(text(),'Join now')]]"] = true

	rec := &stubRecorder{output: "/tmp/meet_x.wav"}

	o := NewOrchestrator(repo, shots, status,
		func() (session.Agent, error) { return agent, nil },
		func(meetingID string, startedAt time.Time) capture.Recorder { return rec },
		nil, testOrchestratorConfig(t), nil)

	m := testMeeting()

	go func() {
		time.Sleep(60 * time.Millisecond)
		agent.endCall()
	}()

	if err := o.Dispatch(context.Background(), m); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.claimed) != 1 {
		t.Fatal("meeting was not claimed")
	}
	if len(repo.capturing) != 1 {
		t.Fatal("meeting was not marked capturing")
	}
	final, ok := repo.finalized[m.ID]
	if !ok {
		t.Fatal("meeting was not finalized")
	}
	if final[0] != "/tmp/meet_x.wav" {
		t.Fatalf("audio path not recorded, got %q", final[0])
	}

	shots.mu.Lock()
	if len(shots.records) == 0 {
		t.Fatal("no screenshot records persisted")
	}
	shots.mu.Unlock()

	status.mu.Lock()
	if len(status.states) != 0 {
		t.Fatal("session status not cleared after dispatch")
	}
	status.mu.Unlock()
}
