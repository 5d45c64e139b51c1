package postprocess

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-capture/internal/domain/entities"
)

type handoffRepo struct {
	mu sync.Mutex

	awaiting []*entities.Meeting
	claims   map[uuid.UUID]bool // true once claimed

	completed map[uuid.UUID][2]string
	failed    map[uuid.UUID]string
}

func newHandoffRepo(meetings ...*entities.Meeting) *handoffRepo {
	return &handoffRepo{
		awaiting:  meetings,
		claims:    map[uuid.UUID]bool{},
		completed: map[uuid.UUID][2]string{},
		failed:    map[uuid.UUID]string{},
	}
}

func (r *handoffRepo) Create(ctx context.Context, m *entities.Meeting) error { return nil }
func (r *handoffRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	return nil, nil
}
func (r *handoffRepo) List(ctx context.Context, limit, offset int) ([]*entities.Meeting, error) {
	return nil, nil
}
func (r *handoffRepo) GetDueMeetings(ctx context.Context, w entities.Window) ([]*entities.Meeting, error) {
	return nil, nil
}
func (r *handoffRepo) TrySetJoined(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}
func (r *handoffRepo) ClearJoined(ctx context.Context, id uuid.UUID) error { return nil }
func (r *handoffRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return nil
}
func (r *handoffRepo) MarkCapturing(ctx context.Context, id uuid.UUID, joinedAt time.Time) error {
	return nil
}
func (r *handoffRepo) FinalizeEnded(ctx context.Context, id uuid.UUID, audioPath, audioURL string) error {
	return nil
}

func (r *handoffRepo) FindAwaitingTranscription(ctx context.Context, limit int) ([]*entities.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Meeting
	for _, m := range r.awaiting {
		if !r.claims[m.ID] && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *handoffRepo) ClaimForTranscription(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claims[id] {
		return false, nil
	}
	r.claims[id] = true
	return true, nil
}

func (r *handoffRepo) CompleteTranscriptionHandoff(ctx context.Context, id uuid.UUID, transcriptionID, audioURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed[id] = [2]string{transcriptionID, audioURL}
	return nil
}

func (r *handoffRepo) FailTranscriptionHandoff(ctx context.Context, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[id] = reason
	return nil
}

type fakeSubmitter struct {
	mu    sync.Mutex
	errs  []error // popped per call; empty means success
	calls int
	urls  []string
}

func (f *fakeSubmitter) SubmitRecording(ctx context.Context, url string, metadata map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.urls = append(f.urls, url)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	return "transcript-1", nil
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) UploadRecording(ctx context.Context, localPath string) (string, error) {
	return f.url, f.err
}

func endedMeeting(audioPath, audioURL string) *entities.Meeting {
	return &entities.Meeting{
		ID:            uuid.New(),
		Name:          "Standup",
		CaptureStatus: entities.CaptureStatusEnded,
		AudioPath:     audioPath,
		AudioURL:      audioURL,
	}
}

func testService(repo *handoffRepo, sub *fakeSubmitter, up RecordingUploader) *Service {
	return NewService(repo, sub, up, Config{
		PollInterval:   time.Minute,
		BatchSize:      10,
		JobTimeout:     time.Second,
		MaxAttempts:    3,
		RetryBaseDelay: time.Millisecond,
	}, nil)
}

func TestProcessOnceSubmitsExistingURL(t *testing.T) {
	m := endedMeeting("/tmp/meet_a.wav", "http://store.example/meet_a.wav")
	repo := newHandoffRepo(m)
	sub := &fakeSubmitter{}

	testService(repo, sub, nil).ProcessOnce(context.Background())

	got, ok := repo.completed[m.ID]
	if !ok {
		t.Fatal("hand-off not completed")
	}
	if got[0] != "transcript-1" {
		t.Fatalf("transcription id not recorded, got %q", got[0])
	}
	if sub.urls[0] != "http://store.example/meet_a.wav" {
		t.Fatalf("submitted wrong URL %q", sub.urls[0])
	}
}

func TestProcessOnceUploadsWhenNoURL(t *testing.T) {
	m := endedMeeting("/tmp/meet_b.wav", "")
	repo := newHandoffRepo(m)
	sub := &fakeSubmitter{}
	up := &fakeUploader{url: "http://store.example/meet_b.wav"}

	testService(repo, sub, up).ProcessOnce(context.Background())

	got, ok := repo.completed[m.ID]
	if !ok {
		t.Fatal("hand-off not completed")
	}
	if got[1] != "http://store.example/meet_b.wav" {
		t.Fatalf("uploaded URL not recorded, got %q", got[1])
	}
}

func TestProcessOnceFailsWithoutUploader(t *testing.T) {
	m := endedMeeting("/tmp/meet_c.wav", "")
	repo := newHandoffRepo(m)
	sub := &fakeSubmitter{}

	testService(repo, sub, nil).ProcessOnce(context.Background())

	if _, ok := repo.failed[m.ID]; !ok {
		t.Fatal("expected hand-off failure without uploader")
	}
	if sub.calls != 0 {
		t.Fatal("nothing must be submitted without a URL")
	}
}

func TestProcessOnceClaimsExactlyOnce(t *testing.T) {
	m := endedMeeting("/tmp/meet_d.wav", "http://store.example/meet_d.wav")
	repo := newHandoffRepo(m)
	sub := &fakeSubmitter{}
	svc := testService(repo, sub, nil)

	svc.ProcessOnce(context.Background())
	svc.ProcessOnce(context.Background())

	if sub.calls != 1 {
		t.Fatalf("expected a single submission, got %d", sub.calls)
	}
}

func TestHandOffRetriesTransientErrors(t *testing.T) {
	m := endedMeeting("/tmp/meet_e.wav", "http://store.example/meet_e.wav")
	repo := newHandoffRepo(m)
	sub := &fakeSubmitter{errs: []error{errors.New("503 service unavailable")}}

	testService(repo, sub, nil).ProcessOnce(context.Background())

	if sub.calls != 2 {
		t.Fatalf("expected retry after transient error, got %d calls", sub.calls)
	}
	if _, ok := repo.completed[m.ID]; !ok {
		t.Fatal("hand-off not completed after retry")
	}
}

func TestHandOffStopsOnNonRetryableError(t *testing.T) {
	m := endedMeeting("/tmp/meet_f.wav", "http://store.example/meet_f.wav")
	repo := newHandoffRepo(m)
	sub := &fakeSubmitter{errs: []error{errors.New("assemblyai returned status 401")}}

	testService(repo, sub, nil).ProcessOnce(context.Background())

	if sub.calls != 1 {
		t.Fatalf("non-retryable error must not retry, got %d calls", sub.calls)
	}
	if _, ok := repo.failed[m.ID]; !ok {
		t.Fatal("expected hand-off marked failed")
	}
}
