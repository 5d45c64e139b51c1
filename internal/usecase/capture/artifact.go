package capture

import (
	"sync"
	"time"
)

// ScreenshotRecord is one captured frame on disk
type ScreenshotRecord struct {
	Path       string
	CapturedAt time.Time
}

// Artifact accumulates the durable outputs of one capture session. Both the
// recorder and the snapshot loop write to it concurrently.
type Artifact struct {
	mu          sync.Mutex
	audioPath   string
	screenshots []ScreenshotRecord
}

func NewArtifact() *Artifact {
	return &Artifact{}
}

func (a *Artifact) SetAudioPath(path string) {
	a.mu.Lock()
	a.audioPath = path
	a.mu.Unlock()
}

func (a *Artifact) AudioPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.audioPath
}

func (a *Artifact) AppendScreenshot(path string, capturedAt time.Time) {
	a.mu.Lock()
	a.screenshots = append(a.screenshots, ScreenshotRecord{Path: path, CapturedAt: capturedAt})
	a.mu.Unlock()
}

// Screenshots returns a copy of the recorded frames in capture order
func (a *Artifact) Screenshots() []ScreenshotRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ScreenshotRecord, len(a.screenshots))
	copy(out, a.screenshots)
	return out
}
