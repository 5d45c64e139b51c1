package recorder

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestRecordingPath(t *testing.T) {
	startedAt := time.Date(2026, 9, 1, 10, 4, 5, 0, time.UTC)
	got := RecordingPath("media/recordings", "7b0c", startedAt)

	want := filepath.Join("media/recordings", "meet_7b0c_20260901_100405.wav")
	if got != want {
		t.Fatalf("RecordingPath = %q, want %q", got, want)
	}
}

func TestBuildArgs(t *testing.T) {
	got := BuildArgs("default.monitor", "out.wav")
	want := []string{"-y", "-f", "pulse", "-i", "default.monitor", "-ac", "1", "-ar", "16000", "out.wav"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BuildArgs = %v, want %v", got, want)
	}
}

func TestStopWithoutStartIsNoOp(t *testing.T) {
	r := NewFFmpegRecorder("default.monitor", "out.wav", nil)
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("Stop before Start must be a no-op, got %v", err)
	}
}
