package recorder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-capture/errors"
)

// FFmpegRecorder supervises one ffmpeg child process capturing a logical
// audio input device to a mono 16kHz WAV file.
type FFmpegRecorder struct {
	device     string
	outputPath string
	logger     *zap.Logger

	cmd     *exec.Cmd
	logFile *os.File
	done    chan error
}

// NewFFmpegRecorder creates a recorder writing to outputPath
func NewFFmpegRecorder(device, outputPath string, logger *zap.Logger) *FFmpegRecorder {
	return &FFmpegRecorder{
		device:     device,
		outputPath: outputPath,
		logger:     logger,
		done:       make(chan error, 1),
	}
}

// RecordingPath builds the session-scoped output path:
// <dir>/meet_<meetingID>_<timestamp>.wav
func RecordingPath(dir, meetingID string, startedAt time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("meet_%s_%s.wav", meetingID, startedAt.Format("20060102_150405")))
}

// BuildArgs builds the ffmpeg argument list for capturing a pulse monitor
// device to a single-channel 16kHz file
func BuildArgs(device, outputPath string) []string {
	return []string{
		"-y",
		"-f", "pulse",
		"-i", device,
		"-ac", "1",
		"-ar", "16000",
		outputPath,
	}
}

// OutputPath returns the path the recorder writes to
func (r *FFmpegRecorder) OutputPath() string {
	return r.outputPath
}

// Start launches the ffmpeg process. A launch failure is returned to the
// caller; nothing is left running.
func (r *FFmpegRecorder) Start() error {
	if err := os.MkdirAll(filepath.Dir(r.outputPath), 0o755); err != nil {
		return apperrors.ErrRecorderStart(err)
	}

	cmd := exec.Command("ffmpeg", BuildArgs(r.device, r.outputPath)...)

	// ffmpeg logs to stderr; tee it to a per-recording log for diagnostics
	if logFile, err := os.Create(r.outputPath + ".ffmpeg.log"); err == nil {
		cmd.Stderr = logFile
		r.logFile = logFile
	}

	if err := cmd.Start(); err != nil {
		if r.logFile != nil {
			r.logFile.Close()
		}
		return apperrors.ErrRecorderStart(err)
	}

	r.cmd = cmd
	go func() {
		r.done <- cmd.Wait()
	}()

	if r.logger != nil {
		r.logger.Info("🎙️ Audio recorder started",
			zap.String("device", r.device),
			zap.String("output_path", r.outputPath),
			zap.Int("pid", cmd.Process.Pid),
		)
	}
	return nil
}

// Stop sends SIGTERM so ffmpeg flushes its output, then waits for the
// process to exit. If ctx expires first, the process is killed and an error
// is returned so the caller can report a degraded shutdown.
func (r *FFmpegRecorder) Stop(ctx context.Context) error {
	if r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	defer func() {
		if r.logFile != nil {
			r.logFile.Close()
			r.logFile = nil
		}
		r.cmd = nil
	}()

	if err := r.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already exited; collect the wait result
		<-r.done
		return nil
	}

	select {
	case <-r.done:
		if r.logger != nil {
			r.logger.Info("🎙️ Audio recorder stopped", zap.String("output_path", r.outputPath))
		}
		return nil
	case <-ctx.Done():
		r.cmd.Process.Kill()
		<-r.done
		if r.logger != nil {
			r.logger.Warn("⚠️ Audio recorder force-killed after stop deadline",
				zap.String("output_path", r.outputPath),
			)
		}
		return fmt.Errorf("recorder force-killed after stop deadline: %w", ctx.Err())
	}
}
