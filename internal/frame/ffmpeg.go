package frame

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/cyclopcam/logs"

	"github.com/ironsheep/timestamp-roi/internal/imaging"
)

// ErrFFmpegNotFound is returned when no ffmpeg executable can be located.
var ErrFFmpegNotFound = errors.New("ffmpeg not found")

// FindFFmpeg locates the ffmpeg executable.
// Priority: 1) custom, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg(custom string) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files (x86)\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// FFmpegSource captures frames by running one ffmpeg process per request.
type FFmpegSource struct {
	// FFmpegPath overrides executable discovery.
	FFmpegPath string

	// Timeout bounds a single capture. Zero means only ctx applies.
	Timeout time.Duration

	Log logs.Log
}

// NewFFmpegSource returns a source using ffmpegPath (empty for discovery).
func NewFFmpegSource(log logs.Log, ffmpegPath string, timeout time.Duration) *FFmpegSource {
	return &FFmpegSource{FFmpegPath: ffmpegPath, Timeout: timeout, Log: log}
}

// Capture seeks to position and decodes one frame as PNG from ffmpeg's stdout.
func (s *FFmpegSource) Capture(ctx context.Context, path string, position time.Duration) (*imaging.PixelBuffer, error) {
	if ctx.Err() != nil {
		return nil, canceled(ctx)
	}
	if position < 0 {
		return nil, fmt.Errorf("%w: negative position %v", ErrFrameUnavailable, position)
	}

	ffmpeg, err := FindFFmpeg(s.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrameUnavailable, err)
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	args := captureArgs(path, position)
	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, canceled(ctx)
	}
	if runErr != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %w: %s", ErrFrameUnavailable, runErr, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		// ffmpeg exits cleanly when seeking past the end.
		return nil, fmt.Errorf("%w: no frame at %v in %s", ErrFrameUnavailable, position, path)
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrFrameUnavailable, err)
	}

	buf := imaging.FromImage(img)
	if s.Log != nil {
		s.Log.Debugf("captured %dx%d frame from %s at %v in %v", buf.Width, buf.Height, path, position, time.Since(started))
	}
	return buf, nil
}

// captureArgs builds the ffmpeg command line. -ss before -i seeks on
// keyframes and then decodes forward, which is fast and frame-accurate.
func captureArgs(path string, position time.Duration) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatPosition(position),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

// formatPosition renders a duration as seconds with millisecond precision.
func formatPosition(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
