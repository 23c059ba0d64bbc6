//go:build windows

package ocr

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ironsheep/timestamp-roi/internal/imaging"
)

//go:embed scripts/windows_ocr.ps1
var windowsScript []byte

// Init writes the script to a temp file and probes the engine for a usable
// language pack.
func (w *WindowsNative) Init(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ready {
		return nil
	}

	f, err := os.CreateTemp("", "tsroi-ocr-*.ps1")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackendInitFailed, err)
	}
	if _, err := f.Write(windowsScript); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("%w: %w", ErrBackendInitFailed, err)
	}
	f.Close()

	out, err := w.run(ctx, f.Name(), "-Probe")
	if err != nil {
		os.Remove(f.Name())
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrBackendInitFailed, err)
	}

	var probe struct {
		Language string `json:"language"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(out), &probe); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("%w: probe output: %w", ErrBackendInitFailed, err)
	}

	w.scriptPath = f.Name()
	w.language = probe.Language
	w.ready = true
	return nil
}

// Recognize hands buf to the engine through a temporary PNG file.
func (w *WindowsNative) Recognize(ctx context.Context, buf *imaging.PixelBuffer) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	ready, script := w.ready, w.scriptPath
	w.mu.Unlock()
	if !ready {
		return nil, ErrBackendUninitialized
	}
	if buf.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrRecognitionFailed)
	}

	data, err := encodePNG(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}
	imgPath := filepath.Join(os.TempDir(), "tsroi-"+uuid.NewString()+".png")
	if err := os.WriteFile(imgPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}
	defer os.Remove(imgPath)

	out, err := w.run(ctx, script, "-ImagePath", imgPath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}
	return parseWindowsOutput(out)
}

func (w *WindowsNative) run(ctx context.Context, script string, args ...string) ([]byte, error) {
	full := []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-File", script}
	full = append(full, args...)
	if w.cfg.Language != "" {
		full = append(full, "-Language", w.cfg.Language)
	}

	cmd := exec.CommandContext(ctx, w.cfg.PowerShell, full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", err, msg)
	}
	return stdout.Bytes(), nil
}
