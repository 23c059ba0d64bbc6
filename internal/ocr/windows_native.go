package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"sync"
)

// WindowsName is the registry name of the Windows.Media.Ocr backend.
const WindowsName = "windows"

// WindowsConfig configures the Windows native backend.
type WindowsConfig struct {
	// Language is a BCP-47 tag such as "en-US". Empty uses the user profile
	// languages.
	Language string `yaml:"language"`

	// PowerShell is the interpreter to run. Empty means "powershell.exe".
	PowerShell string `yaml:"powershell"`
}

// WindowsNative drives the Windows.Media.Ocr engine through an embedded
// PowerShell script. It is geometry-capable. On other platforms Init always
// fails.
type WindowsNative struct {
	cfg WindowsConfig

	mu         sync.Mutex
	ready      bool
	scriptPath string
	language   string
}

// NewWindowsNative returns an uninitialized Windows backend.
func NewWindowsNative(cfg WindowsConfig) *WindowsNative {
	if cfg.PowerShell == "" {
		cfg.PowerShell = "powershell.exe"
	}
	return &WindowsNative{cfg: cfg}
}

func (w *WindowsNative) Name() string { return WindowsName }

func (w *WindowsNative) Capability() Capability { return CapabilityGeometry }

// Info reports availability by attempting Init.
func (w *WindowsNative) Info() Info {
	info := Info{
		Name:       WindowsName,
		Capability: CapabilityGeometry.String(),
	}
	if err := w.Init(context.Background()); err != nil {
		info.Error = err.Error()
		return info
	}
	w.mu.Lock()
	info.Detail = "language " + w.language
	w.mu.Unlock()
	info.Available = true
	return info
}

type windowsWord struct {
	Text string `json:"text"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
}

type windowsLine struct {
	Text  string          `json:"text"`
	Words json.RawMessage `json:"words"`
}

type windowsOutput struct {
	Text  string          `json:"text"`
	Lines json.RawMessage `json:"lines"`
}

// decodeList accepts a JSON array, a single object, or nothing. PowerShell's
// ConvertTo-Json collapses one-element arrays into bare objects.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var out []T
		err := json.Unmarshal(raw, &out)
		return out, err
	}
	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}

// parseWindowsOutput converts the script's JSON into a Result.
func parseWindowsOutput(data []byte) (*Result, error) {
	var out windowsOutput
	if err := json.Unmarshal(bytes.TrimSpace(data), &out); err != nil {
		return nil, fmt.Errorf("%w: decode script output: %w", ErrRecognitionFailed, err)
	}

	rawLines, err := decodeList[windowsLine](out.Lines)
	if err != nil {
		return nil, fmt.Errorf("%w: decode lines: %w", ErrRecognitionFailed, err)
	}

	result := &Result{Text: out.Text}
	for _, rl := range rawLines {
		rawWords, err := decodeList[windowsWord](rl.Words)
		if err != nil {
			return nil, fmt.Errorf("%w: decode words: %w", ErrRecognitionFailed, err)
		}

		line := Line{Text: rl.Text}
		for i, rw := range rawWords {
			b := image.Rect(rw.X, rw.Y, rw.X+rw.W, rw.Y+rw.H)
			line.Words = append(line.Words, Word{Text: rw.Text, Bounds: b})
			if i == 0 {
				line.Bounds = b
			} else {
				line.Bounds = line.Bounds.Union(b)
			}
		}
		result.Lines = append(result.Lines, line)
	}
	return result, nil
}
