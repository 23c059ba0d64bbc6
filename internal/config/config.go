// Package config loads settings for the command line and the MCP server.
//
// Values are layered, later sources overriding earlier ones:
//
//  1. Defaults()
//  2. a YAML file, if one is given
//  3. a .env file, loaded into the process environment without overriding
//     variables that are already set
//  4. TSROI_* environment variables (and FFMPEG_PATH)
//  5. command line flags, applied by the caller
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/timestamp-roi/internal/imaging"
	"github.com/ironsheep/timestamp-roi/internal/ocr"
	"github.com/ironsheep/timestamp-roi/internal/region"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TSROI_"

// DefaultCaptureTimeout bounds one ffmpeg frame capture.
const DefaultCaptureTimeout = 30 * time.Second

// Config holds every tunable setting.
type Config struct {
	// Backend is the preferred OCR backend name.
	Backend string `yaml:"backend"`

	// Fallback lists backends to try, in order, when Backend cannot start.
	Fallback []string `yaml:"fallback"`

	Tesseract ocr.TesseractConfig `yaml:"tesseract"`
	Paddle    ocr.PaddleConfig    `yaml:"paddle"`
	Windows   ocr.WindowsConfig   `yaml:"windows"`

	// FFmpegPath overrides ffmpeg discovery.
	FFmpegPath string `yaml:"ffmpeg_path"`

	CaptureTimeout time.Duration `yaml:"capture_timeout"`

	// Preprocess is the default conditioning for ROI recognition.
	Preprocess imaging.PreprocessConfig `yaml:"preprocess"`

	// ROI is the default region of interest. Zero means none.
	ROI region.Region `yaml:"roi"`

	LogLevel string `yaml:"log_level"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Backend:  ocr.TesseractName,
		Fallback: []string{ocr.WindowsName, ocr.PaddleName},
		Tesseract: ocr.TesseractConfig{
			Language: ocr.DefaultLanguage,
		},
		Paddle: ocr.PaddleConfig{
			Endpoint: ocr.DefaultPaddleEndpoint,
			Timeout:  ocr.DefaultPaddleTimeout,
		},
		CaptureTimeout: DefaultCaptureTimeout,
		Preprocess:     imaging.DefaultPreprocessConfig(),
		LogLevel:       "info",
	}
}

// Options says where Load looks for files. Empty fields are skipped.
type Options struct {
	File    string
	EnvFile string
}

// Load builds a Config from defaults, opts.File, opts.EnvFile and the
// environment, then validates it.
func Load(opts Options) (Config, error) {
	cfg := Defaults()

	if opts.File != "" {
		var err error
		if cfg, err = LoadFromFile(opts.File); err != nil {
			return cfg, err
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load %s: %w", opts.EnvFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()
	err := cfg.mergeFile(path)
	return cfg, err
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	setBool := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	setString("BACKEND", &c.Backend)
	if v, ok := os.LookupEnv(EnvPrefix + "FALLBACK"); ok {
		c.Fallback = SplitList(v)
	}
	setString("TESS_LANG", &c.Tesseract.Language)
	setString("TESSDATA", &c.Tesseract.TessdataPrefix)
	setString("PADDLE_URL", &c.Paddle.Endpoint)
	setDuration("PADDLE_TIMEOUT", &c.Paddle.Timeout)
	setString("WINDOWS_LANG", &c.Windows.Language)
	setString("POWERSHELL", &c.Windows.PowerShell)
	setDuration("CAPTURE_TIMEOUT", &c.CaptureTimeout)
	setBool("INVERT", &c.Preprocess.Invert)
	setBool("BINARIZE", &c.Preprocess.Binarize)
	setBool("DILATE", &c.Preprocess.Dilate)
	setString("LOG_LEVEL", &c.LogLevel)

	if v, ok := os.LookupEnv(EnvPrefix + "THRESHOLD"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTHRESHOLD: %w", EnvPrefix, err))
		} else {
			c.Preprocess.Threshold = n
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "ROI"); ok {
		r, err := region.Parse(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sROI: %w", EnvPrefix, err))
		} else {
			c.ROI = r
		}
	}
	if v := os.Getenv("FFMPEG_PATH"); v != "" && c.FFmpegPath == "" {
		c.FFmpegPath = v
	}

	return errors.Join(errs...)
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	known := map[string]bool{ocr.TesseractName: true, ocr.PaddleName: true, ocr.WindowsName: true}

	if !known[strings.ToLower(c.Backend)] {
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	for _, name := range c.Fallback {
		if !known[strings.ToLower(name)] {
			return fmt.Errorf("unknown fallback backend %q", name)
		}
	}
	if c.Preprocess.Threshold < 0 || c.Preprocess.Threshold > 255 {
		return fmt.Errorf("threshold must be between 0 and 255, got %d", c.Preprocess.Threshold)
	}
	if err := c.ROI.Validate(); err != nil {
		return err
	}
	if c.CaptureTimeout < 0 || c.Paddle.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// Preferred lists backend names in the order they should be tried.
func (c *Config) Preferred() []string {
	return append([]string{c.Backend}, c.Fallback...)
}

// Registry constructs every backend from the config. Nothing is initialized.
func (c *Config) Registry() *ocr.Registry {
	return ocr.NewRegistry(
		ocr.NewTesseract(c.Tesseract),
		ocr.NewWindowsNative(c.Windows),
		ocr.NewPaddle(c.Paddle),
	)
}

// SplitList splits a comma or whitespace separated list, dropping empties.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
