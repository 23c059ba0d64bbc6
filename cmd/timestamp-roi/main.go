// Command timestamp-roi reads burned-in timestamps from video frames.
//
// It runs either as an MCP server on stdio (serve) or as a one-shot tool
// (ocr, locate, preview, backends). Logs always go to stderr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ironsheep/timestamp-roi/internal/config"
	"github.com/ironsheep/timestamp-roi/internal/logging"
	"github.com/ironsheep/timestamp-roi/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		logging.NewStderr("TSROI_LOG_LEVEL").Errorf("%v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	server.ServerVersion = Version

	return &cli.App{
		Name:    "timestamp-roi",
		Usage:   "Read burned-in timestamps from a region of a video frame",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"TSROI_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before reading TSROI_* variables",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "OCR backend: tesseract, windows or paddle",
			},
			&cli.StringFlag{
				Name:  "lang",
				Usage: "Tesseract language code",
			},
			&cli.StringFlag{
				Name:  "tessdata",
				Usage: "directory holding Tesseract traineddata files",
			},
			&cli.StringFlag{
				Name:  "paddle-url",
				Usage: "PaddleHub Serving ocr_system endpoint",
			},
			&cli.StringFlag{
				Name:  "ffmpeg",
				Usage: "path to the ffmpeg executable",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			ocrCommand(),
			locateCommand(),
			previewCommand(),
			backendsCommand(),
			versionCommand(),
		},
	}
}

// env is what every command needs: settings and a stderr logger.
type env struct {
	cfg config.Config
	log *logging.Logger
}

// setup loads configuration, applies global flags over it and builds the
// logger.
func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(config.Options{
		File:    c.String("config"),
		EnvFile: c.String("env-file"),
	})
	if err != nil {
		return nil, err
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("lang") {
		cfg.Tesseract.Language = c.String("lang")
	}
	if c.IsSet("tessdata") {
		cfg.Tesseract.TessdataPrefix = c.String("tessdata")
	}
	if c.IsSet("paddle-url") {
		cfg.Paddle.Endpoint = c.String("paddle-url")
	}
	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &env{
		cfg: cfg,
		log: logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel)),
	}, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server on stdin/stdout",
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			e.log.Infof("timestamp-roi %s (built %s, commit %s) serving MCP on stdio", Version, BuildTime, GitCommit)
			srv := server.New(e.log, e.cfg)
			if err := srv.Run(c.Context); err != nil && c.Context.Err() == nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(c *cli.Context) error {
			w := c.App.Writer
			fmt.Fprintf(w, "timestamp-roi %s\n", Version)
			fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
			return nil
		},
	}
}
