package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/urfave/cli/v2"

	"github.com/ironsheep/timestamp-roi/internal/frame"
	"github.com/ironsheep/timestamp-roi/internal/imaging"
	"github.com/ironsheep/timestamp-roi/internal/logging"
	"github.com/ironsheep/timestamp-roi/internal/ocr"
	"github.com/ironsheep/timestamp-roi/internal/pipeline"
	"github.com/ironsheep/timestamp-roi/internal/region"
)

func frameFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Usage:    "video file or still frame",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "position",
			Aliases: []string{"p"},
			Usage:   "seek position: seconds, mm:ss(.ms) or a duration such as 1m2s",
		},
	}
}

func roiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "roi",
			Usage: "region as \"x,y,w,h\" fractions of the frame",
		},
		&cli.BoolFlag{Name: "invert", Usage: "invert colours first"},
		&cli.BoolFlag{Name: "binarize", Usage: "threshold to black and white"},
		&cli.IntFlag{Name: "threshold", Usage: "binarization threshold 0-255", Value: imaging.DefaultThreshold},
		&cli.BoolFlag{Name: "dilate", Usage: "thicken bright strokes"},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "print the full result as JSON"}
}

func concat(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// roiOptions resolves the ROI and preprocessing from flags over the config.
func (e *env) roiOptions(c *cli.Context) (region.Region, imaging.PreprocessConfig, error) {
	roi := e.cfg.ROI
	if c.IsSet("roi") {
		r, err := region.Parse(c.String("roi"))
		if err != nil {
			return roi, e.cfg.Preprocess, err
		}
		roi = r
	}
	if roi.IsZero() {
		return roi, e.cfg.Preprocess, fmt.Errorf("no region given: pass --roi or set roi in the config")
	}

	pre := e.cfg.Preprocess
	if c.IsSet("invert") {
		pre.Invert = c.Bool("invert")
	}
	if c.IsSet("binarize") {
		pre.Binarize = c.Bool("binarize")
	}
	if c.IsSet("threshold") {
		pre.Threshold = c.Int("threshold")
		if pre.Threshold < 0 || pre.Threshold > 255 {
			return roi, pre, fmt.Errorf("threshold must be between 0 and 255, got %d", pre.Threshold)
		}
	}
	if c.IsSet("dilate") {
		pre.Dilate = c.Bool("dilate")
	}
	return roi, pre, nil
}

// source builds the frame source used by one-shot commands.
func (e *env) source() frame.Source {
	return &frame.Auto{
		Still: frame.NewStillSource(nil),
		Video: frame.NewFFmpegSource(logging.NewPrefixLogger(e.log, "ffmpeg:"), e.cfg.FFmpegPath, e.cfg.CaptureTimeout),
	}
}

func (e *env) capture(c *cli.Context) (*imaging.PixelBuffer, time.Duration, error) {
	pos, err := frame.ParsePosition(c.String("position"))
	if err != nil {
		return nil, 0, err
	}
	buf, err := e.source().Capture(c.Context, c.String("input"), pos)
	return buf, pos, err
}

func (e *env) backend(c *cli.Context) (ocr.Backend, error) {
	reg := e.cfg.Registry()
	name := ""
	if c.IsSet("backend") {
		name = e.cfg.Backend
	}
	return reg.Select(c.Context, name, e.cfg.Preferred()...)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ocrCommand() *cli.Command {
	return &cli.Command{
		Name:  "ocr",
		Usage: "Read the timestamp inside a region of a frame",
		Flags: concat(frameFlags(), roiFlags(), []cli.Flag{jsonFlag()}),
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			roi, pre, err := e.roiOptions(c)
			if err != nil {
				return err
			}
			pos, err := frame.ParsePosition(c.String("position"))
			if err != nil {
				return err
			}
			backend, err := e.backend(c)
			if err != nil {
				return err
			}

			rec, err := pipeline.New(e.log).Extract(c.Context, e.source(), c.String("input"), pos, roi, pre, backend)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(c.App.Writer, rec)
			}
			if rec.Failed {
				fmt.Fprintln(c.App.Writer, rec.Diagnostic)
				return cli.Exit("", 2)
			}
			fmt.Fprintln(c.App.Writer, rec.Value)
			return nil
		},
	}
}

func locateCommand() *cli.Command {
	return &cli.Command{
		Name:  "locate",
		Usage: "Find the timestamp in a whole frame and print a region for it",
		Flags: concat(frameFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "auto, geometry, scan or text",
				Value: "auto",
			},
			jsonFlag(),
		}),
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			buf, _, err := e.capture(c)
			if err != nil {
				return err
			}
			backend, err := e.backend(c)
			if err != nil {
				return err
			}

			coord := pipeline.New(e.log)
			var loc *pipeline.Location
			switch c.String("mode") {
			case "auto":
				loc, err = coord.Locate(c.Context, buf, backend)
			case "geometry":
				loc, err = coord.AutoLocate(c.Context, buf, backend)
			case "scan":
				loc, err = coord.ScanLocate(c.Context, buf, backend)
			case "text":
				loc, err = coord.FindTimestampText(c.Context, buf, backend)
			default:
				return fmt.Errorf("unknown mode %q", c.String("mode"))
			}
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return printJSON(c.App.Writer, loc)
			}
			switch {
			case loc.Failed:
				fmt.Fprintln(c.App.Writer, loc.Diagnostic)
				return cli.Exit("", 2)
			case !loc.Found:
				return cli.Exit("no timestamp found", 3)
			case loc.HasRegion:
				fmt.Fprintf(c.App.Writer, "%s\t%s\n", loc.Match.Region, loc.Match.Text)
			default:
				fmt.Fprintln(c.App.Writer, loc.Match.Text)
			}
			return nil
		},
	}
}

// previewName is the default file name for a saved ROI preview.
func previewName(now time.Time) string {
	return "roi_preview_" + now.Format("20060102_150405") + ".png"
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Save the preprocessed region as the OCR engine would see it",
		Flags: concat(frameFlags(), roiFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output PNG path (default roi_preview_<yyyyMMdd_HHmmss>.png)",
			},
		}),
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			roi, pre, err := e.roiOptions(c)
			if err != nil {
				return err
			}
			buf, _, err := e.capture(c)
			if err != nil {
				return err
			}

			processed, rect, err := pipeline.New(e.log).Preview(buf, roi, pre)
			if err != nil {
				return err
			}

			out := c.String("out")
			if out == "" {
				out = previewName(time.Now())
			}
			if err := imgio.Save(out, processed.ToImage(), imgio.PNGEncoder()); err != nil {
				return fmt.Errorf("failed to save preview: %w", err)
			}
			e.log.Infof("saved %dx%d preview of %v to %s", processed.Width, processed.Height, rect, out)
			fmt.Fprintln(c.App.Writer, out)
			return nil
		},
	}
}

func backendsCommand() *cli.Command {
	return &cli.Command{
		Name:  "backends",
		Usage: "List OCR backends and whether they can start",
		Flags: []cli.Flag{jsonFlag()},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			infos := e.cfg.Registry().Infos()
			if c.Bool("json") {
				return printJSON(c.App.Writer, infos)
			}
			return writeBackendTable(c.App.Writer, infos)
		},
	}
}

func writeBackendTable(w io.Writer, infos []ocr.Info) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tAVAILABLE\tCAPABILITY\tVERSION\tDETAIL")
	for _, info := range infos {
		detail := info.Detail
		if info.Error != "" {
			detail = info.Error
		}
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%s\n", info.Name, info.Available, info.Capability, info.Version, detail)
	}
	return tw.Flush()
}
