package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	hdrrgbe "github.com/mdouchement/hdr/codec/rgbe"
	"github.com/woozymasta/hdre"
	"github.com/woozymasta/hdre/internal/photo"
	"github.com/woozymasta/hdre/merge"
	"github.com/woozymasta/hdre/preview"
	"github.com/woozymasta/hdre/source"
)

var errMissingArgs = errors.New("missing required arguments")

func main() {
	verbose := flag.Bool("v", false, "log progress to stderr")
	flag.Usage = usage
	flag.Parse()
	if *verbose {
		hdre.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	var err error
	switch args[0] {
	case "info":
		err = runInfo(args[1:])
	case "pack":
		err = runPack(ctx, args[1:])
	case "merge":
		err = runMerge(ctx, args[1:])
	case "preview":
		err = runPreview(ctx, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: hdretool [-v] <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  info    -in env.hdre")
	fmt.Fprintln(os.Stderr, "  pack    -in cross.(hdr|exr|hdre) -out env.hdre [-type float|half|byte|rgbe] [-channels 4] [-levels 6] [-sh coeffs.txt]")
	fmt.Fprintln(os.Stderr, "  merge   -out out.hdr [-times 0.25,1,4] [-max-width 0] [-lambda 100] [-develop] [-hdre env.hdre] photo...")
	fmt.Fprintln(os.Stderr, "  preview -in env.hdre -out preview.edds [-format bgra8|rgba8|dxt1|dxt5] [-exposure 0] [-gamma 2.2] [-size 0] [-level 0]")
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	inPath := fs.String("in", "", "input HDRE file")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" {
		return errMissingArgs
	}

	data, err := os.ReadFile(filepath.Clean(*inPath))
	if err != nil {
		return fmt.Errorf("%w: %q: %v", hdre.ErrOpenFile, *inPath, err)
	}
	img, err := hdre.Read(data, nil)
	if err != nil {
		return err
	}

	sizes := make([]int, len(img.Levels))
	for i, l := range img.Levels {
		sizes[i] = l.Width
	}
	info := struct {
		hdre.Header
		SampleTypeName string `json:"sampleTypeName"`
		Legacy         bool   `json:"legacy"`
		Levels         []int  `json:"levels"`
	}{img.Header, img.Header.SampleType.String(), img.Legacy(), sizes}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func runPack(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	inPath := fs.String("in", "", "input cross image or HDRE file")
	outPath := fs.String("out", "", "output HDRE file")
	sampleName := fs.String("type", "float", "sample type: float, half, byte or rgbe")
	channels := fs.Int("channels", 4, "stored channels, 1..4")
	levels := fs.Int("levels", hdre.MaxLevels, "mip levels including the base")
	shPath := fs.String("sh", "", "spherical-harmonics coefficients, whitespace separated")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outPath == "" {
		return errMissingArgs
	}

	sampleType, ok := hdre.ParseSampleType(*sampleName)
	if !ok {
		return fmt.Errorf("%w: %q", hdre.ErrInvalidSampleType, *sampleName)
	}

	var sh []float32
	if *shPath != "" {
		var err error
		if sh, err = readCoefficients(*shPath); err != nil {
			return err
		}
	}

	base, err := loadCubemap(ctx, *inPath)
	if err != nil {
		return err
	}

	log := hdre.Logger()
	chain, err := hdre.BuildLevels(ctx, base, &hdre.BuildOptions{
		Levels:   *levels,
		Channels: source.Channels,
		Progress: func(done, total int) { log.Info("pack: level built", "done", done, "total", total) },
	})
	if err != nil {
		return err
	}

	opts := &hdre.WriteOptions{SampleType: sampleType, Channels: *channels, SH: sh}
	if sampleType == hdre.SampleRGBE {
		opts.RGBE = true
	}
	if err := hdre.WriteFile(*outPath, chain, base.Width, base.Width, opts); err != nil {
		return err
	}
	log.Info("pack: written", "path", *outPath, "size", base.Width, "levels", len(chain), "type", sampleType.String())

	return nil
}

func loadCubemap(ctx context.Context, path string) (hdre.Level, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return hdre.Level{}, fmt.Errorf("%w: %q: %v", hdre.ErrOpenFile, path, err)
	}

	format := source.Detect(path, data)
	hdre.Logger().Info("input detected", "path", path, "format", format.String())

	return source.DecodeCubemap(ctx, format, data, nil)
}

func readCoefficients(path string) ([]float32, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", hdre.ErrOpenFile, path, err)
	}

	fields := strings.Fields(string(data))
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: coefficient %d: %v", hdre.ErrInvalidSH, i, err)
		}
		out[i] = float32(v)
	}

	return out, nil
}

func parseTimes(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: time %d: %v", merge.ErrMissingExposureTimes, i, err)
		}
		out[i] = v
	}

	return out, nil
}

func runMerge(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	outPath := fs.String("out", "", "output Radiance .hdr file")
	timesArg := fs.String("times", "", "comma-separated exposure times in seconds, in argument order")
	maxWidth := fs.Int("max-width", 0, "downscale exposures wider than this")
	lambda := fs.Float64("lambda", merge.DefaultLambda, "response curve smoothness")
	develop := fs.Bool("develop", false, "normalize radiance before export")
	hdrePath := fs.String("hdre", "", "also pack the result, a horizontal cross, into this HDRE file")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outPath == "" || fs.NArg() == 0 {
		return errMissingArgs
	}

	times, err := parseTimes(*timesArg)
	if err != nil {
		return err
	}

	log := hdre.Logger()
	stack, err := photo.LoadStack(fs.Args(), times, &photo.Options{MaxWidth: *maxWidth})
	if err != nil {
		return err
	}
	log.Info("merge: stack loaded", "exposures", len(stack), "timed", stack.HasTimes())

	res, err := merge.MergeStack(ctx, stack, &merge.Options{
		Lambda: *lambda,
		Progress: func(stage merge.Stage, channel int) {
			log.Info("merge: stage", "stage", stage.String(), "channel", channel)
		},
	})
	if err != nil {
		return err
	}

	out := radianceImage{width: res.Width, height: res.Height, pix: res.Linear()}
	if *develop {
		out.pix = merge.Develop(res, nil)
	}

	f, err := os.Create(filepath.Clean(*outPath))
	if err != nil {
		return fmt.Errorf("%w: %q: %v", hdre.ErrCreateFile, *outPath, err)
	}
	if err := hdrrgbe.Encode(f, &out); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %q: %v", hdre.ErrWritePayload, *outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %q: %v", hdre.ErrWritePayload, *outPath, err)
	}
	log.Info("merge: written", "path", *outPath, "width", res.Width, "height", res.Height)

	if *hdrePath == "" {
		return nil
	}

	base, err := hdre.ExtractCross(out.rgba(), out.width, out.height, source.Channels)
	if err != nil {
		return err
	}
	chain, err := hdre.BuildLevels(ctx, base, nil)
	if err != nil {
		return err
	}

	return hdre.WriteFile(*hdrePath, chain, base.Width, base.Width, nil)
}

func runPreview(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	inPath := fs.String("in", "", "input HDRE file or cross image")
	outPath := fs.String("out", "", "output EDDS texture")
	formatName := fs.String("format", "bgra8", "texture format: bgra8, rgba8, dxt1 or dxt5")
	exposure := fs.Float64("exposure", 0, "exposure in stops")
	gamma := fs.Float64("gamma", 2.2, "display gamma")
	size := fs.Int("size", 0, "output width, 0 keeps the cross width")
	level := fs.Int("level", 0, "mip level to render (HDRE input only)")
	mips := fs.Int("mips", 0, "mip levels to store, 0 for the full chain")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outPath == "" {
		return errMissingArgs
	}

	format, err := preview.ParseFormat(*formatName)
	if err != nil {
		return err
	}

	lvl, channels, err := previewLevel(ctx, *inPath, *level)
	if err != nil {
		return err
	}

	img, err := preview.Tonemap(&lvl, channels, &preview.TonemapOptions{Exposure: *exposure, Gamma: *gamma, Size: *size})
	if err != nil {
		return err
	}
	if err := preview.WriteFile(*outPath, img, &preview.WriteOptions{Format: format, MaxMipMaps: *mips, Compress: true}); err != nil {
		return err
	}
	hdre.Logger().Info("preview: written", "path", *outPath, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	return nil
}

// previewLevel returns the requested level and its channel count. Only HDRE
// inputs carry levels above 0.
func previewLevel(ctx context.Context, path string, level int) (hdre.Level, int, error) {
	if level == 0 {
		lvl, err := loadCubemap(ctx, path)
		return lvl, source.Channels, err
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return hdre.Level{}, 0, fmt.Errorf("%w: %q: %v", hdre.ErrOpenFile, path, err)
	}
	img, err := hdre.ReadContext(ctx, data, nil)
	if err != nil {
		return hdre.Level{}, 0, err
	}
	if level < 0 || level >= len(img.Levels) {
		return hdre.Level{}, 0, fmt.Errorf("%w: level %d of %d", hdre.ErrTooManyLevels, level, len(img.Levels))
	}

	return img.Levels[level], img.Header.Channels, nil
}
