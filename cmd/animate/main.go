package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"motiongen/internal/domain"
	"motiongen/internal/infra"
	"motiongen/internal/providers/video"
	"motiongen/internal/storage"
	"motiongen/internal/videogen"
)

type options struct {
	imagePath string
	outPath   string
	dataURI   bool
	settings  domain.SettingsInput
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	defaults := domain.DefaultSettings()
	var opts options
	fs := flag.NewFlagSet("animate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.imagePath, "image", "", "Path to the source image (required)")
	fs.StringVar(&opts.outPath, "out", domain.DownloadFilename, "Where to write the generated video")
	fs.BoolVar(&opts.dataURI, "data-uri", false, "Print a data URI to stdout instead of writing a file")
	fs.StringVar(&opts.settings.Text, "text", "", "Optional creative edits applied to the image")
	fs.StringVar(&opts.settings.Style, "style", defaults.Style.String(), "Animation style preset")
	fs.StringVar(&opts.settings.Pacing, "pacing", defaults.Pacing.String(), "Pacing preset")
	fs.StringVar(&opts.settings.Palette, "palette", defaults.Palette.String(), "Color palette preset")
	fs.StringVar(&opts.settings.AspectRatio, "aspect", defaults.AspectRatio.String(), "Aspect ratio preset, e.g. \"9:16 (Portrait)\" or 9:16")
	duration := defaults.Duration
	fs.IntVar(&duration, "duration", defaults.Duration, fmt.Sprintf("Duration in seconds (%d-%d)", domain.MinDurationSeconds, domain.MaxDurationSeconds))
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.settings.Duration = &duration
	if opts.imagePath == "" {
		return options{}, errors.New("-image is required")
	}
	return opts, nil
}

func loadImage(path string) (domain.ImagePayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ImagePayload{}, fmt.Errorf("read image: %w", err)
	}
	return domain.NewImagePayload(data, "")
}

// writeVideo stores ref at outPath and returns the written path.
func writeVideo(ctx context.Context, outPath string, ref *domain.Reference) (string, error) {
	store, err := storage.NewFileStore(filepath.Dir(outPath))
	if err != nil {
		return "", err
	}
	key, err := store.Write(ctx, filepath.Base(outPath), ref.Data)
	if err != nil {
		return "", err
	}
	return filepath.Join(store.BasePath(), key), nil
}

func main() {
	_ = godotenv.Load()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	settings, err := opts.settings.Settings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	image, err := loadImage(opts.imagePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "animate").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	veo, err := video.NewVEO(ctx, video.Options{APIKey: cfg.GeminiAPIKey, BaseURL: cfg.GeminiBaseURL, Logger: &logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create video provider: %v\n", err)
		os.Exit(1)
	}
	generator, err := videogen.New(videogen.Options{
		APIKey:       cfg.GeminiAPIKey,
		Model:        cfg.VideoModel,
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.GenerationTimeout,
		Service:      veo,
		Logger:       &logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Info().
		Str("style", settings.Style.String()).
		Str("aspect_ratio", settings.AspectRatio.Token()).
		Int("duration_s", settings.Duration).
		Msg("generating video, this can take several minutes")

	ref, err := generator.Generate(ctx, settings, image)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate video: %v\n", err)
		os.Exit(1)
	}

	if opts.dataURI {
		fmt.Println(ref.DataURI())
		return
	}
	written, err := writeVideo(ctx, opts.outPath, ref)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write video: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("video written to %s\n", written)
}
