package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-captioner/internal/caption"
	"github.com/ironsheep/image-captioner/internal/config"
	"github.com/ironsheep/image-captioner/internal/imaging"
	"github.com/ironsheep/image-captioner/internal/logging"
	"github.com/ironsheep/image-captioner/internal/ocr"
	"github.com/ironsheep/image-captioner/internal/panel"
	"github.com/ironsheep/image-captioner/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("image-captioner - MCP server that pans, zooms and captions images")
	fmt.Println()
	fmt.Println("Usage: image-captioner [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config FILE    YAML configuration file")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Println("  API_KEY                         Caption service API key (GEMINI_API_KEY also accepted)")
	fmt.Println("  IMAGE_CAPTIONER_MODEL           Caption model (default gemini-2.5-flash)")
	fmt.Println("  IMAGE_CAPTIONER_DEEP_MODEL      Model for deep analysis")
	fmt.Println("  IMAGE_CAPTIONER_BASE_URL        OpenAI-compatible endpoint")
	fmt.Println("  IMAGE_CAPTIONER_VOICE           Edge TTS voice")
	fmt.Println("  IMAGE_CAPTIONER_LOG_LEVEL=debug Enable debug logging")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	// Handle version and help subcommands the same way as the flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-captioner %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	configPath := flag.String("config", "", "YAML configuration file")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.NewLoader().WithPath(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "image-captioner: %v\n", err)
		os.Exit(1)
	}

	// Logging goes to stderr (stdout is for MCP protocol)
	logger, closer, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "image-captioner: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	logger.Debug("image captioner starting", "version", Version, "built", BuildTime, "commit", GitCommit)
	if cfg.Caption.APIKey == "" {
		logger.Warn("API_KEY is not set; captions will fail until it is configured")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	background, err := colorful.Hex(cfg.Preview.Background)
	if err != nil {
		return fmt.Errorf("invalid preview background: %w", err)
	}

	service := caption.NewClient(caption.Options{
		APIKey:    cfg.Caption.APIKey,
		BaseURL:   cfg.Caption.BaseURL,
		Model:     cfg.Caption.Model,
		DeepModel: cfg.Caption.DeepModel,
		MaxTokens: cfg.Caption.MaxTokens,
		Voice:     cfg.Speech.Voice,
		Logger:    logger.With("component", "caption"),
	})

	limits := imaging.Limits{
		MaxBytes:  cfg.Upload.MaxBytes,
		MaxSide:   cfg.Upload.MaxSide,
		MaxPixels: cfg.Upload.MaxPixels,
	}
	opts := panel.Options{
		Service:        service,
		Upload:         limits,
		PayloadMaxDim:  cfg.Upload.PayloadMaxDim,
		PreviewWidth:   cfg.Preview.Width,
		PreviewHeight:  cfg.Preview.Height,
		PreviewMaxSide: cfg.Preview.MaxSide,
		Background:     background,
		Timeout:        cfg.Caption.Timeout,
		Logger:         logger.With("component", "panel"),
	}
	if cfg.OCR.Enabled {
		opts.OCR = ocr.NewReader(cfg.OCR.Language, cfg.OCR.MinConfidence)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(panel.New(opts), logger.With("component", "server"), Version)
	return srv.Run(ctx)
}
