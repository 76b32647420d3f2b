package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Brownie44l1/ecovision/internal/config"
	"github.com/Brownie44l1/ecovision/internal/enrich"
	"github.com/Brownie44l1/ecovision/internal/handlers"
	"github.com/Brownie44l1/ecovision/internal/logging"
	"github.com/Brownie44l1/ecovision/internal/model"
	"github.com/Brownie44l1/ecovision/internal/pipeline"
	"github.com/Brownie44l1/ecovision/internal/render"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "ecovision",
	Short:         "Classify animal images and enrich them with species facts",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <image>",
	Short: "Classify a single JPEG or PNG file and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, classifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds the services built once at startup and shared by every request.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	classifier *model.Classifier
	pipeline   *pipeline.Pipeline
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return nil, err
	}

	root := projectRoot()
	cfg.Model.Path = resolve(root, cfg.Model.Path)
	cfg.Model.LabelsPath = resolve(root, cfg.Model.LabelsPath)

	logger.Info("loading model",
		zap.String("model", cfg.Model.Path),
		zap.String("labels", cfg.Model.LabelsPath))

	classifier, err := model.Load(cfg.Model, logger.Named("classifier"))
	if err != nil {
		logger.Error("failed to load classifier", zap.Error(err))
		return nil, err
	}

	generator, err := enrich.NewGeminiGenerator(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model)
	if err != nil {
		classifier.Close()
		logger.Error("failed to create generator", zap.Error(err))
		return nil, err
	}

	enricher := enrich.NewClient(generator, logger.Named("enrich"))
	p := pipeline.New(classifier, enricher, cfg.Pipeline.ConfidenceThreshold, logger.Named("pipeline"))

	logger.Info("classifier ready",
		zap.Int("classes", classifier.Labels().Len()),
		zap.String("genai_model", cfg.GenAI.Model),
		zap.Float64("threshold", cfg.Pipeline.ConfidenceThreshold))

	return &app{cfg: cfg, logger: logger, classifier: classifier, pipeline: p}, nil
}

func (a *app) Close() {
	if err := a.classifier.Close(); err != nil {
		a.logger.Warn("failed to release classifier", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := handlers.NewHandler(a.pipeline, a.logger.Named("http"), a.cfg.Server.MaxUploadBytes)
	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting",
			zap.String("port", a.cfg.Server.Port),
			zap.Strings("endpoints", []string{"GET /health", "POST /predict/image"}))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runClassify(cmd *cobra.Command, args []string) error {
	img, err := decodeImage(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	return classify(cmd.Context(), a.pipeline, img, cmd.OutOrStdout())
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("invalid image format. Supported: JPEG, PNG: %w", err)
	}
	return img, nil
}

// classify writes only the rendered report to w; logs go to the logger.
func classify(ctx context.Context, p *pipeline.Pipeline, img image.Image, w io.Writer) error {
	analysis, err := p.Analyze(ctx, img)
	if err != nil {
		return err
	}
	return render.Text(w, analysis)
}

// projectRoot is the working directory, or the repository root when run
// from cmd/server.
func projectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	if filepath.Base(wd) == "server" {
		return filepath.Join(wd, "../..")
	}
	return wd
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
