package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"speakerid/internal/assign"
	"speakerid/internal/config"
	"speakerid/internal/deps"
	"speakerid/internal/history"
	"speakerid/internal/logging"
	"speakerid/internal/pipeline"
	"speakerid/internal/preflight"
	"speakerid/internal/services"
	"speakerid/internal/services/verification"
	"speakerid/internal/services/whisperx"
)

type commandContext struct {
	configFlag   string
	logLevelFlag string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	// newVerifier and newTranscriber build the external capabilities; tests
	// replace them with fakes.
	newVerifier    func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (assign.Verifier, func() error, error)
	newTranscriber func(cfg *config.Config, logger *slog.Logger) (pipeline.Transcriber, error)
}

func newCommandContext() *commandContext {
	return &commandContext{
		newVerifier:    processVerifier,
		newTranscriber: whisperXTranscriber,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.TrimSpace(c.logLevelFlag); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("setup logging: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openHistory opens the run history store. A store that cannot be opened is
// logged and skipped; runs still proceed without being recorded.
func (c *commandContext) openHistory(logger *slog.Logger) *history.Store {
	cfg, err := c.ensureConfig()
	if err != nil || strings.TrimSpace(cfg.Paths.HistoryDB) == "" {
		return nil
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String("path", cfg.Paths.HistoryDB),
			logging.String(logging.FieldErrorHint, "check history_db in the [paths] config section"),
			logging.String(logging.FieldImpact, "runs will not be recorded"),
		)
		return nil
	}
	return store
}

// capability selects the external services an engine is built with.
type capability int

const (
	needVerifier capability = 1 << iota
	needTranscriber
)

// withEngine builds a pipeline engine for one command and releases its
// resources afterwards.
func (c *commandContext) withEngine(cmd *cobra.Command, needs capability, fn func(context.Context, *pipeline.Engine) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
		return services.Wrap(services.ErrConfiguration, "preflight", failed[0].Name, failed[0].Detail, nil)
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if store := c.openHistory(logger); store != nil {
		defer store.Close()
		opts = append(opts, pipeline.WithHistory(store))
	}
	if needs&needVerifier != 0 && c.newVerifier != nil {
		verifier, closeFn, err := c.newVerifier(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if closeFn != nil {
			defer func() {
				if err := closeFn(); err != nil {
					logger.Debug("close verifier", logging.Error(err))
				}
			}()
		}
		opts = append(opts, pipeline.WithVerifier(verifier))
	}
	if needs&needTranscriber != 0 && c.newTranscriber != nil {
		transcriber, err := c.newTranscriber(cfg, logger)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithTranscriber(transcriber))
	}
	return fn(ctx, pipeline.NewEngine(cfg, opts...))
}

func processVerifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (assign.Verifier, func() error, error) {
	if err := requireTools(cfg); err != nil {
		return nil, nil, err
	}
	verifier := verification.NewProcessVerifier(ctx, verification.ProcessOptions{
		Source:      cfg.Verification.Source,
		SaveDir:     cfg.Verification.SaveDir,
		CUDAEnabled: cfg.Verification.CUDAEnabled,
		WorkDir:     cfg.Paths.WorkDir,
	}, logger)
	return verifier, verifier.Close, nil
}

func whisperXTranscriber(cfg *config.Config, logger *slog.Logger) (pipeline.Transcriber, error) {
	if err := requireTools(cfg); err != nil {
		return nil, err
	}
	return whisperx.NewService(whisperx.Config{
		Model:       cfg.WhisperX.Model,
		CUDAEnabled: cfg.WhisperX.CUDAEnabled,
		VADMethod:   cfg.WhisperX.VADMethod,
		HFToken:     cfg.WhisperX.HFToken,
		Language:    cfg.WhisperX.Language,
	}, filepath.Join(cfg.Paths.WorkDir, "whisperx"), logger), nil
}

// requireTools fails when a required external command is missing.
func requireTools(cfg *config.Config) error {
	missing := deps.Missing(preflight.CheckSystemDeps(cfg))
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, m := range missing {
		names[i] = m.Name
	}
	return services.Wrap(services.ErrExternalTool, "preflight", "dependencies",
		fmt.Sprintf("missing %s (%s)", strings.Join(names, ", "), missing[0].Description), nil)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
