package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"log-analyzer/internal/aggregators"
	"log-analyzer/internal/finalizers"
	internalhttp "log-analyzer/internal/http"
	"log-analyzer/internal/models"
	"log-analyzer/internal/parsers"
	"log-analyzer/internal/readers"
	"log-analyzer/internal/reports"
	"log-analyzer/internal/selectors"
	"log-analyzer/internal/shared/configs"
	"log-analyzer/internal/shared/filestorages"
	"log-analyzer/internal/shared/loggers"
	"log-analyzer/internal/shared/metrics"
	"log-analyzer/internal/shared/svcerrors"
	"log-analyzer/internal/shared/ulid"

	"github.com/spf13/afero"
)

const shutdownTimeout = 10 * time.Second

type RunStatus string

const (
	RunStatusGenerated     RunStatus = "generated"
	RunStatusNoLogfile     RunStatus = "no_logfile"
	RunStatusAlreadyExists RunStatus = "already_exists"
	RunStatusEmptyLogfile  RunStatus = "empty_logfile"
)

// RunResult describes what a pipeline run did.
type RunResult struct {
	RunID     string
	Status    RunStatus
	Logfile   string
	ReportKey string
}

// App holds all application dependencies and manages lifecycle.
type App struct {
	config    *configs.Config
	appLogger loggers.Logger

	logfileSelector    selectors.LogfileSelector
	sourceOpener       readers.SourceOpener
	aggregationService aggregators.AggregationService
	statsFinalizer     finalizers.StatsFinalizer
	renderer           reports.Renderer
	reportStore        reports.ReportStore
}

// New creates an App working on the local filesystem.
func New(config *configs.Config, appLogger loggers.Logger) (*App, error) {
	return NewWithFs(config, afero.NewOsFs(), appLogger)
}

// NewWithFs creates an App whose logs, reports and template live on fs.
func NewWithFs(config *configs.Config, fs afero.Fs, appLogger loggers.Logger) (*App, error) {
	appLogger = appLogger.With().
		Str(loggers.FieldApp, "log-analyzer").
		Logger()

	// Initialize report storage
	fileStorage, err := filestorages.NewFileStorage(fs, config.ReportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize report storage: %w", err)
	}
	reportStore := reports.NewReportStore(fileStorage)

	renderer, err := reports.NewRenderer(fs, config.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize renderer: %w", err)
	}

	return &App{
		config:             config,
		appLogger:          appLogger,
		logfileSelector:    selectors.NewLogfileSelector(fs),
		sourceOpener:       readers.NewSourceOpener(fs, parsers.NewLineParser()),
		aggregationService: aggregators.NewAggregationService(aggregators.NewAccumulatorRolluper()),
		statsFinalizer:     finalizers.NewStatsFinalizer(),
		renderer:           renderer,
		reportStore:        reportStore,
	}, nil
}

// Run analyzes the latest logfile in LOG_DIR and publishes its report to REPORT_DIR.
// A missing logfile, an already generated report and an empty logfile end the run without error.
func (app *App) Run(ctx context.Context) (result *RunResult, err error) {
	runID := ulid.NewULID()
	logger := app.appLogger.With().
		Str(loggers.FieldRunID, runID).
		Str(loggers.FieldComponent, "pipeline").
		Logger()
	ctx = logger.WithContext(ctx)

	defer func() {
		recordRun(result, err)
		if app.config.MetricsFile != "" {
			app.writeMetrics(ctx)
		}
	}()

	result = &RunResult{RunID: runID}

	logger.Info().
		Str(loggers.FieldLogDir, app.config.LogDir).
		Str(loggers.FieldReportDir, app.config.ReportDir).
		Int("report_size", app.config.ReportSize).
		Msg("started log analysis")

	desc, found, err := app.logfileSelector.SelectLatest(ctx, app.config.LogDir)
	if err != nil {
		return nil, err
	}
	if !found {
		logger.Info().Str(loggers.FieldLogDir, app.config.LogDir).Msg("no logfile to analyze")
		result.Status = RunStatusNoLogfile
		return result, nil
	}
	result.Logfile = desc.Path
	result.ReportKey = reports.ReportKey(desc.Date)

	logger = logger.With().
		Str(loggers.FieldLogfile, desc.Path).
		Str(loggers.FieldReportKey, result.ReportKey).
		Logger()
	ctx = logger.WithContext(ctx)

	exists, err := app.reportStore.Exists(ctx, desc.Date)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Info().Msg("report already exists, nothing to do")
		result.Status = RunStatusAlreadyExists
		return result, nil
	}

	aggregationResult, err := app.aggregate(ctx, desc)
	if err != nil {
		return nil, err
	}
	if aggregationResult.Totals.TotalLines == 0 {
		logger.Info().Msg("logfile is empty, no report generated")
		result.Status = RunStatusEmptyLogfile
		return result, nil
	}

	report := &models.Report{
		LogDate:    desc.Date,
		Logfile:    desc.Path,
		Stats:      app.statsFinalizer.Finalize(aggregationResult, app.config.ReportSize),
		UserAgents: app.statsFinalizer.SummarizeUserAgents(aggregationResult, finalizers.DefaultUserAgentLimit),
		Totals:     aggregationResult.Totals,
	}

	if err := app.publish(ctx, report); err != nil {
		if svcErr, ok := svcerrors.AsServiceError(err); ok && svcErr.IsResourceConflict() {
			logger.Warn().Err(err).Msg("report was published by a concurrent run")
			result.Status = RunStatusAlreadyExists
			return result, nil
		}
		return nil, err
	}

	logger.Info().
		Int("urls", len(report.Stats)).
		Int64("total_lines", report.Totals.TotalLines).
		Int64("error_lines", report.Totals.ErrorLines).
		Msg("report generated")
	result.Status = RunStatusGenerated
	return result, nil
}

func (app *App) aggregate(ctx context.Context, desc models.LogfileDescriptor) (*models.AggregationResult, error) {
	source, err := app.sourceOpener.Open(ctx, desc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := source.Close(); err != nil {
			loggers.Ctx(ctx).Warn().Err(err).Msg("failed to close logfile")
		}
	}()

	return app.aggregationService.Aggregate(ctx, source)
}

func (app *App) publish(ctx context.Context, report *models.Report) error {
	var buf bytes.Buffer
	if err := app.renderer.Render(&buf, report); err != nil {
		recordReportRendered(err)
		return err
	}

	_, err := app.reportStore.Put(ctx, report.LogDate, &buf)
	recordReportRendered(err)
	return err
}

func (app *App) writeMetrics(ctx context.Context) {
	if err := metrics.WriteToTextfile(app.config.MetricsFile); err != nil {
		loggers.Ctx(ctx).Warn().Err(err).Str("metrics_file", app.config.MetricsFile).Msg("failed to write metrics textfile")
	}
}

// Serve runs the report browser until ctx is cancelled, then shuts it down gracefully.
func (app *App) Serve(ctx context.Context) error {
	httpLogger := app.appLogger.With().Str(loggers.FieldComponent, "http").Logger()
	router := internalhttp.NewRouter(app.reportStore, httpLogger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(app.config.Server.ReadHeaderTimeout) * time.Second,
		ReadTimeout:       time.Duration(app.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(app.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(app.config.Server.IdleTimeout) * time.Second,
	}

	app.appLogger.Info().
		Msgf("Starting report browser on port %d (log_level=%s, report_dir=%s)",
			app.config.Server.Port,
			app.config.LogLevel,
			app.config.ReportDir)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	app.appLogger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	app.appLogger.Info().Msg("Server stopped")

	return nil
}
