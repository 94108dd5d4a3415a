package main

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/pflag"

	"github.com/couchcryptid/survey-demand-etl/internal/adapter/dump"
	"github.com/couchcryptid/survey-demand-etl/internal/adapter/jsonfile"
	kafkaadapter "github.com/couchcryptid/survey-demand-etl/internal/adapter/kafka"
	"github.com/couchcryptid/survey-demand-etl/internal/adapter/kobo"
	"github.com/couchcryptid/survey-demand-etl/internal/config"
	"github.com/couchcryptid/survey-demand-etl/internal/form"
	"github.com/couchcryptid/survey-demand-etl/internal/observability"
	"github.com/couchcryptid/survey-demand-etl/internal/pipeline"
	"github.com/couchcryptid/survey-demand-etl/internal/schema"
	"github.com/couchcryptid/survey-demand-etl/internal/survey"
)

type globalFlags struct {
	schemaFile  string
	profileFile string
}

// batchFlags select the source and override the run profile.
type batchFlags struct {
	input    string
	category string
	ids      []string
	verbose  bool
	dumpDir  string
}

// env is everything a command needs after configuration is resolved.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	parser   *form.Parser
	profile  *config.RunProfile
	selector survey.Selector
}

var (
	metricsOnce sync.Once
	metrics     *observability.Metrics
)

// processMetrics registers the Prometheus collectors once per process.
func processMetrics() *observability.Metrics {
	metricsOnce.Do(func() { metrics = observability.NewMetrics() })
	return metrics
}

func loadEnv(g *globalFlags, b *batchFlags) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)

	schemaFile := g.schemaFile
	if schemaFile == "" {
		schemaFile = cfg.SchemaFile
	}
	s, err := schema.Load(schemaFile)
	if err != nil {
		return nil, err
	}

	profile, err := config.LoadProfile(g.profileFile)
	if err != nil {
		return nil, err
	}
	if b != nil {
		applyOverrides(profile, b)
	}
	if profile.Output.DumpDir == "" {
		profile.Output.DumpDir = cfg.DumpDir
	}

	sel, err := profile.Selector()
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:      cfg,
		logger:   logger,
		parser:   form.NewParser(s),
		profile:  profile,
		selector: sel,
	}, nil
}

// applyOverrides lets command line flags win over the run profile.
func applyOverrides(p *config.RunProfile, b *batchFlags) {
	switch {
	case len(b.ids) > 0:
		p.Selection = config.SelectionProfile{Mode: config.SelectModeIDs, IDs: b.ids}
	case b.category != "":
		p.Selection = config.SelectionProfile{Mode: config.SelectModeCategory, Category: b.category}
	}
	if b.verbose {
		p.Output.Verbose = true
	}
	if b.dumpDir != "" {
		p.Output.DumpDir = b.dumpDir
	}
}

func (e *env) extractor(input string, m *observability.Metrics) (pipeline.Extractor, error) {
	if input != "" {
		e.logger.Info("reading submissions from file", "path", input)
		return jsonfile.NewExtractor(input), nil
	}
	if !e.cfg.KoboEnabled() {
		return nil, errors.New("no source: pass --input or set SURVEY_KEY and KOBO_TOKEN")
	}
	client, err := kobo.NewClient(kobo.Config{
		BaseURL:   e.cfg.KoboBaseURL,
		SurveyKey: e.cfg.SurveyKey,
		Token:     e.cfg.KoboToken,
		Timeout:   e.cfg.KoboTimeout,
		PageSize:  e.cfg.KoboPageSize,
	}, m, e.logger)
	if err != nil {
		return nil, err
	}
	e.logger.Info("reading submissions from kobotoolbox", "survey", e.cfg.SurveyKey)
	return client, nil
}

// buildPipeline wires the source and every configured sink. The returned
// function closes the sinks that hold connections.
func (e *env) buildPipeline(input string, m *observability.Metrics) (*pipeline.Pipeline, func(), error) {
	ext, err := e.extractor(input, m)
	if err != nil {
		return nil, nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithMaxAttempts(e.cfg.ExtractMaxAttempts),
		pipeline.WithVerbose(e.profile.Output.Verbose),
	}
	closeFn := func() {}

	if dir := e.profile.Output.DumpDir; dir != "" {
		opts = append(opts, pipeline.WithLoader("dump", dump.NewWriter(dir, e.logger)))
		e.logger.Info("debug dump enabled", "dir", dir)
	}
	if e.cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(e.cfg, e.logger)
		opts = append(opts, pipeline.WithLoader("kafka", writer))
		closeFn = func() {
			if err := writer.Close(); err != nil {
				e.logger.Error("kafka writer close error", "error", err)
			}
		}
		e.logger.Info("kafka sink enabled", "topic", e.cfg.KafkaSinkTopic, "brokers", e.cfg.KafkaBrokers)
	}

	return pipeline.New(ext, e.parser, e.logger, m, opts...), closeFn, nil
}

func (b *batchFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&b.input, "input", "", "read submissions from a JSON export instead of KoboToolbox")
	fs.StringVar(&b.category, "category", "", "process one respondent category only")
	fs.StringSliceVar(&b.ids, "ids", nil, "process these submission ids only (comma separated)")
	fs.BoolVarP(&b.verbose, "verbose", "v", false, "log per-record diagnostics at info level")
	fs.StringVar(&b.dumpDir, "dump-dir", "", "write a debug dump of every batch under this directory")
}
