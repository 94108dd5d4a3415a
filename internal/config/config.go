package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultKoboBaseURL is the public KoboToolbox v2 API of the humanitarian server.
const DefaultKoboBaseURL = "https://kobo.humanitarianresponse.info/api/v2"

// Config holds all service settings, populated from environment variables.
type Config struct {
	// KoboToolbox retrieval. SurveyKey is the asset uid of the form.
	KoboBaseURL  string
	SurveyKey    string
	KoboToken    string
	KoboTimeout  time.Duration
	KoboPageSize int

	// Kafka sink. Publishing is disabled when no broker is configured.
	KafkaBrokers       []string
	KafkaSinkTopic     string
	BatchSize          int
	BatchFlushInterval time.Duration

	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	ExtractMaxAttempts int

	DumpDir    string
	SchemaFile string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	koboTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("KOBO_TIMEOUT", "30s"))
	if err != nil || koboTimeout <= 0 {
		return nil, errors.New("invalid KOBO_TIMEOUT")
	}

	pageSize, err := parsePositiveInt("KOBO_PAGE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	attempts, err := parsePositiveInt("EXTRACT_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KoboBaseURL:  sharedcfg.EnvOrDefault("KOBO_BASE_URL", DefaultKoboBaseURL),
		SurveyKey:    os.Getenv("SURVEY_KEY"),
		KoboToken:    os.Getenv("KOBO_TOKEN"),
		KoboTimeout:  koboTimeout,
		KoboPageSize: pageSize,

		KafkaBrokers:       sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "normalized-survey-responses"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		ExtractMaxAttempts: attempts,

		DumpDir:    os.Getenv("DUMP_DIR"),
		SchemaFile: os.Getenv("SCHEMA_FILE"),
	}

	if cfg.SurveyKey != "" && cfg.KoboToken == "" {
		return nil, errors.New("SURVEY_KEY is set but KOBO_TOKEN is not")
	}
	if cfg.KafkaEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KoboEnabled reports whether submissions can be pulled from KoboToolbox.
func (c *Config) KoboEnabled() bool {
	return c.SurveyKey != ""
}

// KafkaEnabled reports whether processed records are published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("invalid " + key + ": must be a positive integer")
	}
	return n, nil
}
