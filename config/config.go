package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/user/clipcutter/clip"
	"github.com/user/clipcutter/encoder"
	"github.com/user/clipcutter/logging"
	"github.com/user/clipcutter/publish"
)

// EnvPrefix is prepended to every environment variable read by ApplyEnv.
const EnvPrefix = "CLIPCUTTER_"

// KafkaConfig enables the Kafka event publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether events should be published.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Config holds the settings of one clipcutter invocation.
type Config struct {
	// Input. An empty RecordingsDir means the stored catalog, an empty Sheet
	// the stored request queue.
	RecordingsDir string
	Sheet         string
	OutputDir     string

	Quality      string
	Offsets      clip.OffsetPolicy
	SkipExisting bool
	Interactive  bool
	Headless     bool
	ExitWhenDone bool

	StallTimeout time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration

	BundleDir string
	DBPath    string
	LogFile   string
	Verbose   bool
	Color     string

	Kafka KafkaConfig
	Minio publish.MinioConfig
}

// DefaultConfig returns the settings used when no flag overrides them.
func DefaultConfig() Config {
	enc := encoder.DefaultOptions()
	return Config{
		OutputDir:    "clips",
		Quality:      clip.QualityMedium.String(),
		Offsets:      clip.DefaultOffsetPolicy(),
		StallTimeout: enc.StallTimeout,
		MaxAttempts:  enc.MaxAttempts,
		RetryBackoff: enc.RetryBackoff,
		Color:        string(logging.ColorAuto),
		Kafka:        KafkaConfig{Topic: publish.DefaultTopic},
		Minio:        publish.MinioConfig{Bucket: publish.DefaultBucket},
	}
}

// Validate checks the values that flags and the environment cannot
// constrain by type.
func (c Config) Validate() error {
	var errs []error
	if _, err := clip.ParseQuality(c.Quality); err != nil {
		errs = append(errs, err)
	}
	if err := c.Offsets.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory must not be empty"))
	}
	if c.StallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stall timeout must be positive, got %s", c.StallTimeout))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts))
	}
	if c.RetryBackoff < 0 {
		errs = append(errs, fmt.Errorf("retry backoff must not be negative, got %s", c.RetryBackoff))
	}
	if _, err := logging.ParseColorMode(c.Color); err != nil {
		errs = append(errs, err)
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic must not be empty"))
	}
	if c.Minio.Endpoint != "" && c.Minio.Bucket == "" {
		errs = append(errs, errors.New("minio bucket must not be empty"))
	}
	return errors.Join(errs...)
}

// QualityLevel returns the parsed quality. Call Validate first.
func (c Config) QualityLevel() clip.Quality {
	q, _ := clip.ParseQuality(c.Quality)
	return q
}

// EncoderOptions maps the retry settings onto the driver options.
func (c Config) EncoderOptions(ffmpeg string) encoder.Options {
	opts := encoder.DefaultOptions()
	opts.Binary = ffmpeg
	opts.StallTimeout = c.StallTimeout
	opts.MaxAttempts = c.MaxAttempts
	opts.RetryBackoff = c.RetryBackoff
	return opts
}

// LogOptions maps the logging settings onto logging.Options.
func (c Config) LogOptions() logging.Options {
	mode, _ := logging.ParseColorMode(c.Color)
	return logging.Options{Verbose: c.Verbose, Color: mode, File: c.LogFile}
}

// DefaultLogFile returns log.txt inside the output directory.
func (c Config) DefaultLogFile() string {
	return filepath.Join(c.OutputDir, "log.txt")
}

// ApplyEnv fills unset Kafka and MinIO settings from CLIPCUTTER_* variables.
// Flags win over the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := func(name string) string {
		return strings.TrimSpace(getenv(EnvPrefix + name))
	}

	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = splitList(env("KAFKA_BROKERS"))
	}
	if v := env("KAFKA_TOPIC"); v != "" && (c.Kafka.Topic == "" || c.Kafka.Topic == publish.DefaultTopic) {
		c.Kafka.Topic = v
	}

	fill := func(dst *string, name string) {
		if *dst == "" {
			*dst = env(name)
		}
	}
	fill(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	fill(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	fill(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	if v := env("MINIO_BUCKET"); v != "" && (c.Minio.Bucket == "" || c.Minio.Bucket == publish.DefaultBucket) {
		c.Minio.Bucket = v
	}
	if v := env("MINIO_SECURE"); v != "" && !c.Minio.Secure {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sMINIO_SECURE: %w", EnvPrefix, err)
		}
		c.Minio.Secure = secure
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
