package model

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the complete configuration for both pipelines
type Config struct {
	Hub          HubConfig          `yaml:"hub" mapstructure:"hub"`
	Labels       LabelsConfig       `yaml:"labels" mapstructure:"labels"`
	LIAR         LIARConfig         `yaml:"liar" mapstructure:"liar"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// HubConfig configures access to the dataset hub
type HubConfig struct {
	Token          string `yaml:"token" mapstructure:"token" validate:"required"`
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint" validate:"required,http_url"`
	DatasetsServer string `yaml:"datasets_server" mapstructure:"datasets_server" validate:"required,http_url"`
	DatasetRepo    string `yaml:"dataset_repo" mapstructure:"dataset_repo" validate:"required,repoid"`
}

// LabelsConfig configures the label normalizer
type LabelsConfig struct {
	DatasetRepo string   `yaml:"dataset_repo" mapstructure:"dataset_repo" validate:"required,repoid"`
	Names       []string `yaml:"names" mapstructure:"names" validate:"len=2,dive,required"`
}

// LIARConfig lists the optional per-split mirrors and the archive fallback
type LIARConfig struct {
	TrainURL   string `yaml:"train_url" mapstructure:"train_url" validate:"omitempty,http_url"`
	ValidURL   string `yaml:"valid_url" mapstructure:"valid_url" validate:"omitempty,http_url"`
	TestURL    string `yaml:"test_url" mapstructure:"test_url" validate:"omitempty,http_url"`
	ArchiveURL string `yaml:"archive_url" mapstructure:"archive_url" validate:"required,http_url"`
}

// HTTPConfig configures outbound HTTP behaviour
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gt=0"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the download cache used by the archive fallback
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// RateLimitingConfig limits requests per host against the hub APIs
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size" validate:"gt=0"`
}

// OutputConfig configures local artifacts
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir" validate:"required"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// LogConfig configures the diagnostic logger
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
}

// Default values
const (
	DefaultHubEndpoint       = "https://huggingface.co"
	DefaultDatasetsServer    = "https://datasets-server.huggingface.co"
	DefaultLabelsDatasetRepo = "pdevulapally/fakeverifier-dataset"
	DefaultLIARArchiveURL    = "https://www.cs.ucsb.edu/~william/data/liar_dataset.zip"
	DefaultUserAgent         = "FakeVerifier-Data/0.1 (+https://huggingface.co/pdevulapally)"
	DefaultOutputDir         = "converted"
)

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "fakeverifier-cache")
	if dir, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(dir, "fakeverifier")
	}

	return &Config{
		Hub: HubConfig{
			Endpoint:       DefaultHubEndpoint,
			DatasetsServer: DefaultDatasetsServer,
		},
		Labels: LabelsConfig{
			DatasetRepo: DefaultLabelsDatasetRepo,
			Names:       []string{"fake", "true"},
		},
		LIAR: LIARConfig{
			ArchiveURL: DefaultLIARArchiveURL,
		},
		HTTP: HTTPConfig{
			Timeout:      2 * time.Minute,
			UserAgent:    DefaultUserAgent,
			MaxBodyBytes: 64 << 20,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     cacheDir,
			TTL:     24 * time.Hour,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Output: OutputConfig{
			Dir: DefaultOutputDir,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// SplitURLs returns the ordered candidate URLs for a split. Unset URLs
// contribute no candidate.
func (c *Config) SplitURLs(split Split) []string {
	var raw string
	switch split {
	case SplitTrain:
		raw = c.LIAR.TrainURL
	case SplitValidation:
		raw = c.LIAR.ValidURL
	case SplitTest:
		raw = c.LIAR.TestURL
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return []string{raw}
}

// ConfigError reports a missing or invalid configuration value
type ConfigError struct {
	Key     string
	EnvVars []string
	Reason  string
}

func (e *ConfigError) Error() string {
	source := e.Key
	if len(e.EnvVars) > 0 {
		source = strings.Join(e.EnvVars, "/")
	}
	if e.Reason == "required" {
		msg := fmt.Sprintf("missing %s in environment", source)
		if strings.HasSuffix(e.Key, "dataset_repo") {
			msg += " (e.g., 'owner/dataset-name')"
		}
		return msg
	}
	return fmt.Sprintf("invalid %s: %s", source, e.Reason)
}

// EnvVars maps config keys to the environment variables that feed them.
// The order of variables is the lookup order.
var EnvVars = map[string][]string{
	"hub.token":           {"HUGGINGFACE_TOKEN", "HF_TOKEN"},
	"hub.dataset_repo":    {"HF_DATASET_REPO"},
	"hub.endpoint":        {"HF_ENDPOINT"},
	"hub.datasets_server": {"HF_DATASETS_SERVER"},
	"labels.dataset_repo": {"FAKEVERIFIER_DATASET"},
	"liar.train_url":      {"LIAR_TRAIN_URL"},
	"liar.valid_url":      {"LIAR_VALID_URL"},
	"liar.test_url":       {"LIAR_TEST_URL"},
	"liar.archive_url":    {"LIAR_ARCHIVE_URL"},
	"output.dir":          {"FAKEVERIFIER_OUTPUT_DIR"},
}

// Fields validated by each command
var (
	importFields = []string{
		"Hub.Token", "Hub.Endpoint", "Hub.DatasetRepo",
		"LIAR.TrainURL", "LIAR.ValidURL", "LIAR.TestURL", "LIAR.ArchiveURL",
		"HTTP.Timeout", "HTTP.UserAgent", "HTTP.MaxBodyBytes",
		"RateLimiting.RequestsPerSecond", "RateLimiting.BurstSize",
		"Output.Dir", "Log.Level",
	}
	labelsFields = []string{
		"Hub.Token", "Hub.Endpoint", "Hub.DatasetsServer",
		"Labels.DatasetRepo", "Labels.Names",
		"HTTP.Timeout", "HTTP.UserAgent",
		"RateLimiting.RequestsPerSecond", "RateLimiting.BurstSize",
		"Log.Level",
	}
)

// ValidateForImport validates the values the LIAR importer needs
func (c *Config) ValidateForImport() error {
	return c.validate(importFields)
}

// ValidateForLabels validates the values the label normalizer needs
func (c *Config) ValidateForLabels() error {
	return c.validate(labelsFields)
}

var repoIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*/[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("repoid", func(fl validator.FieldLevel) bool {
		return repoIDPattern.MatchString(fl.Field().String())
	})
	return v
}

func (c *Config) validate(fields []string) error {
	err := newValidator().StructPartial(c, fields...)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	// Report the first failure, ordered the way the fields are listed
	first := verrs[0]
	for _, name := range fields {
		found := false
		for _, fe := range verrs {
			if strings.TrimPrefix(fe.Namespace(), "Config.") == name {
				first = fe
				found = true
				break
			}
		}
		if found {
			break
		}
	}

	key := configKey(strings.TrimPrefix(first.Namespace(), "Config."))
	reason := first.Tag()
	switch reason {
	case "required":
	case "repoid":
		reason = fmt.Sprintf("%q is not an 'owner/name' repository id", first.Value())
	case "http_url":
		reason = fmt.Sprintf("%q is not an absolute http(s) URL", first.Value())
	default:
		reason = fmt.Sprintf("failed %q check (value %v)", first.Tag(), first.Value())
	}

	return &ConfigError{Key: key, EnvVars: EnvVars[key], Reason: reason}
}

// configKey converts a struct namespace (Hub.DatasetRepo) to a config key (hub.dataset_repo)
func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	switch s {
	case "LIAR":
		return "liar"
	case "HTTP":
		return "http"
	case "TrainURL":
		return "train_url"
	case "ValidURL":
		return "valid_url"
	case "TestURL":
		return "test_url"
	case "ArchiveURL":
		return "archive_url"
	case "TTL":
		return "ttl"
	case "JSON":
		return "json"
	}
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Redacted returns a copy safe for display
func (c *Config) Redacted() *Config {
	cp := *c
	cp.Labels.Names = append([]string(nil), c.Labels.Names...)
	if cp.Hub.Token != "" {
		cp.Hub.Token = "****"
	}
	return &cp
}

// DatasetURL returns the browsable URL of a dataset repository
func (c *Config) DatasetURL(repo string) string {
	u, err := url.JoinPath(c.Hub.Endpoint, "datasets", repo)
	if err != nil {
		return strings.TrimSuffix(c.Hub.Endpoint, "/") + "/datasets/" + repo
	}
	return u
}
