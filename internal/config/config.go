package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "ELECTION"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig roots every relative path of the application
type PathsConfig struct {
	BaseDir string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// SourcesConfig locates the raw inputs, relative to the data directory
type SourcesConfig struct {
	ResultsURL    string `yaml:"results_url" envconfig:"RESULTS_URL" validate:"omitempty,url"`
	ResultsHTML   string `yaml:"results_html" envconfig:"RESULTS_HTML" validate:"required"`
	TableClass    string `yaml:"table_class" envconfig:"TABLE_CLASS"`
	ShortToLong   string `yaml:"short_to_long" envconfig:"SHORT_TO_LONG" validate:"required"`
	LongToAbbrev  string `yaml:"long_to_abbrev" envconfig:"LONG_TO_ABBREV" validate:"required"`
	GeoTerm1      string `yaml:"geo_term_1" envconfig:"GEO_TERM_1" validate:"required"`
	GeoTerm2      string `yaml:"geo_term_2" envconfig:"GEO_TERM_2" validate:"required"`
	TimelineTerm1 string `yaml:"timeline_term_1" envconfig:"TIMELINE_TERM_1" validate:"required"`
	TimelineTerm2 string `yaml:"timeline_term_2" envconfig:"TIMELINE_TERM_2" validate:"required"`
	HeaderLines   int    `yaml:"header_lines" envconfig:"HEADER_LINES" validate:"gte=0"`
}

// PipelineConfig tunes a pipeline run
type PipelineConfig struct {
	LoadConcurrency int           `yaml:"load_concurrency" envconfig:"LOAD_CONCURRENCY" validate:"min=1,max=4"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" validate:"gt=0"`
	Headless        bool          `yaml:"headless" envconfig:"HEADLESS"`
}

// ExportConfig names the outputs, relative to the output directory
type ExportConfig struct {
	OutputDir     string       `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	GeoTable      string       `yaml:"geo_table" envconfig:"GEO_TABLE" validate:"required"`
	TimelineTable string       `yaml:"timeline_table" envconfig:"TIMELINE_TABLE" validate:"required"`
	Manifest      string       `yaml:"manifest" envconfig:"MANIFEST" validate:"required"`
	Workbook      string       `yaml:"workbook" envconfig:"WORKBOOK"`
	Report        string       `yaml:"report" envconfig:"REPORT"`
	WriteWorkbook bool         `yaml:"write_workbook" envconfig:"WRITE_WORKBOOK"`
	WriteReport   bool         `yaml:"write_report" envconfig:"WRITE_REPORT"`
	Sheets        SheetsConfig `yaml:"sheets" envconfig:"SHEETS"`
}

// SheetsConfig configures optional publication of the tables to a spreadsheet
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled" envconfig:"ENABLED"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID" validate:"required_if=Enabled true"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	GeoSheet        string `yaml:"geo_sheet" envconfig:"GEO_SHEET"`
	TimelineSheet   string `yaml:"timeline_sheet" envconfig:"TIMELINE_SHEET"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load loads configuration from the first config file found and the environment
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile layers configuration as Default() < YAML file < environment.
// An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// No default tags on the structs: unset variables leave earlier layers alone
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output %q requires a file path", c.Logging.Output)
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive when enabled")
	}

	return nil
}

// getConfigFilePath returns the path to the config file, or "" when none exists
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir: "data",
			LogsDir: "logs",
		},
		Sources: SourcesConfig{
			ResultsURL:    "https://www.reuters.com/graphics/USA-ELECTION/RESULTS/zjpqnemxwvx/",
			ResultsHTML:   "raw/results.html",
			TableClass:    "results-table",
			ShortToLong:   "raw/state_short2long.json",
			LongToAbbrev:  "raw/state_long2abr.json",
			GeoTerm1:      "raw/GT_map_can.csv",
			GeoTerm2:      "raw/GT_map_president.csv",
			TimelineTerm1: "raw/GT_timeline_can.csv",
			TimelineTerm2: "raw/GT_timeline_president.csv",
			HeaderLines:   3,
		},
		Pipeline: PipelineConfig{
			LoadConcurrency: 4,
			FetchTimeout:    90 * time.Second,
			Headless:        true,
		},
		Export: ExportConfig{
			OutputDir:     "output",
			GeoTable:      "geo_table.csv",
			TimelineTable: "timeline_table.csv",
			Manifest:      "manifest.json",
			Workbook:      "fused_tables.xlsx",
			Report:        "report.md",
			Sheets: SheetsConfig{
				GeoSheet:      "geo",
				TimelineSheet: "timeline",
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "election-trends",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
