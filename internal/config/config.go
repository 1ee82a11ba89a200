package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/joseph-ayodele/ledgerflow/constants"
)

// Config holds all application configuration.
type Config struct {
	Folders    FoldersConfig    `mapstructure:"folders"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Matching   MatchingConfig   `mapstructure:"matching"`

	// ExtractionPrompt is the reconciliation prompt template. Placeholders
	// {text} and {match_data} are substituted per artifact.
	ExtractionPrompt string `mapstructure:"extraction_prompt"`
	// OCRPrompt is the instruction sent to the vision endpoint for images.
	OCRPrompt string `mapstructure:"ocr_prompt"`
}

// FoldersConfig holds the pipeline folder layout.
type FoldersConfig struct {
	Incoming  string `mapstructure:"incoming"`
	Extracted string `mapstructure:"extracted"`
	Processed string `mapstructure:"processed"`
	Errors    string `mapstructure:"errors"`
	Matches   string `mapstructure:"matches"`
	Output    string `mapstructure:"output"`
}

// LLMConfig holds judgment-capability endpoints and transport settings.
type LLMConfig struct {
	VisionEndpoint string        `mapstructure:"vision_endpoint"`
	TextEndpoint   string        `mapstructure:"text_endpoint"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxTokens      int           `mapstructure:"max_tokens"`
}

// ProcessingConfig holds file discovery and pacing settings.
type ProcessingConfig struct {
	ImageExtensions []string      `mapstructure:"image_extensions"`
	PDFExtensions   []string      `mapstructure:"pdf_extensions"`
	LedgerFile      string        `mapstructure:"ledger_file"`
	SleepInterval   time.Duration `mapstructure:"sleep_interval"`
}

// MatchingConfig holds the verdict acceptance policy.
type MatchingConfig struct {
	// ConfidenceThreshold is the minimum verdict confidence for acceptance.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	// MaxAttempts bounds judgment calls per artifact; 0 means unlimited.
	MaxAttempts int `mapstructure:"max_attempts"`
}

const defaultExtractionPrompt = `You are reconciling a scanned document against a transaction ledger.

Document text:
{text}

Ledger rows (fields separated by ';', one row per line, numbered from 1):
{match_data}

Find the ledger row this document corresponds to. Return ONLY JSON with the
fields: confidence (number between 0 and 1), row_number (integer row index,
or null if no row matches), date (the matched row's date), description (the
matched row's description).`

const defaultOCRPrompt = "Please transcribe all visible text in this image."

// Load reads configuration from the given YAML file (or the default search
// path when path is empty) with LEDGERFLOW_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("LEDGERFLOW")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !(path == "" && errors.As(err, &notFound)) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file on the search path: defaults + env only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("folders.incoming", "data/incoming")
	v.SetDefault("folders.extracted", "data/extracted")
	v.SetDefault("folders.processed", "data/processed")
	v.SetDefault("folders.errors", "data/errors")
	v.SetDefault("folders.matches", "data/matches")
	v.SetDefault("folders.output", "data/output")

	v.SetDefault("llm.vision_endpoint", "http://localhost:8080")
	v.SetDefault("llm.text_endpoint", "http://localhost:8081")
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("llm.max_tokens", 4096)

	v.SetDefault("processing.image_extensions", constants.DefaultImageExtensions)
	v.SetDefault("processing.pdf_extensions", constants.DefaultPDFExtensions)
	v.SetDefault("processing.ledger_file", "data/matchwith.csv")
	v.SetDefault("processing.sleep_interval", 2*time.Second)

	v.SetDefault("matching.confidence_threshold", 0.6)
	v.SetDefault("matching.max_attempts", 0)

	v.SetDefault("extraction_prompt", defaultExtractionPrompt)
	v.SetDefault("ocr_prompt", defaultOCRPrompt)
}

// Validate checks the loaded configuration for unusable values.
func (c *Config) Validate() error {
	if c.Matching.ConfidenceThreshold < 0 || c.Matching.ConfidenceThreshold > 1 {
		return fmt.Errorf("matching.confidence_threshold must be in [0,1], got %v", c.Matching.ConfidenceThreshold)
	}
	if c.Matching.MaxAttempts < 0 {
		return fmt.Errorf("matching.max_attempts must be >= 0, got %d", c.Matching.MaxAttempts)
	}
	if c.Processing.SleepInterval <= 0 {
		return fmt.Errorf("processing.sleep_interval must be positive, got %v", c.Processing.SleepInterval)
	}
	if len(c.Processing.ImageExtensions)+len(c.Processing.PDFExtensions) == 0 {
		return fmt.Errorf("no accepted file extensions configured")
	}
	return nil
}

// AcceptedExtensions is the union of the image and PDF extension sets,
// normalized for case-insensitive suffix matching.
func (c *Config) AcceptedExtensions() map[string]struct{} {
	set := constants.ExtSet(c.Processing.ImageExtensions)
	for e := range constants.ExtSet(c.Processing.PDFExtensions) {
		set[e] = struct{}{}
	}
	return set
}

// EnsureFolders creates every configured pipeline folder.
func (c *Config) EnsureFolders() error {
	for _, dir := range []string{
		c.Folders.Incoming, c.Folders.Extracted, c.Folders.Processed,
		c.Folders.Errors, c.Folders.Matches, c.Folders.Output,
	} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create folder %s: %w", dir, err)
		}
	}
	if c.Processing.LedgerFile != "" {
		if err := os.MkdirAll(filepath.Dir(c.Processing.LedgerFile), 0o755); err != nil {
			return fmt.Errorf("create ledger folder: %w", err)
		}
	}
	return nil
}
