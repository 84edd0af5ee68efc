package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. The weight and keyword tables
// are validated eagerly: a broken table must prevent the funnel from
// serving any classification.
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/invoice-funnel/")
	v.AddConfigPath("$HOME/.invoice-funnel")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("INVOICE_FUNNEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	cfg := &Config{v: v}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Frontend defaults
	v.SetDefault("server.frontend_type", "smtp")
	v.SetDefault("server.listen_address", "0.0.0.0:10025")
	v.SetDefault("server.headers.status", "X-Invoice-Status")
	v.SetDefault("server.headers.score", "X-Invoice-Score")
	v.SetDefault("server.headers.reason", "X-Invoice-Reason")
	v.SetDefault("server.relay.enabled", false)
	v.SetDefault("server.relay.address", "127.0.0.1")
	v.SetDefault("server.relay.port", 10026)

	// Gmail mailbox provider defaults
	v.SetDefault("gmail.user", "me")
	v.SetDefault("gmail.page_size", 100)
	v.SetDefault("gmail.poll_interval", "5m")
	v.SetDefault("gmail.lookback", "720h")
	v.SetDefault("gmail.client_id", "")
	v.SetDefault("gmail.client_secret", "")
	v.SetDefault("gmail.refresh_token", "")

	// Extractor provider defaults
	v.SetDefault("extractor.provider", "openai")
	v.SetDefault("extractor.timeout", "30s")
	v.SetDefault("extractor.max_document_size", 262144)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 2000)
	v.SetDefault("bedrock.temperature", 0.0)
	v.SetDefault("bedrock.top_p", 0.9)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 2000)
	v.SetDefault("gemini.temperature", 0.0)
	v.SetDefault("gemini.top_p", 0.9)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 2000)
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("openai.top_p", 0.9)

	// Funnel keyword tables
	v.SetDefault("funnel.keywords.strong", []string{
		"invoice", "facture", "receipt", "recu", "rechnung", "fattura", "factuur",
	})
	v.SetDefault("funnel.keywords.medium", []string{
		"order", "billing", "statement", "payment", "purchase", "subscription", "bill",
	})
	v.SetDefault("funnel.keywords.exclusion", []string{
		"newsletter", "terms", "policy", "guide", "webinar", "whitepaper", "brochure", "catalog",
	})
	v.SetDefault("funnel.keywords.guards", []string{
		"request for", "requesting", "no ", "not ", "missing", "without",
		"upcoming", "next", "future", "awaiting", "will be",
	})
	v.SetDefault("funnel.keywords.payment", []string{
		"payment received", "payment confirmation", "we have received your payment",
		"has been paid", "thank you for your payment", "your payment of",
		"payment successful", "paid in full",
	})
	v.SetDefault("funnel.trusted_domains", []string{
		"stripe.com", "paddle.com", "chargebee.com", "recurly.com", "intuit.com",
		"xero.com", "freshbooks.com", "bill.com", "paypal.com", "squareup.com",
	})

	// Document candidate detection
	v.SetDefault("funnel.document.content_type", "application/pdf")
	v.SetDefault("funnel.document.generic_types", []string{
		"application/octet-stream", "binary", "application/binary", "",
	})
	v.SetDefault("funnel.document.extensions", []string{".pdf"})

	// Structured patterns
	v.SetDefault("funnel.patterns.reference", "")
	v.SetDefault("funnel.patterns.amount", "")
	v.SetDefault("funnel.patterns.tax", "")
	v.SetDefault("funnel.patterns.date", "")

	// Size band plausible for a financial document
	v.SetDefault("funnel.size_band.min_bytes", 8192)
	v.SetDefault("funnel.size_band.max_bytes", 2097152)

	// Signal weights
	v.SetDefault("funnel.weights.filename_strong", 25)
	v.SetDefault("funnel.weights.filename_medium", 10)
	v.SetDefault("funnel.weights.subject_strong", 15)
	v.SetDefault("funnel.weights.subject_medium", 8)
	v.SetDefault("funnel.weights.subject_reference", 15)
	v.SetDefault("funnel.weights.exclusion", -25)
	v.SetDefault("funnel.weights.trusted_sender", 12)
	v.SetDefault("funnel.weights.size_band", 5)
	v.SetDefault("funnel.weights.attachment_strong", 15)
	v.SetDefault("funnel.weights.attachment_medium", 8)
	v.SetDefault("funnel.weights.attachment_weak", 4)
	v.SetDefault("funnel.weights.content_keyword", 10)
	v.SetDefault("funnel.weights.content_reference", 20)
	v.SetDefault("funnel.weights.content_amount", 15)
	v.SetDefault("funnel.weights.content_tax", 10)
	v.SetDefault("funnel.weights.content_date", 5)
	v.SetDefault("funnel.weights.content_payment", 10)
	v.SetDefault("funnel.weights.content_exclusion", -20)

	// Sub-score clamps
	v.SetDefault("funnel.clamps.metadata_min", -40)
	v.SetDefault("funnel.clamps.metadata_max", 60)
	v.SetDefault("funnel.clamps.attachment_min", 0)
	v.SetDefault("funnel.clamps.attachment_max", 20)
	v.SetDefault("funnel.clamps.content_min", -40)
	v.SetDefault("funnel.clamps.content_max", 60)

	// Decision thresholds
	v.SetDefault("funnel.thresholds.max_score", 100)
	v.SetDefault("funnel.thresholds.metadata_floor", 0)
	v.SetDefault("funnel.thresholds.metadata_ceiling", 50)
	v.SetDefault("funnel.thresholds.verify_min", 25)
	v.SetDefault("funnel.thresholds.accept_obvious", 60)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/invoice_decisions.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/invoice_funnel")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate fails fast on tables that would corrupt every decision if left
// to silent defaults at scoring time.
func (c *Config) Validate() error {
	funnel := c.GetFunnel()

	if len(funnel.StrongKeywords) == 0 {
		return fmt.Errorf("funnel.keywords.strong must not be empty")
	}
	if funnel.Weights.FilenameStrong <= 0 || funnel.Weights.SubjectStrong <= 0 ||
		funnel.Weights.ContentReference <= 0 || funnel.Weights.ContentAmount <= 0 {
		return fmt.Errorf("positive signal weights must be greater than zero")
	}
	if funnel.Weights.Exclusion >= 0 || funnel.Weights.ContentExclusion >= 0 {
		return fmt.Errorf("exclusion weights must be negative")
	}
	if funnel.SizeBandMin >= funnel.SizeBandMax {
		return fmt.Errorf("funnel.size_band.min_bytes %d must be below max_bytes %d", funnel.SizeBandMin, funnel.SizeBandMax)
	}
	for name, clamp := range map[string][2]int{
		"metadata":   {funnel.Clamps.MetadataMin, funnel.Clamps.MetadataMax},
		"attachment": {funnel.Clamps.AttachmentMin, funnel.Clamps.AttachmentMax},
		"content":    {funnel.Clamps.ContentMin, funnel.Clamps.ContentMax},
	} {
		if clamp[0] >= clamp[1] {
			return fmt.Errorf("funnel.clamps.%s_min %d must be below %s_max %d", name, clamp[0], name, clamp[1])
		}
	}
	for name, pattern := range map[string]string{
		"reference": funnel.ReferencePattern,
		"amount":    funnel.AmountPattern,
		"tax":       funnel.TaxPattern,
		"date":      funnel.DatePattern,
	} {
		if pattern == "" {
			continue
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("funnel.patterns.%s does not compile: %w", name, err)
		}
	}

	thresholds := c.GetThresholds()
	if thresholds.MaxScore <= 0 {
		return fmt.Errorf("funnel.thresholds.max_score must be positive")
	}
	if thresholds.MetadataFloor >= thresholds.MetadataCeiling {
		return fmt.Errorf("funnel.thresholds.metadata_floor %d must be below metadata_ceiling %d",
			thresholds.MetadataFloor, thresholds.MetadataCeiling)
	}
	if thresholds.VerifyMin <= 0 || thresholds.VerifyMin >= thresholds.AcceptObvious {
		return fmt.Errorf("funnel.thresholds.verify_min %d must be positive and below accept_obvious %d",
			thresholds.VerifyMin, thresholds.AcceptObvious)
	}

	return nil
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets an int64 value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
