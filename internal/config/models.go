package config

// WeightsConfig is the table of signal weights
type WeightsConfig struct {
	FilenameStrong   int
	FilenameMedium   int
	SubjectStrong    int
	SubjectMedium    int
	SubjectReference int
	Exclusion        int
	TrustedSender    int
	SizeBand         int
	AttachmentStrong int
	AttachmentMedium int
	AttachmentWeak   int
	ContentKeyword   int
	ContentReference int
	ContentAmount    int
	ContentTax       int
	ContentDate      int
	ContentPayment   int
	ContentExclusion int
}

// ClampsConfig bounds each stage's sub-score
type ClampsConfig struct {
	MetadataMin   int
	MetadataMax   int
	AttachmentMin int
	AttachmentMax int
	ContentMin    int
	ContentMax    int
}

// ThresholdsConfig holds the fixed decision constants
type ThresholdsConfig struct {
	MaxScore        int
	MetadataFloor   int
	MetadataCeiling int
	VerifyMin       int
	AcceptObvious   int
}

// FunnelConfig is the full static configuration of the classification funnel
type FunnelConfig struct {
	StrongKeywords    []string
	MediumKeywords    []string
	ExclusionKeywords []string
	GuardPhrases      []string
	PaymentPhrases    []string
	TrustedDomains    []string

	DocumentContentType string
	GenericContentTypes []string
	DocumentExtensions  []string

	ReferencePattern string
	AmountPattern    string
	TaxPattern       string
	DatePattern      string

	SizeBandMin int64
	SizeBandMax int64

	Weights WeightsConfig
	Clamps  ClampsConfig
}

// ExtractorConfig selects and bounds the text extraction provider
type ExtractorConfig struct {
	Provider        string
	Timeout         string
	MaxDocumentSize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GmailConfig represents the mailbox provider configuration
type GmailConfig struct {
	User         string
	PageSize     int64
	PollInterval string
	Lookback     string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// ServerConfig represents the SMTP frontend configuration
type ServerConfig struct {
	FrontendType  string
	ListenAddress string
	StatusHeader  string
	ScoreHeader   string
	ReasonHeader  string
	RelayEnabled  bool
	RelayAddress  string
	RelayPort     int
}

// GetFunnel returns the funnel configuration
func (c *Config) GetFunnel() FunnelConfig {
	return FunnelConfig{
		StrongKeywords:    c.GetStringSlice("funnel.keywords.strong"),
		MediumKeywords:    c.GetStringSlice("funnel.keywords.medium"),
		ExclusionKeywords: c.GetStringSlice("funnel.keywords.exclusion"),
		GuardPhrases:      c.GetStringSlice("funnel.keywords.guards"),
		PaymentPhrases:    c.GetStringSlice("funnel.keywords.payment"),
		TrustedDomains:    c.GetStringSlice("funnel.trusted_domains"),

		DocumentContentType: c.GetString("funnel.document.content_type"),
		GenericContentTypes: c.GetStringSlice("funnel.document.generic_types"),
		DocumentExtensions:  c.GetStringSlice("funnel.document.extensions"),

		ReferencePattern: c.GetString("funnel.patterns.reference"),
		AmountPattern:    c.GetString("funnel.patterns.amount"),
		TaxPattern:       c.GetString("funnel.patterns.tax"),
		DatePattern:      c.GetString("funnel.patterns.date"),

		SizeBandMin: c.GetInt64("funnel.size_band.min_bytes"),
		SizeBandMax: c.GetInt64("funnel.size_band.max_bytes"),

		Weights: WeightsConfig{
			FilenameStrong:   c.GetInt("funnel.weights.filename_strong"),
			FilenameMedium:   c.GetInt("funnel.weights.filename_medium"),
			SubjectStrong:    c.GetInt("funnel.weights.subject_strong"),
			SubjectMedium:    c.GetInt("funnel.weights.subject_medium"),
			SubjectReference: c.GetInt("funnel.weights.subject_reference"),
			Exclusion:        c.GetInt("funnel.weights.exclusion"),
			TrustedSender:    c.GetInt("funnel.weights.trusted_sender"),
			SizeBand:         c.GetInt("funnel.weights.size_band"),
			AttachmentStrong: c.GetInt("funnel.weights.attachment_strong"),
			AttachmentMedium: c.GetInt("funnel.weights.attachment_medium"),
			AttachmentWeak:   c.GetInt("funnel.weights.attachment_weak"),
			ContentKeyword:   c.GetInt("funnel.weights.content_keyword"),
			ContentReference: c.GetInt("funnel.weights.content_reference"),
			ContentAmount:    c.GetInt("funnel.weights.content_amount"),
			ContentTax:       c.GetInt("funnel.weights.content_tax"),
			ContentDate:      c.GetInt("funnel.weights.content_date"),
			ContentPayment:   c.GetInt("funnel.weights.content_payment"),
			ContentExclusion: c.GetInt("funnel.weights.content_exclusion"),
		},
		Clamps: ClampsConfig{
			MetadataMin:   c.GetInt("funnel.clamps.metadata_min"),
			MetadataMax:   c.GetInt("funnel.clamps.metadata_max"),
			AttachmentMin: c.GetInt("funnel.clamps.attachment_min"),
			AttachmentMax: c.GetInt("funnel.clamps.attachment_max"),
			ContentMin:    c.GetInt("funnel.clamps.content_min"),
			ContentMax:    c.GetInt("funnel.clamps.content_max"),
		},
	}
}

// GetThresholds returns the decision threshold configuration
func (c *Config) GetThresholds() ThresholdsConfig {
	return ThresholdsConfig{
		MaxScore:        c.GetInt("funnel.thresholds.max_score"),
		MetadataFloor:   c.GetInt("funnel.thresholds.metadata_floor"),
		MetadataCeiling: c.GetInt("funnel.thresholds.metadata_ceiling"),
		VerifyMin:       c.GetInt("funnel.thresholds.verify_min"),
		AcceptObvious:   c.GetInt("funnel.thresholds.accept_obvious"),
	}
}

// GetExtractor returns the extraction provider selection
func (c *Config) GetExtractor() ExtractorConfig {
	return ExtractorConfig{
		Provider:        c.GetString("extractor.provider"),
		Timeout:         c.GetString("extractor.timeout"),
		MaxDocumentSize: c.GetInt("extractor.max_document_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetGmail returns the mailbox provider configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		User:         c.GetString("gmail.user"),
		PageSize:     c.GetInt64("gmail.page_size"),
		PollInterval: c.GetString("gmail.poll_interval"),
		Lookback:     c.GetString("gmail.lookback"),
		ClientID:     c.GetString("gmail.client_id"),
		ClientSecret: c.GetString("gmail.client_secret"),
		RefreshToken: c.GetString("gmail.refresh_token"),
	}
}

// GetServer returns the SMTP frontend configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		FrontendType:  c.GetString("server.frontend_type"),
		ListenAddress: c.GetString("server.listen_address"),
		StatusHeader:  c.GetString("server.headers.status"),
		ScoreHeader:   c.GetString("server.headers.score"),
		ReasonHeader:  c.GetString("server.headers.reason"),
		RelayEnabled:  c.GetBool("server.relay.enabled"),
		RelayAddress:  c.GetString("server.relay.address"),
		RelayPort:     c.GetInt("server.relay.port"),
	}
}
