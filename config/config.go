package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultPort                 = "8083"
	DefaultGeminiImageModel     = "gemini-2.5-flash-image"
	DefaultGeminiTextModel      = "gemini-2.0-flash"
	DefaultBytePlusBaseURL      = "https://ark.ap-southeast.bytepluses.com/api/v3"
	DefaultBytePlusModel        = "seedream-4-0-250828"
	DefaultOpenAIChatModel      = "gpt-4o-mini"
	DefaultOpenAIImageModel     = "dall-e-3"
	DefaultProviderCallTimeout  = 90 * time.Second
	DefaultRequestDeadline      = 180 * time.Second
	DefaultProviderRPS          = 5.0
	DefaultProviderBurst        = 4
	DefaultDescriptionMaxTokens = 300
	DefaultIdentityDBPath       = "identities.db"
)

type Config struct {
	Port      string
	Env       string
	SentryDSN string

	GeminiAPIKey     string
	GeminiImageModel string
	GeminiTextModel  string

	BytePlusAPIKey    string
	BytePlusBaseURL   string
	BytePlusModel     string
	BytePlusChatModel string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIChatModel  string
	OpenAIImageModel string

	// TextProvider picks who describes references and rewrites prompts for the BytePlus route.
	TextProvider string

	ProviderCallTimeout  time.Duration
	RequestDeadline      time.Duration
	ProviderRPS          float64
	ProviderBurst        int
	DescriptionMaxTokens int

	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string

	BrokerAddress  string
	IdentityDBPath string

	TelegramBotToken    string
	TelegramAdminChatID int64
}

func Load() Config {
	return Config{
		Port:      GetEnv("PORT", DefaultPort),
		Env:       GetEnv("ENV", "local"),
		SentryDSN: GetEnv("SENTRY_DSN", ""),

		GeminiAPIKey:     GetEnv("GEMINI_API_KEY", ""),
		GeminiImageModel: GetEnv("GEMINI_IMAGE_MODEL", DefaultGeminiImageModel),
		GeminiTextModel:  GetEnv("GEMINI_TEXT_MODEL", DefaultGeminiTextModel),

		BytePlusAPIKey:    GetEnv("BYTEPLUS_API_KEY", ""),
		BytePlusBaseURL:   GetEnv("BYTEPLUS_BASE_URL", DefaultBytePlusBaseURL),
		BytePlusModel:     GetEnv("BYTEPLUS_MODEL", DefaultBytePlusModel),
		BytePlusChatModel: GetEnv("BYTEPLUS_CHAT_MODEL", ""),

		OpenAIAPIKey:     GetEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    GetEnv("OPENAI_BASE_URL", ""),
		OpenAIChatModel:  GetEnv("OPENAI_CHAT_MODEL", DefaultOpenAIChatModel),
		OpenAIImageModel: GetEnv("OPENAI_IMAGE_MODEL", DefaultOpenAIImageModel),

		TextProvider: GetEnv("TEXT_PROVIDER", ""),

		ProviderCallTimeout:  GetEnvDuration("PROVIDER_CALL_TIMEOUT", DefaultProviderCallTimeout),
		RequestDeadline:      GetEnvDuration("REQUEST_DEADLINE", DefaultRequestDeadline),
		ProviderRPS:          GetEnvFloat("PROVIDER_RPS", DefaultProviderRPS),
		ProviderBurst:        GetEnvPositiveInt("PROVIDER_BURST", DefaultProviderBurst),
		DescriptionMaxTokens: GetEnvPositiveInt("DESCRIPTION_MAX_TOKENS", DefaultDescriptionMaxTokens),

		R2AccountID:       GetEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     GetEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: GetEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      GetEnv("R2_BUCKET_NAME", ""),

		BrokerAddress:  GetEnv("ASYNC_BROKER_ADDRESS", ""),
		IdentityDBPath: GetEnv("IDENTITY_DB_PATH", DefaultIdentityDBPath),

		TelegramBotToken:    GetEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAdminChatID: int64(GetEnvInt("TELEGRAM_ADMIN_CHAT_ID", 0)),
	}
}

// DatabaseConfigured reports whether the relational store for custom assets and jobs is set up.
func DatabaseConfigured() bool {
	return GetEnv("DB_HOST", "") != ""
}

func GetEnv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

func GetEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

// GetEnvPositiveInt is GetEnvInt for values that must be at least 1.
func GetEnvPositiveInt(key string, fallback int) int {
	value := GetEnvInt(key, fallback)
	if value <= 0 {
		return fallback
	}
	return value
}

func GetEnvFloat(key string, fallback float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// GetEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
