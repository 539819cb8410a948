package shared

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	GenAIProvider string // gemini|openai|none
	GenAIRPS      int
	GeminiKey     string
	GeminiModel   string
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBase    string

	OverpassURL  string
	OverpassRPS  int
	Workers      int
	IngestRadius int // metres

	ElasticURL   string
	ElasticIndex string

	JWTSecret string
	JWTTTL    time.Duration

	TwilioSID   string
	TwilioToken string
	TwilioFrom  string
	SendGridKey string
	FromEmail   string

	OTELEndpoint string
	ServiceName  string

	ShareBaseURL string
	SOSCountdown int // seconds
	StrictSafety bool
	APIBaseURL   string
}

var defaults = map[string]any{
	"APP_ENV":           "prod",
	"HTTP_ADDR":         ":8080",
	"METRICS_ADDR":      "",
	"MYSQL_DSN":         "root:root@tcp(localhost:3306)/safeher?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
	"REDIS_ADDR":        "localhost:6379",
	"REDIS_PASSWORD":    "",
	"REDIS_DB":          0,
	"CACHE_TTL_SECONDS": 900,

	"GENAI_PROVIDER":  "gemini",
	"GENAI_RPS":       2,
	"GEMINI_API_KEY":  "",
	"GEMINI_MODEL":    "gemini-2.0-flash",
	"OPENAI_API_KEY":  "",
	"OPENAI_MODEL":    "gpt-4o-mini",
	"OPENAI_BASE_URL": "https://api.openai.com/v1",

	"OVERPASS_URL":    "https://overpass-api.de/api/interpreter",
	"OVERPASS_RPS":    1,
	"INGEST_WORKERS":  4,
	"INGEST_RADIUS_M": 10000,

	"ELASTIC_URL":   "",
	"ELASTIC_INDEX": "safeher-resources",

	"JWT_SECRET":      "",
	"JWT_TTL_MINUTES": 24 * 60,

	"TWILIO_ACCOUNT_SID":  "",
	"TWILIO_AUTH_TOKEN":   "",
	"TWILIO_PHONE_NUMBER": "",
	"SENDGRID_API_KEY":    "",
	"FROM_EMAIL":          "alerts@safehertravel.com",

	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_SERVICE_NAME":           "safeher-api",

	"SHARE_BASE_URL":        "https://safehertravel.com/track/",
	"SOS_COUNTDOWN_SECONDS": 5,
	"SUGGEST_STRICT_SAFETY": false,
	"API_BASE_URL":          "http://localhost:8080/api",
}

// Load reads configuration from the environment, optionally layered over CONFIG_FILE.
func Load() Config {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if f := v.GetString("CONFIG_FILE"); f != "" {
		v.SetConfigFile(f)
		if err := v.ReadInConfig(); err != nil {
			log.Warn().Err(err).Str("file", f).Msg("config file not loaded")
		}
	}

	c := Config{
		AppEnv:      v.GetString("APP_ENV"),
		HTTPAddr:    v.GetString("HTTP_ADDR"),
		MetricsAddr: v.GetString("METRICS_ADDR"),
		MySQLDSN:    v.GetString("MYSQL_DSN"),
		RedisAddr:   v.GetString("REDIS_ADDR"),
		RedisPass:   v.GetString("REDIS_PASSWORD"),
		RedisDB:     v.GetInt("REDIS_DB"),
		CacheTTL:    time.Duration(v.GetInt("CACHE_TTL_SECONDS")) * time.Second,

		GenAIProvider: strings.ToLower(v.GetString("GENAI_PROVIDER")),
		GenAIRPS:      v.GetInt("GENAI_RPS"),
		GeminiKey:     v.GetString("GEMINI_API_KEY"),
		GeminiModel:   v.GetString("GEMINI_MODEL"),
		OpenAIKey:     v.GetString("OPENAI_API_KEY"),
		OpenAIModel:   v.GetString("OPENAI_MODEL"),
		OpenAIBase:    v.GetString("OPENAI_BASE_URL"),

		OverpassURL:  v.GetString("OVERPASS_URL"),
		OverpassRPS:  v.GetInt("OVERPASS_RPS"),
		Workers:      v.GetInt("INGEST_WORKERS"),
		IngestRadius: v.GetInt("INGEST_RADIUS_M"),

		ElasticURL:   v.GetString("ELASTIC_URL"),
		ElasticIndex: v.GetString("ELASTIC_INDEX"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    time.Duration(v.GetInt("JWT_TTL_MINUTES")) * time.Minute,

		TwilioSID:   v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioToken: v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioFrom:  v.GetString("TWILIO_PHONE_NUMBER"),
		SendGridKey: v.GetString("SENDGRID_API_KEY"),
		FromEmail:   v.GetString("FROM_EMAIL"),

		OTELEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  v.GetString("OTEL_SERVICE_NAME"),

		ShareBaseURL: v.GetString("SHARE_BASE_URL"),
		SOSCountdown: v.GetInt("SOS_COUNTDOWN_SECONDS"),
		StrictSafety: v.GetBool("SUGGEST_STRICT_SAFETY"),
		APIBaseURL:   v.GetString("API_BASE_URL"),
	}

	switch c.GenAIProvider {
	case "gemini":
		if c.GeminiKey == "" {
			log.Warn().Msg("GEMINI_API_KEY is empty; chat falls back to keyword replies")
		}
	case "openai":
		if c.OpenAIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY is empty; chat falls back to keyword replies")
		}
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; login tokens are disabled")
	}
	if c.SOSCountdown <= 0 {
		c.SOSCountdown = 5
	}
	return c
}
