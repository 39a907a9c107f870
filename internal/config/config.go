package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Vision providers, tried in the order Gemini models -> GLM -> OpenAI
	GeminiAPIKey string
	GeminiAPIURL string
	GeminiModels string

	GLMAPIKey      string
	GLMAPIURL      string
	GLMVisionModel string

	OpenAIAPIKey string
	OpenAIAPIURL string
	OpenAIModel  string

	VisionEndpointsFile string
	AITimeout           time.Duration
	AIRatePerSec        float64

	// Gamification
	ReportPoints int

	// Evidence storage
	EvidenceBackend string
	EvidenceDir     string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3Prefix        string
	MaxImageBytes   int

	// Notifications
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	TwilioBaseURL    string
	AdminPhone       string

	SendGridAPIKey  string
	SendGridSandbox bool
	NotifyFromEmail string
	NotifyFromName  string
	AdminEmail      string

	// Leaderboard cache
	RedisAddr      string
	RedisPassword  string
	LeaderboardTTL time.Duration

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "civic_pulse"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL: getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"),
		GeminiModels: getEnv("GEMINI_MODELS", "gemini-2.5-flash,gemini-2.5-pro,gemini-2.0-flash"),

		GLMAPIKey:      getEnv("GLM_API_KEY", ""),
		GLMAPIURL:      getEnv("GLM_API_URL", "https://api.z.ai/api/paas/v4/chat/completions"),
		GLMVisionModel: getEnv("GLM_VISION_MODEL", "glm-4v-plus"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIAPIURL: getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		VisionEndpointsFile: getEnv("VISION_ENDPOINTS_FILE", ""),
		AITimeout:           parseDuration(getEnv("AI_TIMEOUT", "30s"), 30*time.Second),
		AIRatePerSec:        getFloat("AI_RATE_PER_SEC", 5),

		ReportPoints: getInt("REPORT_POINTS", 10),

		EvidenceBackend: getEnv("EVIDENCE_BACKEND", "local"),
		EvidenceDir:     getEnv("EVIDENCE_DIR", "uploads"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3Prefix:        getEnv("S3_PREFIX", "evidence/"),
		MaxImageBytes:   getInt("MAX_IMAGE_BYTES", 8*1024*1024),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioBaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com/2010-04-01"),
		AdminPhone:       getEnv("ADMIN_PHONE", ""),

		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		SendGridSandbox: getEnv("SENDGRID_SANDBOX", "false") == "true",
		NotifyFromEmail: getEnv("NOTIFY_FROM_EMAIL", "noreply@civicpulse.app"),
		NotifyFromName:  getEnv("NOTIFY_FROM_NAME", "Civic Pulse"),
		AdminEmail:      getEnv("ADMIN_EMAIL", ""),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		LeaderboardTTL: parseDuration(getEnv("LEADERBOARD_TTL", "30s"), 30*time.Second),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// GeminiModelList returns the configured Gemini model names in priority order.
func (c *Config) GeminiModelList() []string {
	var models []string
	for _, m := range strings.Split(c.GeminiModels, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	return models
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
