package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const defaultSessionSecret = "defaultSecret"

// Config holds application configuration
type Config struct {
	Port   string `yaml:"port"`
	AppEnv string `yaml:"app_env"`

	StorageDriver string `yaml:"storage_driver"` // memory, postgres, mysql, sqlite, supabase
	DBHost        string `yaml:"db_host"`
	DBPort        string `yaml:"db_port"`
	DBUser        string `yaml:"db_user"`
	DBPassword    string `yaml:"db_password"`
	DBName        string `yaml:"db_name"`
	SQLitePath    string `yaml:"sqlite_path"`
	SupabaseURL   string `yaml:"supabase_url"`
	SupabaseKey   string `yaml:"supabase_key"`

	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SessionCookie string        `yaml:"session_cookie"`
	CookieSecure  bool          `yaml:"cookie_secure"`

	OTPTTLMinutes   int  `yaml:"otp_ttl_minutes"`
	OTPRateLimit    int  `yaml:"otp_rate_limit"` // requests per minute per IP
	EnforceDeadline bool `yaml:"enforce_deadline"`

	MailDriver     string `yaml:"mail_driver"` // log, smtp, sendgrid
	MailFrom       string `yaml:"mail_from"`
	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       int    `yaml:"smtp_port"`
	SMTPUser       string `yaml:"smtp_user"`
	SMTPPassword   string `yaml:"smtp_password"`
	SendGridAPIKey string `yaml:"sendgrid_api_key"`

	AllowOrigins string `yaml:"allow_origins"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:            "3000",
		AppEnv:          "production",
		StorageDriver:   "memory",
		DBHost:          "localhost",
		DBPort:          "5432",
		DBName:          "placement",
		SQLitePath:      "placement.db",
		SessionSecret:   defaultSessionSecret,
		SessionTTL:      24 * time.Hour,
		SessionCookie:   "placement.sid",
		OTPTTLMinutes:   5,
		OTPRateLimit:    5,
		EnforceDeadline: true,
		MailDriver:      "log",
		MailFrom:        "noreply@placement.system",
		SMTPHost:        "smtp.gmail.com",
		SMTPPort:        587,
		AllowOrigins:    "*",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// LoadConfig initializes configuration from .env, an optional YAML file and
// environment variables, in increasing order of precedence.
func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			log.Fatalf("Error parsing %s: %v", path, err)
		}
	}
	cfg.applyEnv()
	cfg.ConfigureLogging()

	// Validate critical configuration
	if cfg.SessionSecret == defaultSessionSecret {
		log.Println("Warning: Using default SESSION_SECRET. Update it in your environment.")
	}
	if cfg.OTPTTLMinutes <= 0 {
		log.Printf("Warning: OTP_TTL_MINUTES=%d is invalid, falling back to 5", cfg.OTPTTLMinutes)
		cfg.OTPTTLMinutes = 5
	}

	return cfg
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)

	c.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", c.StorageDriver))
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.SupabaseURL = getEnv("SUPABASE_URL", c.SupabaseURL)
	c.SupabaseKey = getEnv("SUPABASE_KEY", getEnv("SUPABASE_ANON_KEY", c.SupabaseKey))

	c.SessionSecret = getEnv("SESSION_SECRET", getEnv("JWT_SECRET_KEY", c.SessionSecret))
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.SessionCookie = getEnv("SESSION_COOKIE", c.SessionCookie)
	c.CookieSecure = getEnvBool("COOKIE_SECURE", c.CookieSecure)

	c.OTPTTLMinutes = getEnvInt("OTP_TTL_MINUTES", c.OTPTTLMinutes)
	c.OTPRateLimit = getEnvInt("OTP_RATE_LIMIT", c.OTPRateLimit)
	c.EnforceDeadline = getEnvBool("ENFORCE_DEADLINE", c.EnforceDeadline)

	c.MailDriver = strings.ToLower(getEnv("MAIL_DRIVER", c.MailDriver))
	c.MailFrom = getEnv("MAIL_FROM", c.MailFrom)
	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = getEnvInt("SMTP_PORT", c.SMTPPort)
	c.SMTPUser = getEnv("SMTP_USER", c.SMTPUser)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", getEnv("SMTP_PASS", c.SMTPPassword))
	c.SendGridAPIKey = getEnv("SENDGRID_API_KEY", c.SendGridAPIKey)

	c.AllowOrigins = getEnv("ALLOW_ORIGINS", c.AllowOrigins)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// ConfigureLogging applies level and formatter to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// OTPTTL is the enforced lifetime of an issued code.
func (c *Config) OTPTTL() time.Duration {
	return time.Duration(c.OTPTTLMinutes) * time.Minute
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to duration: %v", key, err)
		return defaultValue
	}
	return d
}
