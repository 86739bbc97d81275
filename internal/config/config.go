package config // package config loads application configuration from environment variables

import (
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings normalises list and boolean values
	"time"    // time expresses token lifetimes

	"github.com/joho/godotenv"       // godotenv loads an optional .env file
	log "github.com/sirupsen/logrus" // logrus reports configuration errors and halts execution
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The value is built once in main and handed to the
// components that need it; nothing reads the environment after startup.
type Config struct {
	Env     string // application environment (e.g. "dev", "prod")
	Port    string // HTTP port to listen on
	BaseURL string // public URL of the front end, used in reset links

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret     string        // secret used to sign session tokens
	TokenTTL      time.Duration // session token lifetime
	BcryptCost    int           // bcrypt cost for password hashing
	ResetTokenTTL time.Duration // how long a password reset token stays usable

	GoogleClientID string // expected audience of Google ID tokens (empty disables federated login)

	Mail MailConfig

	LogLevel string // logrus level name
	LogFile  string // optional rotated log file
	LogJSON  bool   // use the JSON formatter

	StaticDir   string   // optional directory with the front end build
	CORSOrigins []string // allowed CORS origins
}

// MailConfig describes the SMTP relay used for password reset mail.
type MailConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
	StartTLS bool
	SSLTLS   bool
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when present;
// real environment variables win over it.  Required variables are enforced by
// must() and missing values cause the program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("config: .env not loaded: %s", err)
	}

	return Config{
		Env:     getenv("APP_ENV", "dev"),
		Port:    getenv("APP_PORT", "8000"),
		BaseURL: strings.TrimRight(getenv("BASE_URL", "http://localhost:8000"), "/"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret:     must("JWT_SECRET"),
		TokenTTL:      time.Duration(envInt("TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
		BcryptCost:    envInt("BCRYPT_COST", 12),
		ResetTokenTTL: time.Duration(envInt("RESET_TOKEN_TTL_MIN", 60)) * time.Minute,

		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),

		Mail: MailConfig{
			Server:   os.Getenv("MAIL_SERVER"),
			Port:     envInt("MAIL_PORT", 587),
			Username: os.Getenv("MAIL_USERNAME"),
			Password: os.Getenv("MAIL_PASSWORD"),
			From:     os.Getenv("MAIL_FROM"),
			StartTLS: envBool("MAIL_STARTTLS", true),
			SSLTLS:   envBool("MAIL_SSL_TLS", false),
		},

		LogLevel: getenv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
		LogJSON:  envBool("LOG_JSON", false),

		StaticDir:   os.Getenv("STATIC_DIR"),
		CORSOrigins: splitList(getenv("CORS_ALLOW_ORIGINS", "*")),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt is like getenv() but converts the value into an integer.  A value
// that does not parse is fatal.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
