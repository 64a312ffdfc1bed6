package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "time"

    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets and OAuth credentials are required; the
// rest fall back to defaults suitable for local development.
type Config struct {
    Env         string        // application environment ("development", "production")
    Port        string        // HTTP port to listen on
    DBUser      string        // database username
    DBPass      string        // database password (optional)
    DBHost      string        // database host address
    DBPort      string        // database port number
    DBName      string        // database name
    JWTSecret   string        // secret used to sign session tokens
    TokenTTL    time.Duration // lifetime of every session token
    BcryptCost  int           // bcrypt cost for password hashing
    OTPTTL      time.Duration // validity window of one-time codes

    AdminEmail    string // configured admin login (no users row)
    AdminPassword string // configured admin secret

    GoogleClientID     string
    GoogleClientSecret string
    GoogleCallbackURL  string
    FrontendURL        string // CORS origin and OAuth redirect target

    BaseURL   string // public prefix for relative upload paths
    UploadDir string // root of the local uploads tree, served at /uploads
}

// Load reads an optional .env file and then the process environment.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
    _ = godotenv.Load() // a missing .env is fine; real env wins anyway

    return Config{
        Env:         envStr("APP_ENV", "development"),
        Port:        envStr("APP_PORT", envStr("PORT", "5000")),
        DBUser:      must("DB_USER"),
        DBPass:      os.Getenv("DB_PASS"), // empty allowed
        DBHost:      must("DB_HOST"),
        DBPort:      must("DB_PORT"),
        DBName:      must("DB_NAME"),
        JWTSecret:   must("JWT_SECRET"),
        TokenTTL:    envDur("TOKEN_TTL", 7*24*time.Hour),
        BcryptCost:  envInt("BCRYPT_COST", 10),
        OTPTTL:      envDur("OTP_TTL", 10*time.Minute),

        AdminEmail:    os.Getenv("ADMIN_EMAIL"),
        AdminPassword: os.Getenv("ADMIN_PASSWORD"),

        GoogleClientID:     must("GOOGLE_CLIENT_ID"),
        GoogleClientSecret: must("GOOGLE_CLIENT_SECRET"),
        GoogleCallbackURL:  must("GOOGLE_CALLBACK_URL"),
        FrontendURL:        must("FRONTEND_URL"),

        BaseURL:   envStr("BASE_URL", "http://localhost:5000"),
        UploadDir: envStr("UPLOAD_DIR", "uploads"),
    }
}

// IsProduction reports whether structured JSON logging and stricter defaults apply.
func (c Config) IsProduction() bool { return c.Env == "production" || c.Env == "prod" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
