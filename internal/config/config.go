package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings parses the key-set variable
	"time"    // time for the leeway duration
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  The JWT key set supports
// rotation: JWT_KEYS carries "kid=secret" pairs separated by commas
// and JWT_ACTIVE_KID names the minting key.  When only JWT_SECRET is
// set, a single-key set {"v1": JWT_SECRET} is used.
type Config struct {
	Env            string            // application environment (e.g. "dev", "prod")
	Port           string            // HTTP port to listen on
	DBUser         string            // database username
	DBPass         string            // database password (optional)
	DBHost         string            // database host address
	DBPort         string            // database port number
	DBName         string            // database name
	JWTKeys        map[string]string // kid -> HMAC secret, all keys valid for verification
	JWTActiveKID   string            // kid used when signing new tokens
	JWTLeeway      time.Duration     // clock-skew tolerance on expiry checks (default 0)
	AccessTTLMin   int               // access token time-to-live in minutes
	RefreshTTLDays int               // refresh token time-to-live in days
	BcryptCost     int               // bcrypt cost for password hashing
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTLeeway:      envDur("JWT_LEEWAY", 0),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
	}
	cfg.JWTKeys, cfg.JWTActiveKID = loadKeySet()
	return cfg
}

// loadKeySet parses JWT_KEYS/JWT_ACTIVE_KID, falling back to a
// single-key set built from JWT_SECRET.
func loadKeySet() (map[string]string, string) {
	raw := os.Getenv("JWT_KEYS")
	if raw == "" {
		return map[string]string{"v1": must("JWT_SECRET")}, "v1"
	}
	keys := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		kid, secret, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || kid == "" || secret == "" {
			log.Fatalf("invalid JWT_KEYS entry: %q", pair)
		}
		keys[kid] = secret
	}
	active := os.Getenv("JWT_ACTIVE_KID")
	if active == "" {
		log.Fatal("JWT_ACTIVE_KID is required when JWT_KEYS is set")
	}
	if _, ok := keys[active]; !ok {
		log.Fatalf("JWT_ACTIVE_KID %q not present in JWT_KEYS", active)
	}
	return keys, active
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

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
