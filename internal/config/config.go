package config // package config loads application configuration from environment variables

import (
    "errors"  // errors joins every configuration problem into one report
    "fmt"     // fmt formats the error messages
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses the HTTP timeouts

    "github.com/joho/godotenv"

    "github.com/iliyamo/smart-parking/internal/model"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Money is expressed in whole currency units.
type Config struct {
    Env                  string          // application environment (e.g. "dev", "prod")
    Port                 string          // HTTP port to listen on
    Persistence          bool            // write state through to MySQL and restore it at boot
    DBUser               string          // database username
    DBPass               string          // database password (optional)
    DBHost               string          // database host address
    DBPort               string          // database port number
    DBName               string          // database name
    JWTSecret            string          // secret used to sign JWTs
    AccessTTLMin         int             // access token time-to-live in minutes
    OperatorUsername     string          // login name of the operator account
    OperatorPasswordHash string          // bcrypt hash of the operator password; empty disables login
    HourlyRate           int64           // price of one started hour
    DayPassRate          int64           // flat day-pass price
    Inventory            model.Inventory // slots created by initialize when no body is sent
    ReadTimeout          time.Duration   // http.Server ReadTimeout
    WriteTimeout         time.Duration   // http.Server WriteTimeout
    ShutdownTimeout      time.Duration   // grace period for in-flight requests on shutdown
}

// IsDevelopment reports whether the service runs in a development
// environment.
func (c Config) IsDevelopment() bool {
    return c.Env == "dev" || c.Env == "development" || c.Env == "local"
}

// Load reads a .env file when present, then builds a Config from the
// environment.  Every missing or malformed variable is reported in the
// returned error rather than only the first one.
func Load() (Config, error) {
    _ = godotenv.Load() // a missing .env is not an error

    r := &reader{}
    cfg := Config{
        Env:                  envStr("APP_ENV", "dev"),
        Port:                 envStr("APP_PORT", "8000"),
        Persistence:          envBool("PERSISTENCE_ENABLED", false),
        DBPass:               os.Getenv("DB_PASS"),
        JWTSecret:            r.must("JWT_SECRET"),
        AccessTTLMin:         r.intOr("ACCESS_TOKEN_TTL_MIN", 60),
        OperatorUsername:     envStr("OPERATOR_USERNAME", "operator"),
        OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
        HourlyRate:           int64(r.mustInt("BILLING_HOURLY_RATE")),
        DayPassRate:          int64(r.mustInt("BILLING_DAY_PASS_RATE")),
        Inventory: model.Inventory{
            model.SlotRegular:  r.intOr("INVENTORY_REGULAR", 10),
            model.SlotCompact:  r.intOr("INVENTORY_COMPACT", 5),
            model.SlotEV:       r.intOr("INVENTORY_EV", 3),
            model.SlotHandicap: r.intOr("INVENTORY_HANDICAP", 2),
        },
        ReadTimeout:     envDur("HTTP_READ_TIMEOUT", 15*time.Second),
        WriteTimeout:    envDur("HTTP_WRITE_TIMEOUT", 15*time.Second),
        ShutdownTimeout: envDur("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
    }
    if cfg.Persistence {
        cfg.DBUser = r.must("DB_USER")
        cfg.DBHost = r.must("DB_HOST")
        cfg.DBPort = r.must("DB_PORT")
        cfg.DBName = r.must("DB_NAME")
    }

    if cfg.HourlyRate < 0 || cfg.DayPassRate < 0 {
        r.fail(errors.New("billing rates must not be negative"))
    }
    for t, n := range cfg.Inventory {
        if n < 0 {
            r.fail(fmt.Errorf("inventory for %s must not be negative", t))
        }
    }
    if cfg.AccessTTLMin < 1 {
        r.fail(errors.New("ACCESS_TOKEN_TTL_MIN must be positive"))
    }
    return cfg, r.err()
}

// reader accumulates problems found while reading required variables.
type reader struct {
    errs []error
}

func (r *reader) fail(err error) { r.errs = append(r.errs, err) }

func (r *reader) err() error { return errors.Join(r.errs...) }

// must retrieves the value of a required environment variable and records
// an error when it is unset or empty.
func (r *reader) must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        r.fail(fmt.Errorf("missing required env var: %s", key))
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func (r *reader) mustInt(key string) int {
    s := r.must(key)
    if s == "" {
        return 0
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        r.fail(fmt.Errorf("invalid int for %s: %q", key, s))
    }
    return n
}

// intOr returns d when key is unset and records an error when it is set
// but not an integer.
func (r *reader) intOr(key string, d int) int {
    s := os.Getenv(key)
    if s == "" {
        return d
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        r.fail(fmt.Errorf("invalid int for %s: %q", key, s))
        return d
    }
    return n
}
