package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DevEnv  = "dev"
	TestEnv = "test"
	ProdEnv = "prod"

	StorePostgres = "postgres"
	StoreMemory   = "memory"

	devSessionSecret  = "ourcity_dev_secret_change_me"
	defaultCORSOrigin = "http://localhost:5173"
)

type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	Store       string

	SessionSecret string
	SessionName   string
	CORSOrigins   []string

	AdminUsername string
	AdminPassword string

	GeofenceLat      float64
	GeofenceLng      float64
	GeofenceRadiusKm float64

	ReportThreshold int

	LogLevel  string
	LogFormat string
}

func (c *Config) IsProd() bool { return c.Env == ProdEnv }

// LoadDotEnvs reads .env files in priority order. godotenv never overrides a
// variable that is already set, so earlier files win.
func LoadDotEnvs(rootPath string) {
	env := os.Getenv("OURCITY_ENV")
	if env == "" {
		env = DevEnv
	}

	// secrets for the current environment
	_ = godotenv.Load(rootPath + ".env." + env + ".local")
	_ = godotenv.Load(rootPath + ".env.local")
	_ = godotenv.Load(rootPath + ".env." + env)
	// shared defaults
	_ = godotenv.Load(rootPath + ".env")
}

// Load reads .env files then builds the config from the environment.
func Load() (*Config, error) {
	LoadDotEnvs("")
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Env:           get("OURCITY_ENV", DevEnv),
		Port:          get("PORT", "8080"),
		DatabaseURL:   get("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=ourcity port=5432 sslmode=disable TimeZone=UTC"),
		Store:         strings.ToLower(get("STORE", StorePostgres)),
		SessionSecret: get("SESSION_SECRET", ""),
		SessionName:   get("SESSION_NAME", "OurCityAuthToken"),
		AdminUsername: get("ADMIN_USERNAME", "admin"),
		AdminPassword: getenv("ADMIN_PASSWORD"),
		LogLevel:      get("LOG_LEVEL", "info"),
		LogFormat:     get("LOG_FORMAT", "text"),
	}

	cfg.CORSOrigins = splitList(get("CORS_ALLOWED_ORIGINS", defaultCORSOrigin))
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{defaultCORSOrigin}
	}

	var err error
	if cfg.GeofenceLat, err = parseFloat(get("GEOFENCE_CENTER_LAT", "49.8951"), "GEOFENCE_CENTER_LAT"); err != nil {
		return nil, err
	}
	if cfg.GeofenceLng, err = parseFloat(get("GEOFENCE_CENTER_LNG", "-97.1384"), "GEOFENCE_CENTER_LNG"); err != nil {
		return nil, err
	}
	if cfg.GeofenceRadiusKm, err = parseFloat(get("GEOFENCE_RADIUS_KM", "25"), "GEOFENCE_RADIUS_KM"); err != nil {
		return nil, err
	}
	if cfg.ReportThreshold, err = strconv.Atoi(get("REPORT_HIDE_THRESHOLD", "5")); err != nil {
		return nil, errors.Wrap(err, "REPORT_HIDE_THRESHOLD")
	}

	if cfg.Store != StorePostgres && cfg.Store != StoreMemory {
		return nil, errors.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.Store)
	}
	if cfg.SessionSecret == "" {
		if cfg.IsProd() {
			return nil, errors.New("SESSION_SECRET is required in prod")
		}
		cfg.SessionSecret = devSessionSecret
	}
	if cfg.IsProd() && cfg.AdminPassword == "" {
		return nil, errors.New("ADMIN_PASSWORD is required in prod")
	}
	return cfg, nil
}

func parseFloat(raw, key string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return v, nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
