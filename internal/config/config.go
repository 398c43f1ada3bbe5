// Package config loads cloudidp settings: built-in defaults, then an optional
// YAML secrets file, then environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	BackendSQL       = "sql"
	BackendFirestore = "firestore"
)

type Config struct {
	// Backend holds users, preferences and audit events. Records always use
	// Database.
	Backend  string   `yaml:"backend" env:"CLOUDIDP_BACKEND" validate:"oneof=sql firestore"`
	Database Database `yaml:"database"`
	GCP      GCP      `yaml:"gcp"`
	HTTP     HTTP     `yaml:"http"`
	Azure    Azure    `yaml:"azure"`
	Log      Log      `yaml:"log"`
	Session  Session  `yaml:"session"`
}

type Database struct {
	Type     string `yaml:"db_type" env:"DB_TYPE" validate:"oneof=sqlite sqlite3 postgresql postgres pg"`
	Host     string `yaml:"db_host" env:"DB_HOST"`
	Port     int    `yaml:"db_port" env:"DB_PORT" validate:"gte=0,lte=65535"`
	Name     string `yaml:"db_name" env:"DB_NAME"`
	User     string `yaml:"db_user" env:"DB_USER"`
	Password string `yaml:"db_password" env:"DB_PASSWORD"`
	SSLMode  string `yaml:"db_sslmode" env:"DB_SSLMODE"`
	Path     string `yaml:"db_path" env:"DB_PATH"`
}

func (d Database) IsPostgres() bool {
	switch strings.ToLower(d.Type) {
	case "postgresql", "postgres", "pg":
		return true
	}
	return false
}

// DSN is a postgres URL, or the sqlite file path.
func (d Database) DSN() string {
	if !d.IsPostgres() {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(d.SSLMode)
	}
	return u.String()
}

type GCP struct {
	// ServiceAccount is the key embedded in the secrets file.
	ServiceAccount map[string]any `yaml:"service_account"`
	// ServiceAccountJSON takes precedence over ServiceAccount.
	ServiceAccountJSON string `yaml:"-" env:"GCP_SERVICE_ACCOUNT"`
	CredentialsFile    string `yaml:"credentials_file" env:"GCP_CREDENTIALS_FILE"`
	ProjectID          string `yaml:"project_id" env:"GCP_PROJECT_ID"`
}

// CredentialsJSON returns the service-account key, or nil when none is set.
func (g GCP) CredentialsJSON() ([]byte, error) {
	if g.ServiceAccountJSON != "" {
		if !json.Valid([]byte(g.ServiceAccountJSON)) {
			return nil, fmt.Errorf("GCP_SERVICE_ACCOUNT is not valid JSON")
		}
		return []byte(g.ServiceAccountJSON), nil
	}
	if len(g.ServiceAccount) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(g.ServiceAccount)
	if err != nil {
		return nil, fmt.Errorf("encode gcp.service_account: %w", err)
	}
	return b, nil
}

type HTTP struct {
	Host          string `yaml:"host" env:"HOST"`
	Port          int    `yaml:"port" env:"PORT" validate:"gt=0,lte=65535"`
	BaseURL       string `yaml:"base_url" env:"APP_BASE_URL" validate:"omitempty,url"`
	AdminPassword string `yaml:"admin_password" env:"CLOUDIDP_ADMIN_PASSWORD"`
	CookieSecure  bool   `yaml:"cookie_secure" env:"COOKIE_SECURE"`
}

func (h HTTP) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

type Azure struct {
	ClientID     string `yaml:"client_id" env:"AZURE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"AZURE_CLIENT_SECRET"`
	TenantID     string `yaml:"tenant_id" env:"AZURE_TENANT_ID"`
}

// Enabled reports whether Azure AD sign-in is configured.
func (a Azure) Enabled() bool {
	return a.ClientID != "" && a.ClientSecret != "" && a.TenantID != ""
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT" validate:"oneof=text json"`
}

type Session struct {
	Timeout time.Duration `yaml:"timeout" env:"SESSION_TIMEOUT" validate:"gt=0"`
}

func Default() Config {
	return Config{
		Backend: BackendSQL,
		Database: Database{
			Type:    "sqlite",
			Host:    "localhost",
			Port:    5432,
			Name:    "cloudidp",
			User:    "cloudidp",
			SSLMode: "prefer",
			Path:    "cloudidp_users.db",
		},
		HTTP: HTTP{
			Host:    "127.0.0.1",
			Port:    8080,
			BaseURL: "http://localhost:8080",
		},
		Log:     Log{Level: "info", Format: "text"},
		Session: Session{Timeout: 8 * time.Hour},
	}
}

// Load builds the configuration. An explicit path must exist; otherwise the
// first well-known location found is used, if any.
func Load(path string) (Config, string, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CLOUDIDP_CONFIG")
	}
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return cfg, "", err
	}
	if resolved != "" {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return cfg, resolved, fmt.Errorf("failed to read config file %q: %w", resolved, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, resolved, fmt.Errorf("failed to parse config file %q: %w", resolved, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, resolved, fmt.Errorf("parse env: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Database.Type = strings.ToLower(strings.TrimSpace(cfg.Database.Type))

	if err := cfg.Validate(); err != nil {
		return cfg, resolved, err
	}
	return cfg, resolved, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Backend == BackendFirestore {
		if _, err := c.GCP.CredentialsJSON(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

func resolveConfigPath(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}

	candidates := []string{
		"config/cloudidp.yaml",
		"/etc/cloudidp/cloudidp.yaml",
	}
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "cloudidp", "cloudidp.yaml"))
	}
	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			return c, nil
		}
	}
	return "", nil
}
