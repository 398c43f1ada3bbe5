// Package azure signs dashboard users in through Azure AD and records the
// sign-in in the account store.
package azure

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/pysugar/cloudidp/internal/auth/session"
)

// DefaultGraphURL is the Microsoft Graph endpoint queried for the profile.
const DefaultGraphURL = "https://graph.microsoft.com/v1.0"

// CallbackPath is where Azure AD returns the browser.
const CallbackPath = "/auth/callback"

// Scopes requested at sign-in. User.Read covers the Graph /me call.
var Scopes = []string{"User.Read", "openid", "profile", "email"}

type Config struct {
	ClientID     string
	ClientSecret string
	TenantID     string
	// RedirectURL overrides the callback URL derived from the request.
	RedirectURL string
	// Endpoint defaults to the tenant's Azure AD endpoint.
	Endpoint oauth2.Endpoint
	GraphURL string
}

// Configured reports whether the client credentials are present.
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.TenantID != ""
}

// OAuthConfig returns the OAuth2 config for redirectURL.
func (c Config) OAuthConfig(redirectURL string) *oauth2.Config {
	endpoint := c.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = microsoft.AzureADEndpoint(c.TenantID)
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     endpoint,
	}
}

// Service runs the sign-in flow.
type Service struct {
	cfg        Config
	src        session.Source
	sessions   *session.Manager
	log        *slog.Logger
	httpClient *http.Client
	secure     bool
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithHTTPClient sets the client used for the token exchange and Graph calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.httpClient = c }
}

// WithSecureCookies marks the session and state cookies Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Service) { s.secure = secure }
}

func New(cfg Config, src session.Source, sessions *session.Manager, opts ...Option) *Service {
	if cfg.GraphURL == "" {
		cfg.GraphURL = DefaultGraphURL
	}
	cfg.GraphURL = strings.TrimRight(cfg.GraphURL, "/")
	s := &Service{cfg: cfg, src: src, sessions: sessions, log: slog.Default()}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// redirectURL is the configured callback, or one built from the request.
func (s *Service) redirectURL(r *http.Request) string {
	if s.cfg.RedirectURL != "" {
		return s.cfg.RedirectURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + CallbackPath
}
