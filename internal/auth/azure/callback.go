package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"

	"github.com/pysugar/cloudidp/internal/auth/session"
	"github.com/pysugar/cloudidp/internal/store"
	"github.com/pysugar/cloudidp/internal/util"
)

// graphUser is the subset of the Graph /me resource we keep.
type graphUser struct {
	ID                string `json:"id"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	DisplayName       string `json:"displayName"`
	GivenName         string `json:"givenName"`
	Surname           string `json:"surname"`
	JobTitle          string `json:"jobTitle"`
	Department        string `json:"department"`
	OfficeLocation    string `json:"officeLocation"`
}

func (g graphUser) profile() store.UserProfile {
	email := g.Mail
	if email == "" {
		email = g.UserPrincipalName
	}
	return store.UserProfile{
		ID:             g.ID,
		Email:          email,
		Name:           g.DisplayName,
		GivenName:      g.GivenName,
		Surname:        g.Surname,
		JobTitle:       g.JobTitle,
		Department:     g.Department,
		OfficeLocation: g.OfficeLocation,
	}
}

func (s *Service) clientContext(ctx context.Context) context.Context {
	if s.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// FetchProfile reads the signed-in user from Microsoft Graph.
func (s *Service) FetchProfile(ctx context.Context, tok *oauth2.Token) (store.UserProfile, error) {
	ctx = s.clientContext(ctx)
	client := s.cfg.OAuthConfig("").Client(ctx, tok)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.GraphURL+"/me", nil)
	if err != nil {
		return store.UserProfile{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return store.UserProfile{}, errors.Wrap(err, "graph /me")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return store.UserProfile{}, errors.Newf("graph /me: status %d", resp.StatusCode)
	}

	var g graphUser
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return store.UserProfile{}, errors.Wrap(err, "decode graph /me")
	}
	p := g.profile()
	if p.ID == "" || p.Email == "" {
		return store.UserProfile{}, errors.Newf("graph /me returned no id or email: %s", util.JSONPreview(g))
	}
	return p, nil
}

// HandleCallback completes the flow: state check, code exchange, profile
// fetch, then SignIn and the session cookie.
func (s *Service) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.checkState(w, r) {
		http.Error(w, "Invalid state token", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		s.log.WarnContext(ctx, "azure ad returned an error", "error", e, "description", q.Get("error_description"))
		http.Error(w, fmt.Sprintf("Sign-in failed: %s", e), http.StatusUnauthorized)
		return
	}

	tok, err := s.cfg.OAuthConfig(s.redirectURL(r)).Exchange(s.clientContext(ctx), q.Get("code"))
	if err != nil {
		s.log.WarnContext(ctx, "token exchange failed", "error", err.Error())
		http.Error(w, "Token exchange failed", http.StatusUnauthorized)
		return
	}
	profile, err := s.FetchProfile(ctx, tok)
	if err != nil {
		s.log.WarnContext(ctx, "failed to get user info", "error", err.Error())
		http.Error(w, "Failed to get user info", http.StatusBadGateway)
		return
	}

	_, sess, err := s.SignIn(ctx, profile, session.ClientFromRequest(r))
	switch {
	case errors.Is(err, session.ErrInactive):
		http.Error(w, "Your account has been deactivated", http.StatusForbidden)
		return
	case store.KindOf(err) == store.KindUnavailable:
		http.Error(w, "User database unavailable", http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	session.SetCookie(w, sess, s.secure)
	http.Redirect(w, r, "/", http.StatusFound)
}
