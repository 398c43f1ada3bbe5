package azure

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// stateCookie holds the CSRF state between login and callback.
const stateCookie = "cloudidp_oauth_state"

const stateTTL = 10 * time.Minute

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HandleLogin redirects the browser to the Azure AD consent page.
func (s *Service) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Configured() {
		http.Error(w, "Azure AD sign-in is not configured", http.StatusServiceUnavailable)
		return
	}
	state, err := newState()
	if err != nil {
		http.Error(w, "failed to create state token", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	url := s.cfg.OAuthConfig(s.redirectURL(r)).AuthCodeURL(state,
		oauth2.SetAuthURLParam("response_mode", "query"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// checkState compares the callback state with the login cookie and clears it.
func (s *Service) checkState(w http.ResponseWriter, r *http.Request) bool {
	c, err := r.Cookie(stateCookie)
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/", MaxAge: -1, HttpOnly: true, Secure: s.secure})
	if err != nil || c.Value == "" {
		return false
	}
	return r.URL.Query().Get("state") == c.Value
}
