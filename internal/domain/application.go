package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Application is a relying application registered to delegate login to us.
type Application struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Domain      string    `json:"domain"`
	RedirectURL string    `json:"redirect_url"`
	OwnerID     uuid.UUID `json:"owner_id"`
	SecretHash  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// AllowsRedirect reports whether rawURL is an http(s) URL on the application's
// domain. A domain of the form "*.example.com" also admits subdomains.
func (a *Application) AllowsRedirect(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := u.Hostname()
	if host == "" || a.Domain == "" {
		return false
	}

	if host == a.Domain {
		return true
	}

	if strings.HasPrefix(a.Domain, "*.") {
		base := strings.TrimPrefix(a.Domain, "*.")
		return host == base || strings.HasSuffix(host, "."+base)
	}

	return false
}
