package transport

import (
	"net/http"
	"os"

	"github.com/releasetools/fixvet/pkg/errors"
)

// Environment variables carrying tracker credentials.
const (
	EnvUser     = "JIRA_USER"
	EnvPassword = "JIRA_PASSWORD"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {
	// No authentication applied
}

// BasicAuth implements HTTP basic authentication.
type BasicAuth struct {
	Username string
	Password string
}

// Apply implements the Authenticator interface for BasicAuth.
func (a *BasicAuth) Apply(req *http.Request) {
	req.SetBasicAuth(a.Username, a.Password)
}

// CredentialsFromEnv builds a BasicAuth from the JIRA_USER and
// JIRA_PASSWORD environment variables. Both must be set.
func CredentialsFromEnv() (*BasicAuth, error) {
	user := os.Getenv(EnvUser)
	password := os.Getenv(EnvPassword)
	if user == "" || password == "" {
		return nil, &errors.AuthenticationError{
			Method:  "basic",
			Message: "set " + EnvUser + " and " + EnvPassword + " environment variables to authenticate",
		}
	}
	return &BasicAuth{Username: user, Password: password}, nil
}
