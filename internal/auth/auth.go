// Package auth configures the OAuth providers. The rest of the
// application treats authentication as opaque: handlers only ever see
// the (user id, email) pair stored in the session.
package auth

import (
	"os"

	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/apple"
	"github.com/markbates/goth/providers/google"
)

// Session keys shared by the auth handlers and middleware.
const (
	SessionUserID = "user_id"
	SessionEmail  = "email"
)

// InitGothProviders registers every provider that has credentials
// configured.
func InitGothProviders() {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	var providers []goth.Provider

	if key := os.Getenv("GOOGLE_CLIENT_ID"); key != "" {
		providers = append(providers, google.New(
			key,
			os.Getenv("GOOGLE_CLIENT_SECRET"),
			baseURL+"/auth/google/callback",
			"email", "profile",
		))
	}

	if key := os.Getenv("APPLE_CLIENT_ID"); key != "" {
		providers = append(providers, apple.New(
			key,
			os.Getenv("APPLE_CLIENT_SECRET"),
			baseURL+"/auth/apple/callback",
			nil,
			apple.ScopeName, apple.ScopeEmail,
		))
	}

	goth.UseProviders(providers...)
}
