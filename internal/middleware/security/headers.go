package security

import (
	"net/http"

	"github.com/unrolled/secure"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	ContentSecurityPolicy string
	ReferrerPolicy        string
	PermissionsPolicy     string

	// HSTS is only sent over TLS or when a proxy reports https.
	STSSeconds           int64
	STSIncludeSubdomains bool

	// Development disables HSTS so local http runs stay usable.
	Development bool
}

// DefaultHeadersConfig returns defaults suited to a JSON API.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		STSSeconds:            31536000,
		STSIncludeSubdomains:  true,
	}
}

// Headers returns middleware that applies the configured security headers.
func Headers(config HeadersConfig) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        config.ReferrerPolicy,
		PermissionsPolicy:     config.PermissionsPolicy,
		ContentSecurityPolicy: config.ContentSecurityPolicy,
		STSSeconds:            config.STSSeconds,
		STSIncludeSubdomains:  config.STSIncludeSubdomains,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         config.Development,
	})
	return sm.Handler
}
