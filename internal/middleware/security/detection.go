package security

import (
	"net/http"
	"net/url"
	"strings"

	flog "fluxo/internal/log"
	"fluxo/internal/obs"
)

const maxURLLength = 2048

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}

	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan",
	}

	blockedMethods = map[string]bool{
		"TRACE": true, "TRACK": true, "DEBUG": true, "CONNECT": true,
	}
)

// Detect classifies a request. It returns an empty reason for ordinary
// traffic and whether the request must be rejected outright.
func Detect(r *http.Request) (reason string, block bool) {
	if blockedMethods[r.Method] {
		return "method", true
	}
	if len(r.URL.String()) > maxURLLength {
		return "url_length", true
	}

	path := strings.ToLower(r.URL.Path)
	query := r.URL.RawQuery
	if unescaped, err := url.QueryUnescape(query); err == nil {
		query = unescaped
	}
	query = strings.ToLower(query)
	for _, p := range suspiciousPatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return "pattern", false
		}
	}

	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return "scanner", false
		}
	}

	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return "forwarding", false
	}
	return "", false
}

// DetectionMiddleware logs and counts suspicious requests and refuses the
// ones Detect marks as blocked.
func DetectionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reason, block := Detect(r)
		if reason == "" {
			next.ServeHTTP(w, r)
			return
		}

		obs.ObserveSuspicious(reason)
		flog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
			flog.FieldComponent, flog.ComponentSecurity,
			flog.FieldMethod, r.Method,
			flog.FieldPath, r.URL.Path,
			"reason", reason,
			"blocked", block)

		if block {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}
