// headers/redact/redact.go
package redact

import "strings"

// Redacted replaces sensitive values in logs.
const Redacted = "REDACTED"

// sensitiveKeys lists header and field names whose values never reach the logs.
var sensitiveKeys = []string{
	"AccessToken",
	"Authorization",
	"Proxy-Authorization",
	"app_secret",
	"AppSecret",
	"app_ticket",
	"refresh_token",
	"RefreshToken",
	"app_access_token",
	"tenant_access_token",
	"user_access_token",
}

// IsSensitiveKey reports whether key names a credential. Matching is case insensitive.
func IsSensitiveKey(key string) bool {
	for _, k := range sensitiveKeys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// RedactSensitiveHeaderData redacts sensitive data based on the hideSensitiveData flag.
func RedactSensitiveHeaderData(hideSensitiveData bool, key, value string) string {
	if hideSensitiveData && IsSensitiveKey(key) {
		return Redacted
	}
	return value
}
