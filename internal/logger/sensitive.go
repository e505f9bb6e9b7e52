package logger

import (
	"regexp"
	"strings"
)

// sensitiveDataPatterns match credentials that must never reach log output
var sensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-._~+/]+=*)`),
	regexp.MustCompile(`(?i)((api|access|auth|token|secret|key|passw(or)?d)[0-9a-z\-_.]*[\s:=]+)([^;,&\s]{5,})`),
	regexp.MustCompile(`(sk-ant-)[A-Za-z0-9_\-]+`),
}

// sensitiveKeywords mark field or header names whose values are redacted wholesale
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "credential", "token", "authorization", "api_key", "apikey", "cookie",
}

// RedactSensitiveData replaces credential-looking substrings with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}
	for _, pattern := range sensitiveDataPatterns {
		input = pattern.ReplaceAllString(input, "${1}[REDACTED]")
	}
	return input
}

// IsSensitiveKey reports whether a field or header name carries a secret
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
