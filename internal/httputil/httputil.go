// Package httputil provides status-code and media-type helpers shared by the
// definition loader and the request/response validators.
package httputil

import (
	"mime"
	"strconv"
	"strings"
)

// HTTP Status Code Constants
const (
	StatusCodeLength = 3   // Standard length of HTTP status codes (e.g., "200", "404")
	MinStatusCode    = 100 // Minimum valid HTTP status code
	MaxStatusCode    = 599 // Maximum valid HTTP status code
	WildcardChar     = 'X' // Wildcard character used in status code patterns (e.g., "2XX")
	DefaultResponse  = "default"
)

// Wildcard boundary characters for validation
const (
	minWildcardBoundary = '1'
	maxWildcardBoundary = '5'
)

// ValidateStatusCode checks if a response key is valid according to the OpenAPI spec.
// Valid values are:
//   - "default" for default response
//   - Extension fields starting with "x-"
//   - Wildcard patterns: 1XX, 2XX, 3XX, 4XX, 5XX
//   - Numeric codes: 100-599
func ValidateStatusCode(code string) bool {
	if code == DefaultResponse {
		return true
	}

	if strings.HasPrefix(code, "x-") {
		return true
	}

	if len(code) == StatusCodeLength {
		// Check for wildcard patterns (e.g., "2XX", "4XX")
		if upper := strings.ToUpper(code); upper[1] == WildcardChar && upper[2] == WildcardChar {
			firstChar := code[0]
			if firstChar >= minWildcardBoundary && firstChar <= maxWildcardBoundary {
				return true
			}
		}

		// Check for numeric codes
		if code[0] >= '0' && code[0] <= '9' &&
			code[1] >= '0' && code[1] <= '9' &&
			code[2] >= '0' && code[2] <= '9' {
			statusCode, err := strconv.Atoi(code)
			if err == nil && statusCode >= MinStatusCode && statusCode <= MaxStatusCode {
				return true
			}
		}
	}

	return false
}

// StatusCandidates returns the response keys to try for a status code,
// most specific first: the exact code, its class wildcard, then "default".
func StatusCandidates(status int) []string {
	return []string{
		strconv.Itoa(status),
		strconv.Itoa(status/100) + "XX",
		DefaultResponse,
	}
}

// NormalizeStatusKey upper-cases wildcard keys so "2xx" and "2XX" compare equal.
func NormalizeStatusKey(code string) string {
	if len(code) == StatusCodeLength && (code[1] == 'x' || code[1] == 'X') {
		return strings.ToUpper(code)
	}
	return code
}

// ParseMediaType returns the lower-cased media type without parameters.
// An unparsable value is returned trimmed and lower-cased so that lookups
// still have something to compare.
func ParseMediaType(contentType string) (string, bool) {
	if contentType == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType)), false
	}
	return mediaType, true
}

// MatchMediaType checks if a pattern matches a media type.
// Supports wildcards like "application/*" and "*/*".
func MatchMediaType(pattern, mediaType string) bool {
	if pattern == "*/*" {
		return true
	}

	if strings.HasSuffix(pattern, "/*") {
		prefix := pattern[:len(pattern)-1]
		return strings.HasPrefix(mediaType, prefix)
	}

	return pattern == mediaType
}

// IsJSONMediaType reports whether the media type carries JSON, including
// structured-syntax suffixes such as application/vnd.api+json.
func IsJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// IsValidMediaType validates a media type string according to RFC 2045/2046.
// Handles wildcards (*/* and type/*) and prevents invalid combinations (*/subtype).
func IsValidMediaType(mediaType string) bool {
	if mediaType == "*/*" {
		return true
	}

	if strings.HasSuffix(mediaType, "/*") {
		// Check format: type/* (e.g., application/*)
		parts := strings.Split(mediaType, "/")
		if len(parts) == 2 && parts[0] != "" && parts[0] != "*" {
			return true
		}
		return false
	}

	// Use standard MIME type parser for regular types
	_, _, err := mime.ParseMediaType(mediaType)
	return err == nil
}
