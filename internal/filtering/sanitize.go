package filtering

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	websitePattern = regexp.MustCompile(`(http(s)?://.)?(www\.)?[-a-zA-Z0-9@:%._\+~#=]{2,256}\.[a-z]{2,6}\b([-a-zA-Z0-9@:%_\+.~#?&//=]*)`)
	schemePattern  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)
)

// SanitizeURL normalizes a profile URL into the form the provider resolves.
// The result is stable under repeated application.
func SanitizeURL(raw string) string {
	result := raw
	if websitePattern.MatchString(raw) {
		if normalized, ok := normalizeURL(raw); ok {
			result = normalized
		}
	}

	// the provider only resolves LinkedIn profiles on the www host
	if strings.Contains(result, "linkedin.com") && !strings.Contains(result, "www.linkedin.com") {
		result = strings.Replace(result, "linkedin.com", "www.linkedin.com", 1)
	}

	return result
}

func normalizeURL(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "//"):
		s = "https:" + s
	case !schemePattern.MatchString(s):
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	u.Scheme = "https"
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if port := u.Port(); port != "" && port != "443" && port != "80" {
		host += ":" + port
	}
	u.Host = host

	// a query that does not parse is kept verbatim rather than truncated
	if query, err := url.ParseQuery(u.RawQuery); err == nil {
		for key := range query {
			if strings.HasPrefix(strings.ToLower(key), "utm_") {
				query.Del(key)
			}
		}
		u.RawQuery = query.Encode()
	}
	u.ForceQuery = false

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return u.String(), true
}

// NormalizeDomain reduces a website or bare domain to its lowercase host.
func NormalizeDomain(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if normalized, ok := normalizeURL(s); ok {
		if u, err := url.Parse(normalized); err == nil {
			return u.Hostname()
		}
	}
	return strings.TrimPrefix(strings.ToLower(s), "www.")
}
