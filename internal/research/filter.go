package research

import (
	"net/url"
	"strings"
)

// thirdPartyDomains host job postings, reviews or social profiles rather than
// first-hand company information.
var thirdPartyDomains = []string{
	"greenhouse.io",
	"lever.co",
	"workday.com",
	"myworkdayjobs.com",
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"ziprecruiter.com",
	"monster.com",
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"youtube.com",
	"tiktok.com",
	"reddit.com",
}

// IsThirdParty checks if a URL is from a job board or social platform.
func IsThirdParty(urlStr string) bool {
	host := extractDomain(urlStr)
	if host == "" {
		return true
	}
	for _, domain := range thirdPartyDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// extractDomain returns the lower-cased host of urlStr without a leading "www.".
func extractDomain(urlStr string) string {
	parsed, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// AssignPathPriority returns a priority based on URL path patterns. Pages about
// the company outrank news, and shop or product listing pages sink to the bottom.
func AssignPathPriority(urlStr string) float64 {
	urlLower := strings.ToLower(urlStr)

	highValuePatterns := []string{
		"about", "mission", "values", "who-we-are", "our-story", "company",
	}
	for _, pattern := range highValuePatterns {
		if strings.Contains(urlLower, pattern) {
			return 0.95
		}
	}

	goodPatterns := []string{
		"culture", "careers", "customers", "products", "solutions", "engineering",
	}
	for _, pattern := range goodPatterns {
		if strings.Contains(urlLower, pattern) {
			return 0.85
		}
	}

	mediumPatterns := []string{"press", "news", "announcements", "blog"}
	for _, pattern := range mediumPatterns {
		if strings.Contains(urlLower, pattern) {
			return 0.7
		}
	}

	skipPatterns := []string{
		"/p/", "/product/", "/cart", "/checkout", "/stores", "/near-me", "/order", "/login",
	}
	for _, pattern := range skipPatterns {
		if strings.Contains(urlLower, pattern) {
			return 0.1
		}
	}

	return 0.5
}
