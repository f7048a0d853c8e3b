package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Metadata describes where a piece of job text came from.
type Metadata struct {
	URL         string    `json:"url,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
	Hash        string    `json:"hash"`
	Platform    string    `json:"platform,omitempty"`
	UsedBrowser bool      `json:"used_browser"`
	Company     string    `json:"company,omitempty"`
}

// NewMetadata creates Metadata for content fetched from url at the current time.
func NewMetadata(content string, url string) Metadata {
	return Metadata{
		URL:       url,
		FetchedAt: time.Now().UTC(),
		Hash:      computeHash(content),
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
