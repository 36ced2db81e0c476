package redis

import (
	"os"
	"testing"
)

// redisURL skips the test unless REDIS_URL points at a server.
func redisURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	return url
}
