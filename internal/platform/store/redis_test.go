package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "http://not-redis", time.Minute)
	assert.Error(t, err)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "fhirviewer:def:fhir-r4/resources/Patient.json", redisKey("fhir-r4/resources/Patient.json"))
}

// Runs against a live server when REDIS_URL is set.
func TestRedisCache_RoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	rc, err := NewRedisCache(ctx, url, time.Minute)
	require.NoError(t, err)
	defer rc.Close()

	require.NoError(t, rc.Set(ctx, "test/file.json", []byte(`{"a":1}`)))
	data, ok, err := rc.Get(ctx, "test/file.json")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(data))

	require.NoError(t, rc.Clear(ctx))
	_, ok, err = rc.Get(ctx, "test/file.json")
	require.NoError(t, err)
	assert.False(t, ok)
}
