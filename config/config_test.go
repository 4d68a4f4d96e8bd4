package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("API_URL", "http://api.local:9000/")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, "", cfg.Events.Backend)
	assert.Equal(t, "imageforms.records", cfg.Events.Channel)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)

	ep, ok := cfg.Client.Endpoint("MultipleImageContent")
	require.True(t, ok)
	assert.Equal(t, "http://api.local:9000/api/content", ep.BaseURL)
	assert.Equal(t, "", ep.ListPath)
}

func TestLoadConfigEndpointOverrides(t *testing.T) {
	t.Setenv("SINGLE_IMAGE_URL", "https://example.com/api/")
	t.Setenv("MULTIPLE_IMAGE_LIST_PATH", "/new")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_SSL", "true")

	cfg := LoadConfig()

	single, _ := cfg.Client.Endpoint("SingleImage")
	assert.Equal(t, "https://example.com/api", single.BaseURL)

	multi, _ := cfg.Client.Endpoint("MultipleImage")
	assert.Equal(t, "/new", multi.ListPath)

	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "http://localhost:9090", cfg.PublicURL)
	assert.True(t, cfg.Database.UseSSL)
}

func TestClientConfigWithAPIURL(t *testing.T) {
	cfg := ClientConfig{
		APIURL: "http://localhost:8080",
		Endpoints: map[string]EndpointConfig{
			"SingleImage":   {BaseURL: "http://localhost:8080/api/single"},
			"MultipleImage": {BaseURL: "https://elsewhere.example.com/api/multiple", ListPath: "/new"},
		},
	}

	out := cfg.WithAPIURL("http://10.0.0.5:8000/")

	assert.Equal(t, "http://10.0.0.5:8000", out.APIURL)
	assert.Equal(t, "http://10.0.0.5:8000/api/single", out.Endpoints["SingleImage"].BaseURL)
	assert.Equal(t, "https://elsewhere.example.com/api/multiple", out.Endpoints["MultipleImage"].BaseURL)
	assert.Equal(t, "/new", out.Endpoints["MultipleImage"].ListPath)
}
