package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	c, err := FromEnv(envMap(map[string]string{
		"DATABASE_URL": "postgres://localhost/app",
		"JWT_SECRET":   "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "3000", c.Port)
	assert.Equal(t, 24*time.Hour, c.TokenTTL)
	assert.False(t, c.ExposeSignedURLs)
	assert.Equal(t, "gcs", c.Storage.Driver)
	assert.Equal(t, "images", c.Storage.UploadBucket)
	assert.Equal(t, ModeDirect, c.Analysis.Mode)
	assert.Equal(t, "openai", c.Analysis.Provider)
	assert.Equal(t, 4, c.Analysis.Workers)
	assert.Equal(t, 600*time.Second, c.Analysis.SignedURLTTL)
	assert.Equal(t, "gpt-4o-mini", c.Analysis.OpenAIModel)
	assert.Nil(t, c.Analysis.OpenAITemperature)
}

func TestFromEnv_Overrides(t *testing.T) {
	c, err := FromEnv(envMap(map[string]string{
		"DATABASE_URL":           "postgres://localhost/app",
		"JWT_SECRET":             "secret",
		"API_EXPOSE_SIGNED_URLS": "true",
		"ANALYSIS_MODE":          "Delegated",
		"ANALYSIS_PROVIDER":      "cloudinary",
		"SIGNED_URL_TTL":         "120",
		"OPENAI_TEMPERATURE":     "0.2",
		"STORAGE_DRIVER":         "MINIO",
	}))
	require.NoError(t, err)

	assert.True(t, c.ExposeSignedURLs)
	assert.Equal(t, ModeDelegated, c.Analysis.Mode)
	assert.Equal(t, "cloudinary", c.Analysis.Provider)
	assert.Equal(t, 2*time.Minute, c.Analysis.SignedURLTTL)
	require.NotNil(t, c.Analysis.OpenAITemperature)
	assert.InDelta(t, 0.2, *c.Analysis.OpenAITemperature, 1e-9)
	assert.Equal(t, "minio", c.Storage.Driver)
}

func TestFromEnv_Invalid(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	_, err = FromEnv(envMap(map[string]string{
		"DATABASE_URL":   "x",
		"JWT_SECRET":     "y",
		"SIGNED_URL_TTL": "ten",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SIGNED_URL_TTL")

	_, err = FromEnv(envMap(map[string]string{
		"DATABASE_URL":  "x",
		"JWT_SECRET":    "y",
		"ANALYSIS_MODE": "sometimes",
	}))
	require.Error(t, err)

	_, err = FromEnv(envMap(map[string]string{
		"DATABASE_URL":        "x",
		"JWT_SECRET":          "y",
		"ANALYSIS_QUEUE_SIZE": "0",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANALYSIS_QUEUE_SIZE")
}

func TestAnalyzeFunctionURL(t *testing.T) {
	assert.Equal(t, "", AnalysisConfig{}.AnalyzeFunctionURL())
	assert.Equal(t, "https://fn.example/analyze-image",
		AnalysisConfig{FunctionsBaseURL: "https://fn.example/"}.AnalyzeFunctionURL())
	assert.Equal(t, "https://other/x",
		AnalysisConfig{FunctionURL: "https://other/x", FunctionsBaseURL: "https://fn.example"}.AnalyzeFunctionURL())
}
