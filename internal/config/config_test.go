package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REPORT_POINTS", "")
	t.Setenv("AI_TIMEOUT", "")

	cfg := Load()
	assert.Equal(t, 10, cfg.ReportPoints)
	assert.Equal(t, 30*time.Second, cfg.AITimeout)
	assert.Equal(t, "local", cfg.EvidenceBackend)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REPORT_POINTS", "25")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("AI_RATE_PER_SEC", "0.5")
	t.Setenv("SENDGRID_SANDBOX", "true")

	cfg := Load()
	assert.Equal(t, 25, cfg.ReportPoints)
	assert.Equal(t, 5*time.Second, cfg.AITimeout)
	assert.Equal(t, 0.5, cfg.AIRatePerSec)
	assert.True(t, cfg.SendGridSandbox)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REPORT_POINTS", "ten")
	t.Setenv("JWT_ACCESS_EXPIRY", "soon")

	cfg := Load()
	assert.Equal(t, 10, cfg.ReportPoints)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
}

func TestGeminiModelList(t *testing.T) {
	cfg := &Config{GeminiModels: " gemini-2.5-flash, ,gemini-2.5-pro "}
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.5-pro"}, cfg.GeminiModelList())
}
