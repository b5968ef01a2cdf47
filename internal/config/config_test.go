package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
port: "8000"
geminiAPIKey: "test-key"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.VisionModel != "gemini-2.0-flash" || cfg.ChatModel != "gemini-2.0-flash" {
		t.Fatalf("model defaults = %q/%q", cfg.VisionModel, cfg.ChatModel)
	}
	if cfg.SessionBackend != SessionBackendFile || cfg.SessionFile != "chat_history.json" {
		t.Fatalf("session defaults = %q/%q", cfg.SessionBackend, cfg.SessionFile)
	}
	if cfg.AssetBackend != AssetBackendDisk || cfg.AssetDir != "images" {
		t.Fatalf("asset defaults = %q/%q", cfg.AssetBackend, cfg.AssetDir)
	}
	if cfg.CallTimeoutSeconds != 60 {
		t.Fatalf("call timeout default = %d", cfg.CallTimeoutSeconds)
	}
	if len(cfg.AllowedExtensions) == 0 {
		t.Fatalf("extension allowlist default missing")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
port: "8000"
geminiAPIKey: "from-file"
visionModel: "from-file-model"
`)
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("GEMINI_VISION_MODEL", "env-vision")
	t.Setenv("CALL_TIMEOUT_SECONDS", "15")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GeminiAPIKey != "from-env" {
		t.Fatalf("api key = %q, want env override", cfg.GeminiAPIKey)
	}
	if cfg.VisionModel != "env-vision" {
		t.Fatalf("vision model = %q, want env override", cfg.VisionModel)
	}
	if cfg.CallTimeoutSeconds != 15 {
		t.Fatalf("call timeout = %d, want 15", cfg.CallTimeoutSeconds)
	}
}

func TestLoadValidation(t *testing.T) {
	// Keep ambient environment from masking the validation paths.
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("DATABASE_URL", "")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing port",
			content: `geminiAPIKey: "k"`,
			wantErr: "port is required",
		},
		{
			name:    "missing api key",
			content: `port: "8000"`,
			wantErr: "geminiAPIKey is required",
		},
		{
			name: "unknown session backend",
			content: `
port: "8000"
geminiAPIKey: "k"
sessionBackend: "carrier-pigeon"
`,
			wantErr: "unknown sessionBackend",
		},
		{
			name: "redis backend without addr",
			content: `
port: "8000"
geminiAPIKey: "k"
sessionBackend: "redis"
`,
			wantErr: "redisAddr is required",
		},
		{
			name: "postgres backend without url",
			content: `
port: "8000"
geminiAPIKey: "k"
sessionBackend: "postgres"
`,
			wantErr: "databaseURL is required",
		},
		{
			name: "minio backend without endpoint",
			content: `
port: "8000"
geminiAPIKey: "k"
assetBackend: "minio"
`,
			wantErr: "minioEndpoint and minioBucket",
		},
		{
			name: "rate limit without redis",
			content: `
port: "8000"
geminiAPIKey: "k"
rateLimitPerMinute: 30
`,
			wantErr: "redisAddr is required when rateLimitPerMinute",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("err = %v, want read config error", err)
	}
}
