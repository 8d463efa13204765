package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name: "empty environment, all defaults",
			env:  map[string]string{},
			want: &Config{
				CachePath:          "cache.json",
				CacheBackend:       BackendFile,
				InsecureSkipVerify: true,
				LogLevel:           "info",
			},
		},
		{
			name: "all values set",
			env: map[string]string{
				"DISCORD_WEBHOOK_URL":     "https://discord.test/hook",
				"DISCORD_LOG_WEBHOOK_URL": "https://discord.test/log",
				"DISCORD_USER_ID":         "42",
				"YOUTUBE_API_KEY":         "key-1",
				"GITHUB_ACTIONS":          "true",
				"CACHE_PATH":              "/tmp/cache.json",
				"CACHE_BACKEND":           "sqlite",
				"TLS_VERIFY":              "true",
				"LOG_LEVEL":               "debug",
			},
			want: &Config{
				PrimaryWebhookURL:  "https://discord.test/hook",
				LogWebhookURL:      "https://discord.test/log",
				MentionUserID:      "42",
				YouTubeAPIKey:      "key-1",
				AutomatedRun:       true,
				CachePath:          "/tmp/cache.json",
				CacheBackend:       BackendSQLite,
				InsecureSkipVerify: false,
				LogLevel:           "debug",
			},
		},
		{
			name: "missing webhooks degrade without error",
			env:  map[string]string{"YOUTUBE_API_KEY": "key-2"},
			want: &Config{
				YouTubeAPIKey:      "key-2",
				CachePath:          "cache.json",
				CacheBackend:       BackendFile,
				InsecureSkipVerify: true,
				LogLevel:           "info",
			},
		},
		{
			name:    "unknown cache backend",
			env:     map[string]string{"CACHE_BACKEND": "redis"},
			wantErr: true,
		},
	}

	keys := []string{
		"DISCORD_WEBHOOK_URL", "DISCORD_LOG_WEBHOOK_URL", "DISCORD_USER_ID",
		"YOUTUBE_API_KEY", "GITHUB_ACTIONS", "CACHE_PATH", "CACHE_BACKEND",
		"TLS_VERIFY", "LOG_LEVEL",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range keys {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
