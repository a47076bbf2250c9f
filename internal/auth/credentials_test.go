package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCredentials(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantID     string
		wantSecret string
		wantErr    bool
	}{
		{
			name:       "web wrapper",
			data:       `{"web":{"client_id":"web-id","client_secret":"web-secret"}}`,
			wantID:     "web-id",
			wantSecret: "web-secret",
		},
		{
			name:       "installed wrapper",
			data:       `{"installed":{"client_id":"inst-id","client_secret":"inst-secret"}}`,
			wantID:     "inst-id",
			wantSecret: "inst-secret",
		},
		{
			name:       "flat",
			data:       `{"client_id":"flat-id","client_secret":"flat-secret"}`,
			wantID:     "flat-id",
			wantSecret: "flat-secret",
		},
		{
			name:    "missing secret",
			data:    `{"client_id":"flat-id"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `nope`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := parseCredentials([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, creds.ClientID)
			assert.Equal(t, tt.wantSecret, creds.ClientSecret)
		})
	}
}

func TestLoadClientCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit id and secret", func(t *testing.T) {
		creds, err := LoadClientCredentials(ctx, &Config{ClientID: "id", ClientSecret: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "id", creds.ClientID)
		assert.Equal(t, "secret", creds.ClientSecret)
	})

	t.Run("credentials file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"installed":{"client_id":"file-id","client_secret":"file-secret"}}`), 0o600))

		creds, err := LoadClientCredentials(ctx, &Config{CredentialsPath: path})
		require.NoError(t, err)
		assert.Equal(t, "file-id", creds.ClientID)
	})

	t.Run("missing credentials file", func(t *testing.T) {
		_, err := LoadClientCredentials(ctx, &Config{CredentialsPath: filepath.Join(t.TempDir(), "absent.json")})
		assert.Error(t, err)
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := LoadClientCredentials(ctx, &Config{ClientID: "only-id"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no OAuth client credentials found")
	})
}
