package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func minimalConfig() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"secret": "0123456789abcdef",
			"db":     map[string]any{"driver": "memory"},
			"blob":   map[string]any{"driver": "memory"},
		},
	}
}

// TestValidateStartupConfigWithGetterMinimal verifies the smallest usable configuration passes validation.
func TestValidateStartupConfigWithGetterMinimal(t *testing.T) {
	err := validateStartupConfigWithGetter(newMapConfigGetter(minimalConfig()))
	require.NoError(t, err)
}

// TestValidateStartupConfigWithGetterEmpty verifies empty configuration reports every required key.
func TestValidateStartupConfigWithGetterEmpty(t *testing.T) {
	err := validateStartupConfigWithGetter(newMapConfigGetter(map[string]any{}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "settings.secret")
	require.Contains(t, err.Error(), "settings.db.firestore.project_id")
	require.Contains(t, err.Error(), "settings.blob.gcs.bucket")
}

func TestValidateStartupConfigWithGetterInvalid(t *testing.T) {
	tests := []struct {
		name    string
		section string
		value   map[string]any
		want    []string
	}{
		{
			name:    "unknown db driver",
			section: "db",
			value:   map[string]any{"driver": "sqlite"},
			want:    []string{"settings.db.driver"},
		},
		{
			name:    "mongo without addr",
			section: "db",
			value:   map[string]any{"driver": "Mongo", "mongo": map[string]any{"db": "portfolio"}},
			want:    []string{"settings.db.mongo.addr"},
		},
		{
			name:    "minio missing keys",
			section: "blob",
			value:   map[string]any{"driver": "minio", "minio": map[string]any{"endpoint": "s3:9000", "use_ssl": "maybe"}},
			want: []string{
				"settings.blob.minio.access_key", "settings.blob.minio.secret_key",
				"settings.blob.minio.bucket", "settings.blob.minio.use_ssl",
			},
		},
		{
			name:    "bad auth",
			section: "auth",
			value: map[string]any{
				"admin_emails":      []any{"root@example.com", "nobody"},
				"session_ttl_hours": 0,
				"cookie_secure":     "sometimes",
			},
			want: []string{
				`invalid email "nobody"`, "settings.auth.session_ttl_hours", "settings.auth.cookie_secure",
			},
		},
		{
			name:    "login burst below default rate",
			section: "auth",
			value:   map[string]any{"login_per_sec": 10},
			want:    []string{"settings.auth.login_burst must be >= settings.auth.login_per_sec"},
		},
		{
			name:    "bad blog",
			section: "blog",
			value:   map[string]any{"page_size": 1000, "view_timeout_sec": 1.5, "reconcile_cron": "every hour"},
			want: []string{
				"settings.blog.page_size must be <= 100", "settings.blog.view_timeout_sec",
				"settings.blog.reconcile_cron",
			},
		},
		{
			name:    "bad origins",
			section: "web",
			value:   map[string]any{"allowed_origins": []any{"https://laisky.com"}},
			want:    []string{"settings.web.allowed_origins"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalConfig()
			cfg["settings"].(map[string]any)[tt.section] = tt.value

			err := validateStartupConfigWithGetter(newMapConfigGetter(cfg))
			require.Error(t, err)
			for _, want := range tt.want {
				require.Contains(t, err.Error(), want)
			}
		})
	}
}

// TestValidateStartupConfigWithGetterValidConfig verifies valid explicit configuration passes validation.
func TestValidateStartupConfigWithGetterValidConfig(t *testing.T) {
	cfg := map[string]any{
		"settings": map[string]any{
			"secret": "this-secret-is-long-enough",
			"db": map[string]any{
				"driver":    "firestore",
				"firestore": map[string]any{"project_id": "portfolio", "credential_file": "sa.json"},
				"redis":     map[string]any{"addr": "localhost:6379", "db": 0},
			},
			"blob": map[string]any{
				"driver": "gcs",
				"gcs": map[string]any{
					"bucket":          "portfolio-assets",
					"public_base_url": "https://storage.googleapis.com/portfolio-assets",
				},
			},
			"auth": map[string]any{
				"admin_emails":      []any{"root@example.com"},
				"google_client_id":  "client.apps.googleusercontent.com",
				"session_ttl_hours": 168,
				"cookie_secure":     true,
				"login_per_sec":     1,
				"login_burst":       5,
			},
			"blog": map[string]any{
				"page_size":        9,
				"view_timeout_sec": 5,
				"reconcile_cron":   "@every 1h",
				"author_name":      "Laisky",
			},
			"web": map[string]any{
				"frontend_dist":   "web/dist",
				"allowed_origins": "laisky.com, localhost",
			},
		},
	}

	err := validateStartupConfigWithGetter(newMapConfigGetter(cfg))
	require.NoError(t, err)
}

func TestParseStringList(t *testing.T) {
	got, err := parseStringList([]any{" a ", "", "b"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, got)

	got, err = parseStringList("x, y,,")
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, got)

	_, err = parseStringList(42)
	require.Error(t, err)
}

// newMapConfigGetter builds a dotted-path getter for nested map-based test configuration.
// It accepts a nested map and returns a getter function compatible with validateStartupConfigWithGetter.
func newMapConfigGetter(root map[string]any) configGetter {
	return func(key string) any {
		if key == "" {
			return nil
		}

		parts := strings.Split(key, ".")
		var current any = root
		for _, part := range parts {
			nextMap, ok := current.(map[string]any)
			if !ok {
				return nil
			}

			next, exists := nextMap[part]
			if !exists {
				return nil
			}
			current = next
		}

		return current
	}
}
