package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Port != 5000 {
		t.Errorf("App.Port = %d, want %d", cfg.App.Port, 5000)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "mysql")
	}
	if cfg.Media.EntryMaxBytes != 5_000_000 {
		t.Errorf("Media.EntryMaxBytes = %d, want %d", cfg.Media.EntryMaxBytes, 5_000_000)
	}
	if cfg.Media.ProfileMaxBytes != 1_000_000 {
		t.Errorf("Media.ProfileMaxBytes = %d, want %d", cfg.Media.ProfileMaxBytes, 1_000_000)
	}
	if cfg.Media.EntryMaxFiles != 3 {
		t.Errorf("Media.EntryMaxFiles = %d, want %d", cfg.Media.EntryMaxFiles, 3)
	}
	if cfg.Media.PublicPrefix != "/uploads" {
		t.Errorf("Media.PublicPrefix = %q, want %q", cfg.Media.PublicPrefix, "/uploads")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfigFile(t, `
[app]
port = 7000

[database]
driver = "sqlite"
sqlite_path = "journal.db"

[media]
backend = "filesystem"
upload_dir = "/srv/uploads"

[cors]
allowed_origins = ["https://journal.example"]
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "7100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Port != 7100 {
		t.Errorf("App.Port = %d, want %d", cfg.App.Port, 7100)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "sqlite")
	}
	if got := cfg.DSN(); got != "journal.db" {
		t.Errorf("DSN() = %q, want %q", got, "journal.db")
	}
	if cfg.Media.UploadDir != "/srv/uploads" {
		t.Errorf("Media.UploadDir = %q, want %q", cfg.Media.UploadDir, "/srv/uploads")
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORS.AllowedOrigins = %v, want 2 origins from env", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfigFile(t, "[app\nport = "))

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for malformed toml")
	}
}

func TestLoad_EntryMaxFilesAboveCap(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfigFile(t, `
[media]
backend = "filesystem"
upload_dir = "uploads"
entry_max_files = 5
`))

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want entry_max_files rejected")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mongo" }, wantErr: true},
		{name: "unknown media backend", mutate: func(c *Config) { c.Media.Backend = "ftp" }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Media.Backend = "s3" }, wantErr: true},
		{
			name: "s3 with bucket",
			mutate: func(c *Config) {
				c.Media.Backend = "s3"
				c.Media.S3Bucket = "journal-media"
			},
		},
		{name: "empty jwt secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: true},
		{name: "no entry images", mutate: func(c *Config) { c.Media.EntryMaxFiles = 0 }},
		{name: "too many entry images", mutate: func(c *Config) { c.Media.EntryMaxFiles = 4 }, wantErr: true},
		{name: "negative entry images", mutate: func(c *Config) { c.Media.EntryMaxFiles = -1 }, wantErr: true},
		{name: "zero entry bytes", mutate: func(c *Config) { c.Media.EntryMaxBytes = 0 }, wantErr: true},
		{name: "negative profile bytes", mutate: func(c *Config) { c.Media.ProfileMaxBytes = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.User = "journal"
	cfg.Database.Password = "secret"

	want := "journal:secret@tcp(127.0.0.1:3306)/travel_journal?parseTime=true&loc=Local&charset=utf8mb4"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}

	cfg.Database.Driver = "postgres"
	cfg.Database.Port = 5432
	cfg.Database.Params = "sslmode=disable"
	want = "host=127.0.0.1 port=5432 user=journal password=secret dbname=travel_journal sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
