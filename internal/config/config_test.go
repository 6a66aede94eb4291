package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questbibek/leads-scraper-pro/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Headless)
	assert.Equal(t, "file", cfg.Database.Driver)
	assert.Equal(t, config.DefaultSnapshotPath, cfg.SnapshotPath)
	assert.Equal(t, []string{"8.8.8.8:53", "1.1.1.1:53"}, cfg.DNSServers)

	assert.Equal(t, 3*time.Second, cfg.Timing.Settle)
	assert.Equal(t, 10, cfg.Timing.FeedPollAttempts)
	assert.Equal(t, 2*time.Second, cfg.Timing.Cooldown)

	p := cfg.Paginate()
	assert.Equal(t, 30, p.MaxScrolls)
	assert.Equal(t, 3, p.StagnantLimit)
	assert.Equal(t, 1500*time.Millisecond, p.Settle)

	v := cfg.Verify()
	assert.Equal(t, 10*time.Second, v.Timeout)
	assert.Equal(t, 1500*time.Millisecond, v.MinWait.For(1))
	assert.Equal(t, 4*time.Second, v.Grace)

	n := cfg.Navigate()
	assert.Equal(t, 5, n.MaxAttempts)
	assert.Equal(t, 3*time.Second, n.Backoff.Delay(1))
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("HEADLESS", "false")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("SETTLE_MS", "100")
	t.Setenv("MAX_ATTEMPTS", "2")
	t.Setenv("DNS_SERVERS", " 9.9.9.9:53 , ")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.False(t, cfg.Headless)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 100*time.Millisecond, cfg.Session().Settle)
	assert.Equal(t, 2, cfg.Navigate().MaxAttempts)
	assert.Equal(t, []string{"9.9.9.9:53"}, cfg.DNSServers)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_scrolls: 12\nexport_dir: out\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Timing.MaxScrolls)
	assert.Equal(t, "out", cfg.ExportDir)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "sqlite"}},
		{name: "zero attempts", env: map[string]string{"MAX_ATTEMPTS": "0"}},
		{name: "zero scrolls", env: map[string]string{"MAX_SCROLLS": "0"}},
		{name: "empty snapshot path", env: map[string]string{"SNAPSHOT_PATH": " "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}

func TestDatabase_DSN(t *testing.T) {
	t.Parallel()

	mysql := config.Database{Driver: "mysql", User: "gmaps", Password: "mapmap", Name: "gmaps"}
	assert.Equal(t, "gmaps:mapmap@tcp(127.0.0.1:3306)/gmaps?parseTime=true&charset=utf8mb4&loc=UTC", mysql.DSN())

	mysql.Host, mysql.Port = "db", "3307"
	assert.Contains(t, mysql.DSN(), "@tcp(db:3307)/")

	pg := config.Database{Driver: "postgres", Host: "pg", User: "u", Password: "p", Name: "leads", SSLMode: "disable"}
	assert.Equal(t, "host=pg port=5432 user=u password=p dbname=leads sslmode=disable", pg.DSN())
}
