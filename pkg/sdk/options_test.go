package sdk

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gear6io/chnative/compress"
	"github.com/gear6io/chnative/pkg/errors"
)

func TestParseDSN(t *testing.T) {
	opt, err := ParseDSN("clickhouse://alice:secret@h1:9000,h2:9001/analytics?compress=lz4&dial_timeout=5s&max_execution_time=60")
	require.NoError(t, err)

	assert.Equal(t, []string{"h1:9000", "h2:9001"}, opt.Addr)
	assert.Equal(t, "alice", opt.Auth.Username)
	assert.Equal(t, "secret", opt.Auth.Password)
	assert.Equal(t, "analytics", opt.Auth.Database)
	require.NotNil(t, opt.Compression)
	assert.Equal(t, compress.LZ4, opt.Compression.Method)
	assert.Equal(t, 5*time.Second, opt.DialTimeout)
	assert.Equal(t, "60", opt.Settings.GetString("max_execution_time"))
}

func TestParseDSNDefaults(t *testing.T) {
	opt, err := ParseDSN("clickhouse://localhost:9000")
	require.NoError(t, err)
	assert.Equal(t, "default", opt.Auth.Username)
	assert.Equal(t, "default", opt.Auth.Database)
	assert.Equal(t, 30*time.Second, opt.DialTimeout)
	assert.Equal(t, 10, opt.MaxOpenConns)
	assert.Equal(t, 5, opt.MaxIdleConns)
	require.NotNil(t, opt.Compression)
	assert.Equal(t, compress.None, opt.Compression.Method)
}

func TestParseDSNRejects(t *testing.T) {
	cases := map[string]struct {
		dsn  string
		code errors.Code
	}{
		"scheme":        {"postgres://localhost:9000", ErrBadDSN},
		"host":          {"clickhouse:///db", ErrBadDSN},
		"setting":       {"clickhouse://localhost:9000?no_such_knob=1", ErrUnknownSetting},
		"setting value": {"clickhouse://localhost:9000?max_threads=many", ErrUnknownSetting},
		"timeout":       {"clickhouse://localhost:9000?dial_timeout=fast", ErrBadDSN},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDSN(tc.dsn)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestSettingsGetString(t *testing.T) {
	s := make(Settings)
	s.Set("log_queries", true)
	s.Set("readonly", false)
	s.Set("max_threads", 8)
	s.Set("result_overflow_mode", "break")

	assert.Equal(t, "1", s.GetString("log_queries"))
	assert.Equal(t, "0", s.GetString("readonly"))
	assert.Equal(t, "8", s.GetString("max_threads"))
	assert.Equal(t, "break", s.GetString("result_overflow_mode"))
	assert.Equal(t, "", s.GetString("absent"))
	assert.Equal(t, 8, s.GetInt("max_threads"))
}

func TestCheckSetting(t *testing.T) {
	require.NoError(t, CheckSetting("max_threads", "4"))
	require.NoError(t, CheckSetting("MAX_THREADS", "4"))
	require.NoError(t, CheckSetting("log_queries", "true"))
	require.NoError(t, CheckSetting("insert_quorum_timeout", "30s"))
	require.NoError(t, CheckSetting("insert_quorum_timeout", "10000"))
	require.NoError(t, CheckSetting("send_logs_level", "trace"))

	assert.Error(t, CheckSetting("no_such_knob", "1"))
	assert.Error(t, CheckSetting("max_threads", "many"))
	assert.Error(t, CheckSetting("send_logs_level", "shouting"))
	assert.Error(t, CheckSetting("log_queries", "maybe"))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chnative.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr:
  - ch1:9000
  - ch2:9000
database: analytics
username: alice
password: secret
compression: zstd
max_open_conns: 4
max_idle_conns: 2
conn_max_lifetime: 30m
open_strategy: round_robin
dial_timeout: 3s
settings:
  max_execution_time: 90
  log_queries: true
`), 0o600))

	opt, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ch1:9000", "ch2:9000"}, opt.Addr)
	assert.Equal(t, "analytics", opt.Auth.Database)
	assert.Equal(t, "alice", opt.Auth.Username)
	require.NotNil(t, opt.Compression)
	assert.Equal(t, compress.ZSTD, opt.Compression.Method)
	assert.Equal(t, 4, opt.MaxOpenConns)
	assert.Equal(t, 2, opt.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, opt.ConnMaxLifetime)
	assert.Equal(t, ConnOpenRoundRobin, opt.ConnOpenStrategy)
	assert.Equal(t, 3*time.Second, opt.DialTimeout)
	assert.Equal(t, "90", opt.Settings.GetString("max_execution_time"))
	assert.Equal(t, "1", opt.Settings.GetString("log_queries"))
}

func TestLoadConfigRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("open_strategy: random\n"), 0o600))
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrBadConfig), "got %v", err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.HasCode(err, ErrBadConfig), "got %v", err)
}

func TestScanValue(t *testing.T) {
	var s string
	require.NoError(t, scanValue(&s, "hello"))
	assert.Equal(t, "hello", s)

	var n uint64
	require.NoError(t, scanValue(&n, uint64(42)))
	assert.Equal(t, uint64(42), n)

	var wide int64
	require.NoError(t, scanValue(&wide, int32(-7)))
	assert.Equal(t, int64(-7), wide)

	var ts time.Time
	now := time.Unix(1700000000, 0)
	require.NoError(t, scanValue(&ts, now))
	assert.True(t, ts.Equal(now))

	// Nullable: nil through a plain pointer zeroes it, through a
	// pointer-to-pointer it stays nil.
	s = "stale"
	require.NoError(t, scanValue(&s, nil))
	assert.Equal(t, "", s)

	var sp *string
	require.NoError(t, scanValue(&sp, nil))
	assert.Nil(t, sp)
	require.NoError(t, scanValue(&sp, "set"))
	require.NotNil(t, sp)
	assert.Equal(t, "set", *sp)

	var any interface{}
	require.NoError(t, scanValue(&any, uint8(3)))
	assert.Equal(t, uint8(3), any)

	assert.Error(t, scanValue(s, "not a pointer"))
	assert.Error(t, scanValue(&s, uint64(1)))
	var b bool
	assert.Error(t, scanValue(&b, "true"))
}
