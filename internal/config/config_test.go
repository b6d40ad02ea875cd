package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HMasataka/teamcall/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadClient(t *testing.T) {
	t.Run("パスが空ならデフォルト", func(t *testing.T) {
		c, err := config.LoadClient("")
		require.NoError(t, err)
		assert.Equal(t, config.DefaultClient(), c)

		cfg := c.CallConfig()
		assert.Equal(t, 2*time.Second, cfg.GraceWindow)
		assert.True(t, cfg.RestartICE)
		assert.Empty(t, cfg.ICEServers)
	})

	t.Run("ファイルで上書きする", func(t *testing.T) {
		path := writeFile(t, `
[signaling]
url = "wss://signal.example.com/ws"
username = "alice"
token = "tok"

[signaling.retry]
attempts = 3
interval = 200

[webrtc]
portrange = [50000, 50100]
mdns = true

[[webrtc.iceserver]]
urls = ["turn:turn.example.com:3478"]
username = "u"
credential = "p"

[webrtc.timeouts]
disconnected = 3
failed = 10

[call]
grace = 5000
restartice = false
sdpdump = "/tmp/sdp"

[media]
source = "static"

[log]
level = "debug"
format = "text"
`)

		c, err := config.LoadClient(path)
		require.NoError(t, err)

		identity := c.SignalingIdentity()
		assert.Equal(t, "alice", identity.Username)
		assert.Equal(t, "tok", identity.Token)

		opts := c.SignalingOptions()
		assert.Equal(t, 3, opts.Retry.Attempts)
		assert.Equal(t, 200*time.Millisecond, opts.Retry.BaseInterval)
		assert.Equal(t, 10*time.Second, opts.Retry.MaxBackoff)
		assert.Equal(t, 90*time.Second, opts.Keepalive.ReadTimeout)

		pc := c.PeerConnectionOptions()
		assert.Equal(t, []uint16{50000, 50100}, pc.ICEPortRange)
		assert.True(t, pc.MDNS)
		assert.Equal(t, 3*time.Second, pc.ICEDisconnectedTimeout)
		require.Len(t, pc.ICEServers, 1)
		assert.Equal(t, "p", pc.ICEServers[0].Credential)

		cfg := c.CallConfig()
		assert.Equal(t, "alice", cfg.DisplayName)
		assert.Equal(t, 5*time.Second, cfg.GraceWindow)
		assert.False(t, cfg.RestartICE)
		assert.Equal(t, "/tmp/sdp", cfg.SDPDumpDir)
		assert.Len(t, cfg.ICEServers, 1)

		assert.Equal(t, "static", c.Media.Source)
		assert.Equal(t, "debug", c.Log.Level)
	})

	t.Run("不正なポート範囲", func(t *testing.T) {
		path := writeFile(t, "[webrtc]\nportrange = [50100, 50000]\n")

		_, err := config.LoadClient(path)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("未知のメディアソース", func(t *testing.T) {
		path := writeFile(t, "[media]\nsource = \"screen\"\n")

		_, err := config.LoadClient(path)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("存在しないファイル", func(t *testing.T) {
		_, err := config.LoadClient(filepath.Join(t.TempDir(), "missing.toml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLoadServer(t *testing.T) {
	t.Run("デフォルト", func(t *testing.T) {
		c, err := config.LoadServer("")
		require.NoError(t, err)

		cfg := c.SignalServerConfig()
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
		assert.Len(t, cfg.ICEServers, 1)
		assert.False(t, cfg.TURN.Enabled)
	})

	t.Run("TURN と Redis", func(t *testing.T) {
		path := writeFile(t, `
[server]
addr = ":9000"

[redis]
addr = "localhost:6379"
ttl = 60

[turn]
enabled = true
publicip = "203.0.113.10"
portrange = [49152, 49252]

[turn.credentials]
alice = "secret"
`)

		c, err := config.LoadServer(path)
		require.NoError(t, err)

		cfg := c.SignalServerConfig()
		assert.Equal(t, ":9000", cfg.Addr)
		assert.True(t, cfg.TURN.Enabled)
		assert.Equal(t, "teamcall", cfg.TURN.Realm)
		assert.Equal(t, map[string]string{"alice": "secret"}, cfg.TURN.Credentials)

		redis := c.RedisConfig()
		assert.Equal(t, "localhost:6379", redis.Addr)
		assert.Equal(t, time.Minute, redis.TTL)
	})

	t.Run("TURN に資格情報がない", func(t *testing.T) {
		path := writeFile(t, "[turn]\nenabled = true\npublicip = \"203.0.113.10\"\n")

		_, err := config.LoadServer(path)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("壊れたTOML", func(t *testing.T) {
		path := writeFile(t, "[server\naddr = 1")

		_, err := config.LoadServer(path)
		assert.Error(t, err)
	})
}
