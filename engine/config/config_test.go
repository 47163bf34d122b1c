package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/meshsync/engine/core"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, 5*time.Second, s.SendTimeout())
	assert.Equal(t, float32(1), s.Scene().ScaleFactor)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, s *Settings)
	}{
		{
			name: "overrides",
			input: `
sync_scope = "updated"
sync_lights = false
scale_factor = 0.01
send_timeout_ms = 250

[client]
url = "ws://example:9000/sync"
`,
			check: func(t *testing.T, s *Settings) {
				assert.Equal(t, ScopeUpdated, s.SyncScope)
				assert.False(t, s.SyncLights)
				assert.True(t, s.SyncMeshes)
				assert.Equal(t, float32(0.01), s.ScaleFactor)
				assert.Equal(t, 250*time.Millisecond, s.SendTimeout())
				assert.Equal(t, "ws://example:9000/sync", s.Client.URL)
			},
		},
		{
			name:  "clamped",
			input: "animation_sample_rate = 10000\nauto_sync_interval_ms = 0\n",
			check: func(t *testing.T, s *Settings) {
				assert.Equal(t, float32(240), s.AnimationSampleRate)
				assert.Equal(t, 10, s.AutoSyncIntervalMs)
			},
		},
		{name: "bad scope", input: `sync_scope = "some"`, wantErr: true},
		{name: "bad scale", input: `scale_factor = -1`, wantErr: true},
		{name: "not toml", input: `sync_scope = `, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidSettings)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshsync.toml")
	s := Default()
	s.WeldVertices = false
	s.AnimationTimeScale = 2
	require.NoError(t, s.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshsync.toml")
	require.NoError(t, Default().Save(path))

	reloaded := make(chan *Settings, 8)
	w, err := NewWatcher(path, func(s *Settings) {
		select {
		case reloaded <- s:
		default:
		}
	})
	require.NoError(t, err)
	w.Start()

	// Invalid content is ignored.
	require.NoError(t, os.WriteFile(path, []byte(`sync_scope = "nope"`), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("sync_cameras = false\n"), 0o644))

	// Truncation can surface as a reload of the defaults first.
	deadline := time.After(5 * time.Second)
	for seen := false; !seen; {
		select {
		case s := <-reloaded:
			seen = !s.SyncCameras
		case <-deadline:
			t.Fatal("no reload seen")
		}
	}

	require.NoError(t, w.Shutdown())
	assert.Error(t, w.Shutdown())
}
