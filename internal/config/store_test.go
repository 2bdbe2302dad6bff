package config

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/OliveiraNt/kafka-lens/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestStore_Load(t *testing.T) {
	utils.InitLogger()
	t.Setenv("KAFKA_LENS_HTTP_ADDR", "")
	t.Setenv("KAFKA_LENS_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "config.yml")
	s := NewStore(path)
	require.Equal(t, path, s.Path())

	// missing file keeps defaults
	require.Error(t, s.Load())
	require.Equal(t, Defaults(), s.Get())

	writeFile(t, path, "consumer:\n  group_id: g1\n")
	var seen []string
	s.OnChange(func(c FileConfig) { seen = append(seen, c.Consumer.GroupID) })
	require.NoError(t, s.Load())
	require.Equal(t, "g1", s.Get().Consumer.GroupID)
	require.Equal(t, []string{"g1"}, seen)

	// invalid content keeps the previous config
	writeFile(t, path, "consumer:\n  start_offset: middle\n")
	require.Error(t, s.Load())
	require.Equal(t, "g1", s.Get().Consumer.GroupID)
	require.Len(t, seen, 1)
}

func TestStore_WatchReloads(t *testing.T) {
	utils.InitLogger()
	t.Setenv("KAFKA_LENS_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "config.yml")
	writeFile(t, path, "log:\n  level: info\n")

	s := NewStore(path)
	require.NoError(t, s.Load())

	var mu sync.Mutex
	var levels []string
	s.OnChange(func(c FileConfig) {
		mu.Lock()
		defer mu.Unlock()
		levels = append(levels, c.Log.Level)
	})

	require.NoError(t, s.Watch())
	t.Cleanup(func() { _ = s.Close() })

	writeFile(t, path, "log:\n  level: debug\n")
	require.Eventually(t, func() bool {
		return s.Get().Log.Level == "debug"
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, levels)
	require.Equal(t, "debug", levels[len(levels)-1])
}

func TestStore_CloseWithoutWatch(t *testing.T) {
	s := NewStore("config.yml")
	require.NoError(t, s.Close())
}
