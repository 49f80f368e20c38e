// End-to-end synchronization scenarios: multiple hosts exchanging real
// encrypted database files through one shared folder.
package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/passmate/internal/container"
	"github.com/mesh-intelligence/passmate/internal/session"
	"github.com/mesh-intelligence/passmate/pkg/types"
)

// host is one simulated machine: its own primary database and clock, with
// the shared folder mounted by every host of the fixture.
type host struct {
	sess  *session.Session
	clock *session.CounterClock
}

// setupHosts creates n hosts called host0, host1, ... sharing a sync
// folder. Each host's clock starts in a disjoint range so mtimes are
// distinct unless a test aligns them on purpose.
func setupHosts(t *testing.T, n int, passphrase string) []*host {
	t.Helper()
	dir := t.TempDir()
	shared := filepath.Join(dir, "shared")

	hosts := make([]*host, n)
	for i := range hosts {
		clock := session.NewCounterClock(int64(1000 * (i + 1)))
		fast := container.FastParams()
		name := "host" + string(rune('0'+i))
		sess, err := session.Starter{
			Config: types.Config{
				PrimaryDB:    filepath.Join(dir, name, "local.pmdb"),
				SharedFolder: shared,
				HostID:       name,
			},
			Passphrase: passphrase,
			Init:       true,
			Clock:      clock,
			KDF:        &fast,
		}.Start()
		require.NoError(t, err)
		t.Cleanup(func() { sess.Close() })
		hosts[i] = &host{sess: sess, clock: clock}
	}
	return hosts
}

func sync(t *testing.T, h *host) *session.SyncSummary {
	t.Helper()
	summary, err := h.sess.Sync(nil)
	require.NoError(t, err)
	assert.Empty(t, summary.Failure)
	return summary
}

func TestBasicSync(t *testing.T) {
	hosts := setupHosts(t, 2, "secret")
	a, b := hosts[0], hosts[1]

	rec, err := a.sess.Create("work/email")
	require.NoError(t, err)
	require.NoError(t, rec.Set("password", "x1"))

	sync(t, a)
	summary := sync(t, b)
	assert.Equal(t, 2, summary.Applied())

	paths, err := b.sess.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"work/email"}, paths)

	got, err := b.sess.Record("work/email")
	require.NoError(t, err)
	value, set, err := got.Get("password")
	require.NoError(t, err)
	assert.True(t, set)
	assert.Equal(t, "x1", value)
}

func TestConcurrentEditConvergesToLaterWrite(t *testing.T) {
	hosts := setupHosts(t, 2, "secret")
	a, b := hosts[0], hosts[1]

	recA, err := a.sess.Create("work/email")
	require.NoError(t, err)
	require.NoError(t, recA.Set("password", "x1"))
	sync(t, a)
	sync(t, b)

	// Disconnected edits: host0 at mtime 5000, host1 later at 6000.
	a.clock.Set(5000)
	require.NoError(t, recA.Set("password", "p1"))
	recB, err := b.sess.Record("work/email")
	require.NoError(t, err)
	b.clock.Set(6000)
	require.NoError(t, recB.Set("password", "p2"))

	// Full exchange in both directions.
	sync(t, a)
	sync(t, b)
	sync(t, a)

	for _, h := range hosts {
		rec, err := h.sess.Record("work/email")
		require.NoError(t, err)
		value, set, err := rec.Get("password")
		require.NoError(t, err)
		assert.True(t, set)
		assert.Equal(t, "p2", value)
	}
}

func TestDeletionPropagatesAndPathIsReusable(t *testing.T) {
	hosts := setupHosts(t, 2, "secret")
	a, b := hosts[0], hosts[1]

	_, err := a.sess.Create("work/email")
	require.NoError(t, err)
	sync(t, a)
	sync(t, b)

	a.clock.Set(5000)
	require.NoError(t, a.sess.Delete("work/email"))
	sync(t, a)
	sync(t, b)

	for _, h := range hosts {
		paths, err := h.sess.List()
		require.NoError(t, err)
		assert.Empty(t, paths)
	}

	// The tombstone keeps the deletion mergeable, and the path is free for
	// a new record that then propagates normally.
	b.clock.Set(7000)
	fresh, err := b.sess.Create("work/email")
	require.NoError(t, err)
	require.NoError(t, fresh.Set("password", "new"))
	sync(t, b)
	sync(t, a)

	got, err := a.sess.Record("work/email")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID(), got.ID())
}

func TestThreeHostsConverge(t *testing.T) {
	hosts := setupHosts(t, 3, "secret")

	for i, h := range hosts {
		rec, err := h.sess.Create("site/" + string(rune('a'+i)))
		require.NoError(t, err)
		require.NoError(t, rec.Set("password", "pw"))
	}

	// Two gossip rounds spread every record to every host.
	for round := 0; round < 2; round++ {
		for _, h := range hosts {
			sync(t, h)
		}
	}

	want := []string{"site/a", "site/b", "site/c"}
	for _, h := range hosts {
		paths, err := h.sess.List()
		require.NoError(t, err)
		assert.Equal(t, want, paths)
	}
}

func TestSyncSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	shared := filepath.Join(dir, "shared")
	fast := container.FastParams()
	cfg := types.Config{
		PrimaryDB:    filepath.Join(dir, "local.pmdb"),
		SharedFolder: shared,
		HostID:       "host0",
	}

	sess, err := session.Starter{
		Config: cfg, Passphrase: "secret", Init: true,
		Clock: session.NewCounterClock(1000), KDF: &fast,
	}.Start()
	require.NoError(t, err)
	rec, err := sess.Create("work/email")
	require.NoError(t, err)
	require.NoError(t, rec.Set("password", "x1"))
	_, err = sess.Sync(nil)
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	// The published sync copy is a valid container holding a sync_copy
	// document, encrypted with the same passphrase.
	data, err := os.ReadFile(cfg.SyncCopyPath())
	require.NoError(t, err)
	plaintext, err := container.Decrypt(data, "secret")
	require.NoError(t, err)
	assert.Contains(t, string(plaintext), `"sync_copy"`)

	// A fresh session over the persisted primary sees the same state.
	sess2, err := session.Starter{
		Config: cfg, Passphrase: "secret",
		Clock: session.NewCounterClock(2000), KDF: &fast,
	}.Start()
	require.NoError(t, err)
	defer sess2.Close()

	got, err := sess2.Record("work/email")
	require.NoError(t, err)
	value, set, err := got.Get("password")
	require.NoError(t, err)
	assert.True(t, set)
	assert.Equal(t, "x1", value)
}
