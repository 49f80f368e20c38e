package session

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/passmate/pkg/types"
)

// twoHosts opens two sessions on separate primary databases sharing one
// sync folder, as two machines with a synchronized directory would.
func twoHosts(t *testing.T, passA, passB string) (*Session, *Session) {
	t.Helper()
	dir := t.TempDir()

	stA := testStarter(t, dir, "hostA", passA)
	sessA, err := stA.Start()
	require.NoError(t, err)
	t.Cleanup(func() { sessA.Close() })

	stB := testStarter(t, dir, "hostB", passB)
	sessB, err := stB.Start()
	require.NoError(t, err)
	t.Cleanup(func() { sessB.Close() })

	return sessA, sessB
}

func TestSyncPropagatesRecord(t *testing.T) {
	sessA, sessB := twoHosts(t, "secret", "secret")

	rec, err := sessA.Create("work/email")
	require.NoError(t, err)
	require.NoError(t, rec.Set("password", "x1"))

	_, err = sessA.Sync(nil)
	require.NoError(t, err)

	before := sessB.ReloadCounter()
	summary, err := sessB.Sync(nil)
	require.NoError(t, err)

	assert.Empty(t, summary.Failure)
	assert.Equal(t, 2, summary.Applied(), "path tuple and password tuple")
	assert.Empty(t, summary.Conflicts)
	assert.Empty(t, summary.Collisions)
	assert.Equal(t, before+1, sessB.ReloadCounter())

	paths, err := sessB.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"work/email"}, paths)

	got, err := sessB.Record("work/email")
	require.NoError(t, err)
	assert.Equal(t, rec.ID(), got.ID())
	value, set, err := got.Get("password")
	require.NoError(t, err)
	assert.True(t, set)
	assert.Equal(t, "x1", value)
}

func TestSyncNothingNew(t *testing.T) {
	sessA, sessB := twoHosts(t, "secret", "secret")

	_, err := sessA.Create("work/email")
	require.NoError(t, err)
	_, err = sessA.Sync(nil)
	require.NoError(t, err)

	_, err = sessB.Sync(nil)
	require.NoError(t, err)

	// A second cycle with unchanged peers applies nothing and does not
	// rebuild the live view.
	before := sessB.ReloadCounter()
	summary, err := sessB.Sync(nil)
	require.NoError(t, err)
	assert.Zero(t, summary.Applied())
	assert.Equal(t, before, sessB.ReloadCounter())
	assert.Empty(t, summary.Messages())
}

func TestSyncConcurrentEditLaterWriteWins(t *testing.T) {
	sessA, sessB := twoHosts(t, "secret", "secret")

	rec, err := sessA.Create("work/email")
	require.NoError(t, err)
	require.NoError(t, rec.Set("password", "x1"))
	_, err = sessA.Sync(nil)
	require.NoError(t, err)
	_, err = sessB.Sync(nil)
	require.NoError(t, err)

	// Both hosts now edit the password while apart. B's edit is later.
	sessA.clock.(*CounterClock).Set(200)
	require.NoError(t, rec.Set("password", "p1"))

	recB, err := sessB.Record("work/email")
	require.NoError(t, err)
	sessB.clock.(*CounterClock).Set(300)
	require.NoError(t, recB.Set("password", "p2"))

	// One full round trip: A publishes, B merges and publishes, A merges.
	_, err = sessA.Sync(nil)
	require.NoError(t, err)
	_, err = sessB.Sync(nil)
	require.NoError(t, err)
	_, err = sessA.Sync(nil)
	require.NoError(t, err)

	for _, r := range []*Record{rec, recB} {
		value, set, err := r.Get("password")
		require.NoError(t, err)
		assert.True(t, set)
		assert.Equal(t, "p2", value)
	}
}

func TestSyncPropagatesDeletion(t *testing.T) {
	sessA, sessB := twoHosts(t, "secret", "secret")

	_, err := sessA.Create("work/email")
	require.NoError(t, err)
	_, err = sessA.Sync(nil)
	require.NoError(t, err)
	_, err = sessB.Sync(nil)
	require.NoError(t, err)

	sessA.clock.(*CounterClock).Set(500)
	require.NoError(t, sessA.Delete("work/email"))
	_, err = sessA.Sync(nil)
	require.NoError(t, err)

	summary, err := sessB.Sync(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Applied())

	paths, err := sessB.List()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestSyncConflictKeepsLocalAndMergesRest(t *testing.T) {
	sessA, sessB := twoHosts(t, "secret", "secret")

	// Same record, same field, same mtime, different values. Plus one field
	// only A has, which must merge despite the conflict.
	plant := func(sess *Session, fieldValue string) {
		t.Helper()
		for _, u := range []types.Update{
			{RecordID: "rec-1", Tuple: types.FieldTuple{
				Domain: types.DomainMeta, FieldName: types.FieldPath,
				Value: types.SomeValue("work/email"), Mtime: 1}},
			{RecordID: "rec-1", Tuple: types.FieldTuple{
				Domain: types.DomainUser, FieldName: "password",
				Value: types.SomeValue(fieldValue), Mtime: 5}},
		} {
			_, err := sess.ApplyUpdate(u)
			require.NoError(t, err)
		}
	}
	plant(sessA, "va")
	plant(sessB, "vb")

	extra := types.Update{RecordID: "rec-1", Tuple: types.FieldTuple{
		Domain: types.DomainUser, FieldName: "url",
		Value: types.SomeValue("https://mail.example.com"), Mtime: 6}}
	_, err := sessA.ApplyUpdate(extra)
	require.NoError(t, err)

	_, err = sessA.Sync(nil)
	require.NoError(t, err)
	summary, err := sessB.Sync(nil)
	require.NoError(t, err)

	require.Len(t, summary.Conflicts, 1)
	conflict := summary.Conflicts[0]
	assert.Equal(t, "rec-1", conflict.RecordID)
	assert.Equal(t, "password", conflict.FieldName)
	assert.EqualValues(t, 5, conflict.Mtime)

	// The conflicting field kept the local value; the clean field merged.
	assert.Equal(t, 1, summary.Applied())
	rec, err := sessB.Record("work/email")
	require.NoError(t, err)
	value, _, err := rec.Get("password")
	require.NoError(t, err)
	assert.Equal(t, "vb", value)
	value, set, err := rec.Get("url")
	require.NoError(t, err)
	assert.True(t, set)
	assert.Equal(t, "https://mail.example.com", value)
}

func TestSyncReportsPathCollision(t *testing.T) {
	sessA, sessB := twoHosts(t, "secret", "secret")

	// Each host creates a distinct record under the same path while apart.
	_, err := sessA.Create("work/email")
	require.NoError(t, err)
	_, err = sessB.Create("work/email")
	require.NoError(t, err)

	_, err = sessA.Sync(nil)
	require.NoError(t, err)
	summary, err := sessB.Sync(nil)
	require.NoError(t, err)

	require.Len(t, summary.Collisions, 1)
	assert.Equal(t, "work/email", summary.Collisions[0].Path)
	assert.Len(t, summary.Collisions[0].RecordIDs, 2)

	// Both records stay reachable under disambiguated names.
	paths, err := sessB.List()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.Contains(t, p, "work/email#")
	}
}

func TestSyncSkipsUndecryptablePeer(t *testing.T) {
	sessA, sessB := twoHosts(t, "passphrase-a", "passphrase-b")

	_, err := sessA.Create("work/email")
	require.NoError(t, err)
	_, err = sessA.Sync(nil)
	require.NoError(t, err)

	// Without a peer passphrase callback the foreign copy is skipped and
	// everything else still works.
	summary, err := sessB.Sync(nil)
	require.NoError(t, err)
	require.Len(t, summary.Failure, 1)
	assert.Empty(t, summary.Success)

	messages := summary.Messages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "Warning: Could not sync from hostA.pmdb:")

	paths, err := sessB.List()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestSyncPeerPassphraseCallback(t *testing.T) {
	sessA, sessB := twoHosts(t, "passphrase-a", "passphrase-b")

	_, err := sessA.Create("work/email")
	require.NoError(t, err)
	_, err = sessA.Sync(nil)
	require.NoError(t, err)

	var askedFor string
	summary, err := sessB.Sync(func(file string) (string, error) {
		askedFor = file
		return "passphrase-a", nil
	})
	require.NoError(t, err)

	assert.Equal(t, "hostA.pmdb", filepath.Base(askedFor))
	assert.Empty(t, summary.Failure)
	assert.Equal(t, 1, summary.Applied())

	paths, err := sessB.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"work/email"}, paths)
}

func TestSyncPeerPassphraseCallbackDeclines(t *testing.T) {
	sessA, sessB := twoHosts(t, "passphrase-a", "passphrase-b")

	_, err := sessA.Create("work/email")
	require.NoError(t, err)
	_, err = sessA.Sync(nil)
	require.NoError(t, err)

	summary, err := sessB.Sync(func(file string) (string, error) {
		return "", fmt.Errorf("no passphrase for %s", filepath.Base(file))
	})
	require.NoError(t, err)
	require.Len(t, summary.Failure, 1)
	assert.Empty(t, summary.Success)
}

func TestSyncWithoutSharedFolder(t *testing.T) {
	st := testStarter(t, t.TempDir(), "hostA", "secret")
	st.Config.SharedFolder = ""
	sess, err := st.Start()
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.Sync(nil)
	assert.ErrorIs(t, err, types.ErrNoSharedFolder)
}

func TestSyncSummaryMessages(t *testing.T) {
	summary := NewSyncSummary()
	summary.Failure["/shared/hostC.pmdb"] = "passphrase is not correct"
	summary.Success["/shared/hostA.pmdb"] = []types.Update{{}, {}, {}}
	summary.Success["/shared/hostB.pmdb"] = nil
	summary.Conflicts = []*types.MtimeConflict{{
		RecordID: "rec-1", Domain: types.DomainUser,
		FieldName: "password", Mtime: 5,
	}}

	messages := summary.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t,
		"Warning: Could not sync from hostC.pmdb: passphrase is not correct",
		messages[0])
	assert.Equal(t, "hostA.pmdb: 3 updates applied.", messages[1])
	assert.Contains(t, messages[2], "kept the local value.")
}
