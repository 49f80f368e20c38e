package session

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/mesh-intelligence/passmate/pkg/types"
)

// SyncSummary records the per-peer outcome of one sync cycle. One bad peer
// file never aborts merging the others, so successes and failures coexist.
type SyncSummary struct {
	// Success maps a peer file to the updates its merge applied. An entry
	// with no updates means the peer held nothing new.
	Success map[string][]types.Update

	// Failure maps a peer file to the reason it could not be merged.
	Failure map[string]string

	// Conflicts are the simultaneous-edit conflicts the merges refused to
	// resolve. The affected fields kept their local values.
	Conflicts []*types.MtimeConflict

	// Collisions are records sharing a live path after the merge.
	Collisions []*types.PathCollision
}

// NewSyncSummary returns an empty summary.
func NewSyncSummary() *SyncSummary {
	return &SyncSummary{
		Success: make(map[string][]types.Update),
		Failure: make(map[string]string),
	}
}

// Applied returns the total number of updates applied across all peers.
func (s *SyncSummary) Applied() int {
	n := 0
	for _, updates := range s.Success {
		n += len(updates)
	}
	return n
}

// Messages renders the summary as user-facing lines: one warning per failed
// peer, one line per peer that contributed updates, then conflict and
// collision warnings. Peers holding nothing new are omitted.
func (s *SyncSummary) Messages() []string {
	var out []string
	for _, file := range sortedKeys(s.Failure) {
		out = append(out, fmt.Sprintf("Warning: Could not sync from %s: %s",
			filepath.Base(file), s.Failure[file]))
	}
	for _, file := range sortedKeys(s.Success) {
		if n := len(s.Success[file]); n > 0 {
			out = append(out, fmt.Sprintf("%s: %d updates applied.",
				filepath.Base(file), n))
		}
	}
	for _, c := range s.Conflicts {
		out = append(out, fmt.Sprintf("Warning: %s; kept the local value.", c))
	}
	for _, c := range s.Collisions {
		out = append(out, fmt.Sprintf("Warning: %s; rename one of them.", c))
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
