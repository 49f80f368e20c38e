package rawdb

import (
	"sort"

	"github.com/mesh-intelligence/passmate/pkg/types"
)

// MergeResult describes what a merge did: the updates that took effect, the
// tuples it refused because of mtime conflicts, and nothing else. Path
// collisions are a database-wide property and are scanned separately with
// PathCollisions.
type MergeResult struct {
	Applied   []types.Update
	Conflicts []*types.MtimeConflict
}

// Merge combines remote into local as an exact set union over field tuples
// and returns the merged database. Neither input is modified.
//
// Conflicts are isolated to the smallest unit: a remote tuple whose
// (domain, field, mtime) already exists locally with a different value is
// not applied and is reported, while every other field of the same record
// and every other record still merges. Records present on only one side
// carry over unchanged. The union is idempotent, so re-merging after a
// conflict has been resolved by hand converges.
func Merge(local, remote *types.Database) (*types.Database, MergeResult) {
	merged := &types.Database{
		Version: local.Version,
		Purpose: local.Purpose,
		Records: make(map[string]types.RecordLog, len(local.Records)),
	}
	for id, log := range local.Records {
		merged.Records[id] = log
	}

	var result MergeResult
	for _, id := range remote.RecordIDs() {
		remoteLog := remote.Records[id]
		localLog := merged.Records[id]

		// Index the local side by field identity and mtime so equal-mtime
		// divergence is detected without scanning per tuple.
		type slot struct {
			key   types.FieldKey
			mtime int64
		}
		values := make(map[slot]types.Value, len(localLog))
		for _, t := range localLog {
			values[slot{t.Key(), t.Mtime}] = t.Value
		}

		out := localLog
		changed := false
		for _, t := range remoteLog {
			have, ok := values[slot{t.Key(), t.Mtime}]
			if ok {
				if have == t.Value {
					continue // idempotent union, collapse to one
				}
				result.Conflicts = append(result.Conflicts, &types.MtimeConflict{
					RecordID:  id,
					Domain:    t.Domain,
					FieldName: t.FieldName,
					Mtime:     t.Mtime,
				})
				continue
			}
			if !changed {
				copied := make(types.RecordLog, len(out), len(out)+len(remoteLog))
				copy(copied, out)
				out = copied
				changed = true
			}
			out = append(out, t)
			values[slot{t.Key(), t.Mtime}] = t.Value
			result.Applied = append(result.Applied, types.Update{RecordID: id, Tuple: t})
		}
		if changed {
			out.Sort()
			merged.Records[id] = out
		} else if _, ok := merged.Records[id]; !ok {
			merged.Records[id] = remoteLog
		}
	}
	return merged, result
}

// PathCollisions scans all live records for paths shared by more than one
// record. No log-level rule can resolve such a collision automatically, so
// it is surfaced as an advisory; display layers disambiguate colliding
// paths by suffixing the record id.
func PathCollisions(db *types.Database) []*types.PathCollision {
	byPath := make(map[string][]string)
	for _, id := range db.RecordIDs() {
		if path, live := db.Records[id].Path(); live {
			byPath[path] = append(byPath[path], id)
		}
	}
	paths := make([]string, 0, len(byPath))
	for path, ids := range byPath {
		if len(ids) > 1 {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	collisions := make([]*types.PathCollision, 0, len(paths))
	for _, path := range paths {
		collisions = append(collisions, &types.PathCollision{
			Path:      path,
			RecordIDs: byPath[path],
		})
	}
	return collisions
}
