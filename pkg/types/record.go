package types

import "sort"

// RecordLog is the append-only modification history of one record, kept in
// descending-mtime order. The order is a convenience for most-recent-first
// lookup; merging treats the log as a set, so correctness never depends on
// storage order.
type RecordLog []FieldTuple

// Project computes the current state of the log: for every field, the value
// of the tuple with the greatest mtime. Fields whose winning value is unset
// are omitted. Two tuples for the same field with equal mtime but different
// values make the log unprojectable; Project returns a *MtimeConflict with
// an empty RecordID, which callers owning the id fill in.
func (l RecordLog) Project() (map[FieldKey]Value, error) {
	winners := make(map[FieldKey]FieldTuple, len(l))
	for _, t := range l {
		w, ok := winners[t.Key()]
		switch {
		case !ok || t.Mtime > w.Mtime:
			winners[t.Key()] = t
		case t.Mtime == w.Mtime && t.Value != w.Value:
			return nil, &MtimeConflict{
				Domain:    t.Domain,
				FieldName: t.FieldName,
				Mtime:     t.Mtime,
			}
		}
	}
	view := make(map[FieldKey]Value, len(winners))
	for key, t := range winners {
		if t.Value.Set {
			view[key] = t.Value
		}
	}
	return view, nil
}

// Path returns the record's live path, or false if the record is hidden
// (deleted path or an unprojectable log).
func (l RecordLog) Path() (string, bool) {
	view, err := l.Project()
	if err != nil {
		return "", false
	}
	v, ok := view[FieldKey{Domain: DomainMeta, FieldName: FieldPath}]
	if !ok {
		return "", false
	}
	return v.Str, true
}

// Apply appends t unless an existing tuple for the same field has
// mtime >= t.Mtime. Older writes never overwrite newer ones, even locally;
// such stale writes are discarded silently and Apply reports false.
func (l RecordLog) Apply(t FieldTuple) (RecordLog, bool) {
	for _, existing := range l {
		if existing.Key() == t.Key() && existing.Mtime >= t.Mtime {
			return l, false
		}
	}
	out := make(RecordLog, 0, len(l)+1)
	out = append(out, l...)
	out = append(out, t)
	out.Sort()
	return out, true
}

// Contains reports whether the exact tuple (value and mtime included) is
// already part of the log.
func (l RecordLog) Contains(t FieldTuple) bool {
	for _, existing := range l {
		if existing == t {
			return true
		}
	}
	return false
}

// Sort orders the log by descending mtime, with ties broken by domain,
// field name, and value so serialization is deterministic.
func (l RecordLog) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i], l[j]
		if a.Mtime != b.Mtime {
			return a.Mtime > b.Mtime
		}
		if a.Domain != b.Domain {
			return a.Domain < b.Domain
		}
		if a.FieldName != b.FieldName {
			return a.FieldName < b.FieldName
		}
		if a.Value.Set != b.Value.Set {
			return !a.Value.Set
		}
		return a.Value.Str < b.Value.Str
	})
}

// Equal reports set equality of two logs irrespective of order.
func (l RecordLog) Equal(other RecordLog) bool {
	if len(l) != len(other) {
		return false
	}
	seen := make(map[FieldTuple]int, len(l))
	for _, t := range l {
		seen[t]++
	}
	for _, t := range other {
		seen[t]--
		if seen[t] < 0 {
			return false
		}
	}
	return true
}
