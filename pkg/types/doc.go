// Package types defines the field-tuple data model, database document,
// configuration, and standard errors shared by the passmate core packages.
//
// A passmate database is a map of record ids to append-only logs of
// timestamped field modifications. The current state of a record is never
// stored; it is projected from the log by picking, per field, the tuple
// with the greatest modification time (last write wins). Because the log
// is append-only and merging is a set union, independently edited copies
// of a database can be combined without coordination.
package types
