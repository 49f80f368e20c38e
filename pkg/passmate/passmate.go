// Package passmate exposes release metadata for the passmate tool.
package passmate

// Version is the release version of the passmate tool.
const Version = "2.0.0"
