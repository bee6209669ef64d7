// Package buildsystem recognizes build toolchains from the top-level entries
// of a hosted repository.
//
// Detection is substring containment against an ordered indicator table, so
// every matching tag is reported in table order. An empty match is a normal
// result; failures to read the repository are reported as DetectionError.
package buildsystem
