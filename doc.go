// Package spok checks values against specifications that mirror
// their structure.
//
// The engine is in package 'match', and the command-line tool is in
// `cmd/spok`.  Specification documents (with $pred and $js
// directives) are in 'specfile', and sinks for tests, TAP, and
// snapshots are in 'spoktest', 'tap', and 'snapshot'.
package spok
