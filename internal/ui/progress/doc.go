// Package progress draws terminal progress for long-running phases: a
// spinner while the svn history is indexed and a bar for the export loop.
//
// Both render on the writer they are given (stderr in practice) and never
// read input, so they stay out of the way of signal handling and of
// stdout, which carries the progress dots and the report.
package progress
