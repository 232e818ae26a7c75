// Package logs reads the animap log file for the `animap logs` command.
//
// Last returns the final N lines with bounded memory; Follow polls for lines
// appended after an offset and restarts from the top when the file is
// truncated or replaced. Both accept an optional substring filter so callers
// can narrow output to one event_type or provider.
package logs
