// Package repository persists the parking state in MySQL.  The in-memory
// core in package parking is authoritative while the process runs; the
// repositories here receive its committed changes and hand them back at
// startup.
package repository

import "errors"

// ErrCorruptRow is returned when a stored row cannot be decoded into a
// domain value, e.g. an unknown slot type or status string.  Startup
// should stop rather than run on partially loaded state.
var ErrCorruptRow = errors.New("corrupt row")
