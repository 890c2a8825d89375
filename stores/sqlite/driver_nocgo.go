//go:build !cgo

package sqlite

import _ "modernc.org/sqlite"

// driverName is the database/sql driver backing the store. Builds without
// cgo fall back to the pure Go driver.
const driverName = "sqlite"
