//go:build cgo

package sqlite

import _ "github.com/mattn/go-sqlite3"

// driverName is the database/sql driver backing the store. cgo builds use
// go-sqlite3.
const driverName = "sqlite3"
