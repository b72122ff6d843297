// Package migrations contains migrations for hackdesk database.
package migrations

import (
	"github.com/hackdesk/hackdesk/internal/db"
)

// Schema contains migrations of database schema.
var Schema = db.NewMigrationGroup()

// Data contains migrations of database data.
var Data = db.NewMigrationGroup()
