package repository

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsScope filters rows whose column contains term, ignoring case in any
// script. An empty term leaves the query untouched. Wildcards in term match
// literally.
func containsScope(column, term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}

		switch db.Dialector.Name() {
		case "postgres":
			pattern := "%" + likeEscaper.Replace(term) + "%"
			return db.Where(column+" ILIKE ? ESCAPE '\\'", pattern)
		case "sqlite":
			// casefold is registered by database.SQLite
			pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
			return db.Where("casefold("+column+") LIKE ? ESCAPE '\\'", pattern)
		default:
			pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
			return db.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern)
		}
	}
}
