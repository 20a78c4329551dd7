package repository

import "gorm.io/gorm"

// Page selects a 1-based page of a list. Size <= 0 disables pagination.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	if p.Number < 1 || p.Size <= 0 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Scope is a gorm scope applying LIMIT/OFFSET.
func (p Page) Scope(db *gorm.DB) *gorm.DB {
	if p.Size <= 0 {
		return db
	}
	return db.Limit(p.Size).Offset(p.Offset())
}
