package models

// Category groups titles; a title belongs to at most one category.
type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	Name string `gorm:"type:varchar(256);not null" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}

// Genre is attached to titles through the title_genres join table.
type Genre struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	Name string `gorm:"type:varchar(256);not null" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}
