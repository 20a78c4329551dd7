package models

type Title struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"type:varchar(256);not null" json:"name"`
	Year        int     `gorm:"not null;index" json:"year"`
	Description *string `gorm:"type:text" json:"description"`
	CategoryID  *uint   `gorm:"index" json:"-"`

	// Rating is AVG(reviews.score), selected by the repository; nil without reviews.
	Rating *float64 `gorm:"->;-:migration" json:"rating"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL;" json:"category"`
	Genres   []Genre   `gorm:"many2many:title_genres;constraint:OnDelete:CASCADE;" json:"genre"`
}

// TitleGenre maps the implicit title_genres join table. Only the bulk
// importer writes it directly; request handlers go through Title.Genres.
type TitleGenre struct {
	TitleID uint `gorm:"primaryKey"`
	GenreID uint `gorm:"primaryKey"`
}

func (TitleGenre) TableName() string {
	return "title_genres"
}
