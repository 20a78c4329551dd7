package service

import "github.com/Baaaki/yamdb/internal/models"

// CanModify reports whether actor may edit or delete content written by
// authorID: the author, any moderator and any admin may.
func CanModify(actor *models.User, authorID uint) bool {
	if actor == nil {
		return false
	}
	return actor.ID == authorID || actor.IsModerator() || actor.IsAdmin()
}

// authorize turns CanModify into the error the caller should see.
func authorize(actor *models.User, authorID uint) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if !CanModify(actor, authorID) {
		return ErrForbidden
	}
	return nil
}
