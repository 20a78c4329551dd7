package testutil

import (
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const TestJWTSecret = "test-secret-key"

// CreateUser stores a user named username with email <username>@example.com.
func CreateUser(t testing.TB, db *gorm.DB, username string, role models.Role) *models.User {
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// CreateSuperuser stores a superuser whose role column is still "user".
func CreateSuperuser(t testing.TB, db *gorm.DB, username string) *models.User {
	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Role:        models.RoleUser,
		IsSuperuser: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create superuser %s: %v", username, err)
	}
	return user
}

// Token signs an access token for user with TestJWTSecret.
func Token(t testing.TB, user *models.User) string {
	token, err := utils.GenerateToken(user, TestJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return token
}

func CreateCategory(t testing.TB, db *gorm.DB, name, slug string) *models.Category {
	category := &models.Category{Name: name, Slug: slug}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to create category %s: %v", slug, err)
	}
	return category
}

func CreateGenre(t testing.TB, db *gorm.DB, name, slug string) *models.Genre {
	genre := &models.Genre{Name: name, Slug: slug}
	if err := db.Create(genre).Error; err != nil {
		t.Fatalf("Failed to create genre %s: %v", slug, err)
	}
	return genre
}

// CreateTitle stores a title with an optional category and genre links.
func CreateTitle(t testing.TB, db *gorm.DB, name string, year int, category *models.Category, genres ...*models.Genre) *models.Title {
	title := &models.Title{Name: name, Year: year}
	if category != nil {
		title.CategoryID = &category.ID
	}
	if err := db.Omit(clause.Associations).Create(title).Error; err != nil {
		t.Fatalf("Failed to create title %s: %v", name, err)
	}
	for _, g := range genres {
		link := models.TitleGenre{TitleID: title.ID, GenreID: g.ID}
		if err := db.Create(&link).Error; err != nil {
			t.Fatalf("Failed to link genre %s: %v", g.Slug, err)
		}
	}
	return title
}

func CreateReview(t testing.TB, db *gorm.DB, title *models.Title, author *models.User, score int) *models.Review {
	review := &models.Review{
		TitleID:  title.ID,
		AuthorID: author.ID,
		Text:     "review by " + author.Username,
		Score:    score,
	}
	if err := db.Omit(clause.Associations).Create(review).Error; err != nil {
		t.Fatalf("Failed to create review: %v", err)
	}
	return review
}

func CreateComment(t testing.TB, db *gorm.DB, review *models.Review, author *models.User, text string) *models.Comment {
	comment := &models.Comment{
		ReviewID: review.ID,
		AuthorID: author.ID,
		Text:     text,
	}
	if err := db.Omit(clause.Associations).Create(comment).Error; err != nil {
		t.Fatalf("Failed to create comment: %v", err)
	}
	return comment
}
