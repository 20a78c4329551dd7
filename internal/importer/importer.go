// Package importer loads the catalog fixtures shipped as CSV files into the
// database. Files are read in dependency order and every row is upserted by
// its primary key, so running an import twice leaves the same data behind.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// table describes one CSV file and how its rows become models.
type table struct {
	file     string
	name     string
	conflict []string
	build    func(r record) (interface{}, error)
}

// Tables lists the importable files in the order they must be loaded.
var tables = []table{
	{file: "category.csv", name: "categories", conflict: []string{"id"}, build: buildCategory},
	{file: "genre.csv", name: "genres", conflict: []string{"id"}, build: buildGenre},
	{file: "users.csv", name: "users", conflict: []string{"id"}, build: buildUser},
	{file: "title.csv", name: "titles", conflict: []string{"id"}, build: buildTitle},
	{file: "title_genre.csv", name: "title_genres", conflict: []string{"title_id", "genre_id"}, build: buildTitleGenre},
	{file: "review.csv", name: "reviews", conflict: []string{"id"}, build: buildReview},
	{file: "comments.csv", name: "comments", conflict: []string{"id"}, build: buildComment},
}

// Summary counts imported rows per file. Skipped files are absent.
type Summary map[string]int

type Importer struct {
	db     *gorm.DB
	dir    string
	silent bool
}

// New returns an importer reading from dir. silent suppresses per-row logs.
func New(db *gorm.DB, dir string, silent bool) *Importer {
	return &Importer{db: db, dir: dir, silent: silent}
}

// Run imports every file found in the directory. Each file is loaded in its
// own transaction; the first failing file stops the run.
func (im *Importer) Run(ctx context.Context) (Summary, error) {
	summary := Summary{}
	for _, t := range tables {
		path := filepath.Join(im.dir, t.file)
		n, err := im.importFile(ctx, path, t)
		if errors.Is(err, os.ErrNotExist) {
			logger.Log.Warn("CSV file not found, skipping", zap.String("file", path))
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("import %s: %w", t.file, err)
		}
		summary[t.file] = n
		logger.Log.Info("Imported CSV file", zap.String("file", t.file), zap.Int("rows", n))
	}

	if err := im.resetSequences(ctx); err != nil {
		return summary, err
	}
	return summary, nil
}

func (im *Importer) importFile(ctx context.Context, path string, t table) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	columns := make([]clause.Column, 0, len(t.conflict))
	for _, name := range t.conflict {
		columns = append(columns, clause.Column{Name: name})
	}
	onConflict := clause.OnConflict{Columns: columns, UpdateAll: true}
	if t.name == "title_genres" {
		onConflict = clause.OnConflict{Columns: columns, DoNothing: true}
	}

	count := 0
	err = im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for line := 2; ; line++ {
			values, err := reader.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}

			row := make(record, len(header))
			for i, key := range header {
				if i < len(values) {
					row[key] = strings.TrimSpace(values[i])
				}
			}

			model, err := t.build(row)
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			if err := tx.Omit(clause.Associations).Clauses(onConflict).Create(model).Error; err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			count++

			if !im.silent {
				logger.Log.Info("Imported row", zap.String("table", t.name), zap.Int("line", line))
			}
		}
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// resetSequences moves postgres id sequences past the imported ids so later
// inserts do not collide with them. Other drivers track this themselves.
func (im *Importer) resetSequences(ctx context.Context) error {
	if im.db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, t := range tables {
		if t.name == "title_genres" {
			continue
		}
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
			t.name,
		)
		if err := im.db.WithContext(ctx).Exec(query).Error; err != nil {
			return fmt.Errorf("reset %s sequence: %w", t.name, err)
		}
	}
	return nil
}

// record is one CSV row keyed by header name.
type record map[string]string

// get returns the first present key; relations may be named with or
// without the _id suffix.
func (r record) get(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			return v, true
		}
	}
	return "", false
}

func (r record) str(keys ...string) string {
	v, _ := r.get(keys...)
	return v
}

func (r record) id(keys ...string) (uint, error) {
	v, ok := r.get(keys...)
	if !ok || v == "" {
		return 0, fmt.Errorf("missing %s", keys[0])
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", keys[0], err)
	}
	return uint(n), nil
}

func (r record) optionalID(keys ...string) (*uint, error) {
	if v, _ := r.get(keys...); v == "" {
		return nil, nil
	}
	n, err := r.id(keys...)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r record) number(key string) (int, error) {
	n, err := strconv.Atoi(r.str(key))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// timestamp accepts RFC 3339 with or without fractional seconds; empty means now.
func (r record) timestamp(key string) (time.Time, error) {
	v := r.str(key)
	if v == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

func buildCategory(r record) (interface{}, error) {
	id, err := r.id("id")
	if err != nil {
		return nil, err
	}
	return &models.Category{ID: id, Name: r.str("name"), Slug: r.str("slug")}, nil
}

func buildGenre(r record) (interface{}, error) {
	id, err := r.id("id")
	if err != nil {
		return nil, err
	}
	return &models.Genre{ID: id, Name: r.str("name"), Slug: r.str("slug")}, nil
}

func buildUser(r record) (interface{}, error) {
	id, err := r.id("id")
	if err != nil {
		return nil, err
	}
	role := models.Role(r.str("role"))
	if role == "" {
		role = models.RoleUser
	}
	return &models.User{
		ID:        id,
		Username:  r.str("username"),
		Email:     r.str("email"),
		Role:      role,
		Bio:       r.str("bio"),
		FirstName: r.str("first_name"),
		LastName:  r.str("last_name"),
	}, nil
}

func buildTitle(r record) (interface{}, error) {
	id, err := r.id("id")
	if err != nil {
		return nil, err
	}
	year, err := r.number("year")
	if err != nil {
		return nil, err
	}
	category, err := r.optionalID("category", "category_id")
	if err != nil {
		return nil, err
	}
	title := &models.Title{ID: id, Name: r.str("name"), Year: year, CategoryID: category}
	if d := r.str("description"); d != "" {
		title.Description = &d
	}
	return title, nil
}

func buildTitleGenre(r record) (interface{}, error) {
	titleID, err := r.id("title_id", "title")
	if err != nil {
		return nil, err
	}
	genreID, err := r.id("genre_id", "genre")
	if err != nil {
		return nil, err
	}
	return &models.TitleGenre{TitleID: titleID, GenreID: genreID}, nil
}

func buildReview(r record) (interface{}, error) {
	id, err := r.id("id")
	if err != nil {
		return nil, err
	}
	titleID, err := r.id("title_id", "title")
	if err != nil {
		return nil, err
	}
	authorID, err := r.id("author", "author_id")
	if err != nil {
		return nil, err
	}
	score, err := r.number("score")
	if err != nil {
		return nil, err
	}
	pubDate, err := r.timestamp("pub_date")
	if err != nil {
		return nil, err
	}
	return &models.Review{
		ID:       id,
		TitleID:  titleID,
		AuthorID: authorID,
		Text:     r.str("text"),
		Score:    score,
		PubDate:  pubDate,
	}, nil
}

func buildComment(r record) (interface{}, error) {
	id, err := r.id("id")
	if err != nil {
		return nil, err
	}
	reviewID, err := r.id("review_id", "review")
	if err != nil {
		return nil, err
	}
	authorID, err := r.id("author", "author_id")
	if err != nil {
		return nil, err
	}
	pubDate, err := r.timestamp("pub_date")
	if err != nil {
		return nil, err
	}
	return &models.Comment{
		ID:       id,
		ReviewID: reviewID,
		AuthorID: authorID,
		Text:     r.str("text"),
		PubDate:  pubDate,
	}, nil
}
