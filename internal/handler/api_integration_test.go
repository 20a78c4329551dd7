package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/handler"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/testutil"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// APIIntegrationTestSuite drives the full /v1 router against SQLite.
type APIIntegrationTestSuite struct {
	suite.Suite
	testDB *testutil.TestDatabase
	mail   *testutil.RecordingSender
	router *gin.Engine

	admin      *models.User
	adminToken string
	user       *models.User
	userToken  string
}

// SetupSuite runs before all tests
func (s *APIIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())
}

// TearDownSuite runs after all tests
func (s *APIIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

// SetupTest runs before each test (clean database, fresh router)
func (s *APIIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)

	db := s.testDB.DB
	userRepo := repository.NewUserRepository(db)
	titleRepo := repository.NewTitleRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	genreRepo := repository.NewGenreRepository(db)
	reviews := service.NewReviewService(repository.NewReviewRepository(db), titleRepo)

	s.mail = &testutil.RecordingSender{}
	s.router = handler.SetupRouter(handler.Dependencies{
		JWTSecret:   testutil.TestJWTSecret,
		PageSize:    2,
		Users:       userRepo,
		AuthLimiter: middleware.NewLocalLimiter(middleware.RateLimiterConfig{MaxRequests: 1000, Window: time.Minute}),
		Auth: service.NewAuthService(userRepo, utils.NewCodeGenerator(testutil.TestJWTSecret, time.Hour),
			s.mail, testutil.TestJWTSecret, time.Hour),
		UserSvc:    service.NewUserService(userRepo),
		Categories: service.NewCategoryService(categoryRepo),
		Genres:     service.NewGenreService(genreRepo),
		Titles:     service.NewTitleService(titleRepo, categoryRepo, genreRepo),
		Reviews:    reviews,
		Comments:   service.NewCommentService(repository.NewCommentRepository(db), reviews),
	})

	s.admin = testutil.CreateUser(s.T(), db, "admin", models.RoleAdmin)
	s.adminToken = testutil.Token(s.T(), s.admin)
	s.user = testutil.CreateUser(s.T(), db, "reader", models.RoleUser)
	s.userToken = testutil.Token(s.T(), s.user)
}

func TestAPIIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(APIIntegrationTestSuite))
}

func (s *APIIntegrationTestSuite) do(method, path string, body interface{}, token string) (int, map[string]interface{}) {
	w := testutil.PerformRequest(s.T(), s.router, method, path, body, token)
	if w.Body.Len() == 0 {
		return w.Code, nil
	}
	return w.Code, testutil.DecodeJSON(s.T(), w)
}

func (s *APIIntegrationTestSuite) countRows(model interface{}) int64 {
	var n int64
	s.testDB.DB.Model(model).Count(&n)
	return n
}

// --- auth ---

func (s *APIIntegrationTestSuite) TestSignupAndToken() {
	code, body := s.do(http.MethodPost, "/v1/auth/signup/", map[string]string{
		"username": "newbie", "email": "newbie@example.com",
	}, "")
	s.Equal(http.StatusOK, code)
	s.Equal("newbie", body["username"])
	s.Equal("newbie@example.com", body["email"])

	confirmation := s.mail.LastCode(s.T(), "newbie@example.com")

	code, body = s.do(http.MethodPost, "/v1/auth/token/", map[string]string{
		"username": "newbie", "confirmation_code": "bogus",
	}, "")
	s.Equal(http.StatusBadRequest, code)
	s.Equal("invalid_code", body["reason"])

	code, body = s.do(http.MethodPost, "/v1/auth/token/", map[string]string{
		"username": "newbie", "confirmation_code": confirmation,
	}, "")
	s.Require().Equal(http.StatusOK, code)
	token, _ := body["token"].(string)
	s.NotEmpty(token)

	code, body = s.do(http.MethodGet, "/v1/users/me/", nil, token)
	s.Equal(http.StatusOK, code)
	s.Equal("newbie", body["username"])
	s.Equal("user", body["role"])
}

func (s *APIIntegrationTestSuite) TestSignupValidationAndConflict() {
	code, body := s.do(http.MethodPost, "/v1/auth/signup/", map[string]string{
		"username": "me", "email": "me@example.com",
	}, "")
	s.Equal(http.StatusBadRequest, code)
	s.Equal("validation_error", body["reason"])
	s.Contains(body["errors"], "username")

	code, body = s.do(http.MethodPost, "/v1/auth/signup/", map[string]string{
		"username": "reader", "email": "someone@example.com",
	}, "")
	s.Equal(http.StatusBadRequest, code)
	s.Equal("conflict", body["reason"])
	s.Contains(body["errors"], "username")

	code, _ = s.do(http.MethodPost, "/v1/auth/token/", map[string]string{
		"username": "nobody", "confirmation_code": "x",
	}, "")
	s.Equal(http.StatusNotFound, code)
}

func (s *APIIntegrationTestSuite) TestMalformedBody() {
	code, body := s.do(http.MethodPost, "/v1/auth/signup/", "{not json", "")
	s.Equal(http.StatusBadRequest, code)
	s.Equal("parse_error", body["reason"])

	code, body = s.do(http.MethodPost, "/v1/titles/", `{"name": "X", "year": "soon"}`, s.adminToken)
	s.Equal(http.StatusBadRequest, code)
	s.Equal("validation_error", body["reason"])
	s.Equal(map[string]interface{}{"year": []interface{}{"expected a number"}}, body["errors"])

	code, body = s.do(http.MethodPost, "/v1/titles/", `{"name": "X", "genre": "epic"}`, s.adminToken)
	s.Equal(http.StatusBadRequest, code)
	s.Equal(map[string]interface{}{"genre": []interface{}{"expected a list"}}, body["errors"])

	code, body = s.do(http.MethodPost, "/v1/titles/", `{"name": ["X"]}`, s.adminToken)
	s.Equal(http.StatusBadRequest, code)
	s.Equal(map[string]interface{}{"name": []interface{}{"expected a string"}}, body["errors"])
}

// --- categories and genres ---

func (s *APIIntegrationTestSuite) TestAdminCreatesCategory() {
	testutil.CreateCategory(s.T(), s.testDB.DB, "Фильмы", "movies")

	code, body := s.do(http.MethodPost, "/v1/categories/", map[string]string{
		"name": "Игры", "slug": "games",
	}, s.adminToken)
	s.Require().Equal(http.StatusCreated, code)
	s.Equal("Игры", body["name"])
	s.Equal("games", body["slug"])
	s.EqualValues(2, s.countRows(&models.Category{}))

	code, body = s.do(http.MethodGet, "/v1/categories/", nil, "")
	s.Equal(http.StatusOK, code)
	s.EqualValues(2, body["count"])
	s.Len(body["results"], 2)

	code, body = s.do(http.MethodGet, "/v1/categories/?search=%D0%B8%D0%B3%D1%80%D1%8B", nil, "")
	s.Equal(http.StatusOK, code)
	s.Require().EqualValues(1, body["count"])
	s.Equal("games", body["results"].([]interface{})[0].(map[string]interface{})["slug"])

	code, body = s.do(http.MethodGet, "/v1/categories/?search=%D0%A4%D0%98%D0%9B%D0%AC%D0%9C", nil, "")
	s.Equal(http.StatusOK, code)
	s.EqualValues(1, body["count"])

	code, body = s.do(http.MethodPost, "/v1/categories/", map[string]string{
		"name": "Games again", "slug": "games",
	}, s.adminToken)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(body["errors"], "slug")
}

func (s *APIIntegrationTestSuite) TestCategoryWriteGates() {
	body := map[string]string{"name": "Books", "slug": "books"}

	code, resp := s.do(http.MethodPost, "/v1/categories/", body, "")
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("not_authenticated", resp["reason"])

	code, _ = s.do(http.MethodPost, "/v1/categories/", body, s.userToken)
	s.Equal(http.StatusForbidden, code)
	s.Zero(s.countRows(&models.Category{}))

	testutil.CreateCategory(s.T(), s.testDB.DB, "Books", "books")
	code, resp = s.do(http.MethodPatch, "/v1/categories/books/", map[string]string{"name": "B"}, s.adminToken)
	s.Equal(http.StatusMethodNotAllowed, code)
	s.Equal("method_not_allowed", resp["reason"])

	code, _ = s.do(http.MethodDelete, "/v1/categories/books/", nil, s.adminToken)
	s.Equal(http.StatusNoContent, code)
	code, _ = s.do(http.MethodDelete, "/v1/categories/books/", nil, s.adminToken)
	s.Equal(http.StatusNotFound, code)
}

func (s *APIIntegrationTestSuite) TestGenreSearchAndPagination() {
	db := s.testDB.DB
	testutil.CreateGenre(s.T(), db, "Drama", "drama")
	testutil.CreateGenre(s.T(), db, "Comedy", "comedy")
	testutil.CreateGenre(s.T(), db, "Melodrama", "melodrama")

	code, body := s.do(http.MethodGet, "/v1/genres/", nil, "")
	s.Equal(http.StatusOK, code)
	s.EqualValues(3, body["count"])
	s.EqualValues(2, body["next"])
	s.Nil(body["previous"])
	s.Len(body["results"], 2)

	code, body = s.do(http.MethodGet, "/v1/genres/?page=2", nil, "")
	s.Equal(http.StatusOK, code)
	s.Nil(body["next"])
	s.EqualValues(1, body["previous"])
	s.Len(body["results"], 1)

	code, _ = s.do(http.MethodGet, "/v1/genres/?page=3", nil, "")
	s.Equal(http.StatusNotFound, code)

	code, body = s.do(http.MethodGet, "/v1/genres/?search=DRAMA", nil, "")
	s.Equal(http.StatusOK, code)
	s.EqualValues(2, body["count"])
}

// --- titles ---

func (s *APIIntegrationTestSuite) TestTitleLifecycle() {
	db := s.testDB.DB
	testutil.CreateCategory(s.T(), db, "Books", "books")
	testutil.CreateGenre(s.T(), db, "Epic", "epic")

	code, body := s.do(http.MethodPost, "/v1/titles/", map[string]interface{}{
		"name": "Beowulf", "year": 1000, "description": "old",
		"category": "books", "genre": []string{"epic"},
	}, s.adminToken)
	s.Require().Equal(http.StatusCreated, code)
	s.Nil(body["rating"])
	s.Equal("books", body["category"].(map[string]interface{})["slug"])
	s.Len(body["genre"], 1)
	id := int(body["id"].(float64))
	path := fmt.Sprintf("/v1/titles/%d/", id)

	code, body = s.do(http.MethodPatch, path, map[string]int{"year": 1006}, s.adminToken)
	s.Require().Equal(http.StatusOK, code)
	s.EqualValues(1006, body["year"])
	s.Equal("Beowulf", body["name"])
	s.Equal("old", body["description"])
	s.Len(body["genre"], 1)

	code, _ = s.do(http.MethodPatch, path, map[string]int{"year": 1006}, s.userToken)
	s.Equal(http.StatusForbidden, code)

	code, body = s.do(http.MethodPut, path, map[string]interface{}{"name": "Only name"}, s.adminToken)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(body["errors"], "year")

	code, body = s.do(http.MethodGet, "/v1/titles/?year=1006&genre=epic&category=books&name=beo", nil, "")
	s.Equal(http.StatusOK, code)
	s.EqualValues(1, body["count"])

	code, body = s.do(http.MethodGet, "/v1/titles/?genre=none", nil, "")
	s.Equal(http.StatusOK, code)
	s.EqualValues(0, body["count"])
	s.Empty(body["results"])

	code, _ = s.do(http.MethodDelete, path, nil, s.adminToken)
	s.Equal(http.StatusNoContent, code)
	code, _ = s.do(http.MethodDelete, path, nil, s.adminToken)
	s.Equal(http.StatusNotFound, code)
	code, _ = s.do(http.MethodGet, "/v1/titles/abc/", nil, "")
	s.Equal(http.StatusNotFound, code)
}

func (s *APIIntegrationTestSuite) TestTitleFutureYearRejected() {
	testutil.CreateCategory(s.T(), s.testDB.DB, "Books", "books")

	code, body := s.do(http.MethodPost, "/v1/titles/", map[string]interface{}{
		"name": "From the future", "year": 3006, "category": "books", "genre": []string{},
	}, s.adminToken)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(body["errors"], "year")
	s.Zero(s.countRows(&models.Title{}))
}

func (s *APIIntegrationTestSuite) TestTitleUnknownSlugWritesNothing() {
	code, body := s.do(http.MethodPost, "/v1/titles/", map[string]interface{}{
		"name": "Orphan", "year": 2000, "category": "missing", "genre": []string{"ghost"},
	}, s.adminToken)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(body["errors"], "category")
	s.Contains(body["errors"], "genre")
	s.Zero(s.countRows(&models.Title{}))
}

// --- users ---

func (s *APIIntegrationTestSuite) TestSelfUpdateCannotEscalate() {
	code, body := s.do(http.MethodPatch, "/v1/users/me/", map[string]string{
		"role": "admin", "first_name": "Rea",
	}, s.userToken)
	s.Require().Equal(http.StatusOK, code)
	s.Equal("user", body["role"])
	s.Equal("Rea", body["first_name"])

	var stored models.User
	s.Require().NoError(s.testDB.DB.First(&stored, s.user.ID).Error)
	s.Equal(models.RoleUser, stored.Role)
}

func (s *APIIntegrationTestSuite) TestUserAdministration() {
	code, _ := s.do(http.MethodGet, "/v1/users/", nil, s.userToken)
	s.Equal(http.StatusForbidden, code)
	code, _ = s.do(http.MethodGet, "/v1/users/me/", nil, "")
	s.Equal(http.StatusUnauthorized, code)

	code, body := s.do(http.MethodPost, "/v1/users/", map[string]string{
		"username": "mod", "email": "mod@example.com", "role": "moderator",
	}, s.adminToken)
	s.Require().Equal(http.StatusCreated, code)
	s.Equal("moderator", body["role"])

	code, body = s.do(http.MethodGet, "/v1/users/?search=mo", nil, s.adminToken)
	s.Equal(http.StatusOK, code)
	s.EqualValues(1, body["count"])

	code, _ = s.do(http.MethodPut, "/v1/users/mod/", map[string]string{"bio": "x"}, s.adminToken)
	s.Equal(http.StatusMethodNotAllowed, code)

	code, body = s.do(http.MethodPatch, "/v1/users/mod/", map[string]string{"email": "reader@example.com"}, s.adminToken)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(body["errors"], "email")

	code, _ = s.do(http.MethodDelete, "/v1/users/mod/", nil, s.adminToken)
	s.Equal(http.StatusNoContent, code)
	code, _ = s.do(http.MethodGet, "/v1/users/mod/", nil, s.adminToken)
	s.Equal(http.StatusNotFound, code)
}

func (s *APIIntegrationTestSuite) TestDeletedUserTokenRejected() {
	s.Require().NoError(s.testDB.DB.Delete(&models.User{}, s.user.ID).Error)
	code, _ := s.do(http.MethodGet, "/v1/titles/", nil, s.userToken)
	s.Equal(http.StatusUnauthorized, code)
}

// --- reviews and comments ---

func (s *APIIntegrationTestSuite) TestReviewFlow() {
	db := s.testDB.DB
	title := testutil.CreateTitle(s.T(), db, "Dune", 1965, nil)
	base := fmt.Sprintf("/v1/titles/%d/reviews/", title.ID)

	code, _ := s.do(http.MethodPost, base, map[string]interface{}{"text": "great", "score": 8}, "")
	s.Equal(http.StatusUnauthorized, code)

	code, body := s.do(http.MethodPost, base, map[string]interface{}{"text": "great", "score": 8}, s.userToken)
	s.Require().Equal(http.StatusCreated, code)
	s.Equal("reader", body["author"])
	s.NotEmpty(body["pub_date"])
	reviewPath := fmt.Sprintf("%s%d/", base, int(body["id"].(float64)))

	code, body = s.do(http.MethodPost, base, map[string]interface{}{"text": "again", "score": 2}, s.userToken)
	s.Equal(http.StatusBadRequest, code)
	s.Equal("duplicate_review", body["reason"])
	s.EqualValues(1, s.countRows(&models.Review{}))

	code, body = s.do(http.MethodPost, base, map[string]interface{}{"text": "meh", "score": 11}, s.adminToken)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(body["errors"], "score")

	code, _ = s.do(http.MethodPost, base, map[string]interface{}{"text": "ok", "score": 6}, s.adminToken)
	s.Equal(http.StatusCreated, code)

	code, body = s.do(http.MethodGet, fmt.Sprintf("/v1/titles/%d/", title.ID), nil, "")
	s.Equal(http.StatusOK, code)
	s.InDelta(7.0, body["rating"], 0.0001)

	other := testutil.CreateUser(s.T(), db, "other", models.RoleUser)
	code, _ = s.do(http.MethodPatch, reviewPath, map[string]int{"score": 1}, testutil.Token(s.T(), other))
	s.Equal(http.StatusForbidden, code)

	code, body = s.do(http.MethodPatch, reviewPath, map[string]int{"score": 9}, s.userToken)
	s.Equal(http.StatusOK, code)
	s.EqualValues(9, body["score"])
	s.Equal("great", body["text"])

	// Comments
	commentsPath := reviewPath + "comments/"
	code, body = s.do(http.MethodPost, commentsPath, map[string]string{"text": "agreed"}, testutil.Token(s.T(), other))
	s.Require().Equal(http.StatusCreated, code)
	s.Equal("other", body["author"])
	commentPath := fmt.Sprintf("%s%d/", commentsPath, int(body["id"].(float64)))

	code, body = s.do(http.MethodGet, commentsPath, nil, "")
	s.Equal(http.StatusOK, code)
	s.EqualValues(1, body["count"])

	code, _ = s.do(http.MethodPut, commentPath, map[string]string{"text": "edited"}, s.userToken)
	s.Equal(http.StatusForbidden, code)

	moderator := testutil.CreateUser(s.T(), db, "moder", models.RoleModerator)
	code, _ = s.do(http.MethodDelete, commentPath, nil, testutil.Token(s.T(), moderator))
	s.Equal(http.StatusNoContent, code)

	code, _ = s.do(http.MethodDelete, reviewPath, nil, s.userToken)
	s.Equal(http.StatusNoContent, code)
	code, _ = s.do(http.MethodDelete, reviewPath, nil, s.userToken)
	s.Equal(http.StatusNotFound, code)
}

func (s *APIIntegrationTestSuite) TestNestedParentsMustExist() {
	code, _ := s.do(http.MethodGet, "/v1/titles/999/reviews/", nil, "")
	s.Equal(http.StatusNotFound, code)

	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Lonely", 2001, nil)
	code, _ = s.do(http.MethodGet, fmt.Sprintf("/v1/titles/%d/reviews/5/comments/", title.ID), nil, "")
	s.Equal(http.StatusNotFound, code)

	code, body := s.do(http.MethodGet, "/v1/nowhere/", nil, "")
	s.Equal(http.StatusNotFound, code)
	assert.Equal(s.T(), "not_found", body["reason"])
}
