package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trqanh/socialblog/middleware"
	"github.com/trqanh/socialblog/models"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("AVATAR_DIR", os.TempDir())
	// Each test gets its own database but cache keys would collide across
	// tests, so point Redis at a closed port to keep the cache inert.
	os.Setenv("REDIS_PORT", "6399")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// setupTest builds an in-memory database and a router mirroring the API
// surface, without rate limiting so tests are not throttled.
func setupTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// A pooled second connection would see its own empty :memory: database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.PostFollow{},
		&models.PostView{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	authController := NewAuthController(db)
	postController := NewPostController(db)
	reactionController := NewReactionController(db)

	r := gin.New()
	api := r.Group("/api/v1")

	api.POST("/auth/register", authController.Register)
	api.POST("/auth/login", authController.Login)
	api.POST("/auth/logout", middleware.AuthRequired(), authController.Logout)
	api.GET("/auth/me", middleware.AuthRequired(), authController.Me)
	api.PATCH("/auth/profile", middleware.AuthRequired(), authController.UpdateProfile)
	api.POST("/auth/profile/avatar", middleware.AuthRequired(), authController.UploadAvatar)
	api.GET("/users", middleware.AuthRequired(), authController.ListUsers)
	api.GET("/users/:id", authController.GetUserPublic)
	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", middleware.OptionalAuth(), postController.GetPost)
	api.POST("/posts", middleware.AuthRequired(), postController.CreatePost)
	api.PUT("/posts/:id", middleware.AuthRequired(), postController.UpdatePost)
	api.DELETE("/posts/:id", middleware.AuthRequired(), postController.DeletePost)
	api.POST("/posts/:id/comments", middleware.AuthRequired(), postController.CreateComment)
	api.POST("/posts/:id/like", middleware.AuthRequired(), reactionController.ToggleLike)
	api.POST("/posts/:id/follow", middleware.AuthRequired(), reactionController.ToggleFollow)

	return db, r
}

type apiResponse struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return w, resp
}

// registerAndLogin registers a fresh user through the API and returns a token.
func registerAndLogin(t *testing.T, r *gin.Engine, username, email, password string) string {
	t.Helper()

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: expected 200, got %d (%s)", username, w.Code, w.Body.String())
	}

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%s)", email, w.Code, w.Body.String())
	}
	token, _ := resp.Data["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in response", email)
	}
	return token
}

// createPost creates a post through the API and returns its id.
func createPost(t *testing.T, r *gin.Engine, token, title, content string) uint {
	t.Helper()

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/posts", token, gin.H{
		"title":   title,
		"content": content,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create post: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	post, _ := resp.Data["post"].(map[string]interface{})
	id, _ := post["id"].(float64)
	if id == 0 {
		t.Fatalf("create post: no id in response %v", resp.Data)
	}
	return uint(id)
}

func postPath(id uint, suffix string) string {
	return fmt.Sprintf("/api/v1/posts/%d%s", id, suffix)
}
