package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trqanh/socialblog/middleware"
	"github.com/trqanh/socialblog/models"
	"github.com/trqanh/socialblog/utils"
)

// PostController manages posts and their comments.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required,min=1"`
		Content string `json:"content" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "content cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post := models.Post{
		UserID:  userID,
		Title:   title,
		Content: content,
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	if err := p.db.Preload("User").First(&post, post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"post": postResponse(post)})
}

// ListPosts returns paginated posts in insertion order with author info and
// per-post comment and like counts. Open to anonymous readers.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))

	// Cache unfiltered listings only to avoid cache key explosion.
	cacheKey := fmt.Sprintf("cache:posts:list:page=%d:size=%d", page, pageSize)
	if search == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	var posts []models.Post
	var total int64

	query := p.db.Preload("User").Order("id ASC")
	if search != "" {
		query = query.Where("title LIKE ? OR content LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if err := query.Model(&models.Post{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to count posts")
		return
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to list posts")
		return
	}

	items := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		item := postResponse(post)
		item["likes_count"] = p.countLikes(post.ID)
		item["comments_count"] = p.countComments(post.ID)
		items = append(items, item)
	}

	payload := gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if search == "" {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetPost returns a single post with comments, like count and the caller's
// follow state. Anonymous viewers always read followed=false; there is no
// principal to check, so the lookup is skipped entirely.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID := ctx.Param("id")

	userID, authenticated := getUserID(ctx)

	// Only anonymous responses are cacheable; follow state is per-user.
	if !authenticated {
		if b, ok := utils.CacheGetBytes("cache:post:detail:" + postID); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	var post models.Post
	if err := p.db.Preload("User").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	var comments []models.Comment
	if err := p.db.Where("post_id = ?", post.ID).Order("id ASC").Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load comments")
		return
	}
	p.attachCommentAuthors(comments)

	followed := false
	if authenticated {
		var n int64
		p.db.Model(&models.PostFollow{}).Where("user_id = ? AND post_id = ?", userID, post.ID).Count(&n)
		followed = n > 0
	}

	item := postResponse(post)
	item["comments"] = commentResponses(comments)
	item["likes_count"] = p.countLikes(post.ID)
	item["followed"] = followed

	payload := gin.H{"post": item}
	if !authenticated {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON("cache:post:detail:"+postID, wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// UpdatePost allows the author to update title and content of their post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only update your own posts")
		return
	}

	if req.Title != nil {
		title := utils.Sanitize(strings.TrimSpace(*req.Title))
		if title == "" {
			utils.Error(ctx, http.StatusBadRequest, 40025, "title cannot be empty")
			return
		}
		post.Title = title
	}
	if req.Content != nil {
		content := utils.Sanitize(*req.Content)
		if strings.TrimSpace(content) == "" {
			utils.Error(ctx, http.StatusBadRequest, 40026, "content cannot be empty")
			return
		}
		post.Content = content
	}

	if err := p.db.Save(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.CacheDelete("cache:post:detail:" + postID)

	utils.Success(ctx, gin.H{"post": postResponse(post)})
}

// DeletePost allows the author to delete their post. Comments, likes and
// follows referencing the post go with it in one transaction so a failure
// midway leaves nothing half-deleted.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}

	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own posts")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostFollow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.CacheDelete("cache:post:detail:" + postID)

	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// CreateComment allows any authenticated user to comment on an existing post,
// including the post's own author. Comments cannot be edited or removed.
func (p *PostController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40027, "invalid request payload")
		return
	}

	content := utils.Sanitize(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40028, "content cannot be empty")
		return
	}

	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	comment := models.Comment{
		PostID:  post.ID,
		UserID:  userID,
		Content: content,
	}

	if err := p.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to create comment")
		return
	}

	if err := p.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load comment")
		return
	}

	// The cached list payload carries comments_count, so it goes stale too.
	utils.CacheDelete("cache:post:detail:" + strconv.Itoa(int(post.ID)))
	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"comment": commentResponse(comment)})
}

func (p *PostController) countLikes(postID uint) int64 {
	var n int64
	p.db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&n)
	return n
}

func (p *PostController) countComments(postID uint) int64 {
	var n int64
	p.db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&n)
	return n
}

// attachCommentAuthors loads comment authors in one batch query.
func (p *PostController) attachCommentAuthors(comments []models.Comment) {
	if len(comments) == 0 {
		return
	}
	var userIDs []uint
	for _, c := range comments {
		userIDs = append(userIDs, c.UserID)
	}
	userIDs = utils.UniqueUint(userIDs)

	var users []models.User
	if err := p.db.Find(&users, userIDs).Error; err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("failed to load comment authors: %v", err)
		}
		return
	}
	userMap := make(map[uint]models.User, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}
	for i := range comments {
		if user, ok := userMap[comments[i].UserID]; ok {
			comments[i].User = user
		}
	}
}

func postResponse(post models.Post) gin.H {
	return gin.H{
		"id":         post.ID,
		"title":      post.Title,
		"content":    post.Content,
		"author":     sanitizeUserResponse(post.User),
		"user_id":    post.UserID,
		"created_at": post.CreatedAt,
		"updated_at": post.UpdatedAt,
	}
}

func commentResponse(c models.Comment) gin.H {
	return gin.H{
		"id":         c.ID,
		"post_id":    c.PostID,
		"content":    c.Content,
		"author":     sanitizeUserResponse(c.User),
		"created_at": c.CreatedAt,
	}
}

func commentResponses(comments []models.Comment) []gin.H {
	out := make([]gin.H, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentResponse(c))
	}
	return out
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}
