package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trqanh/socialblog/models"
	"github.com/trqanh/socialblog/utils"
)

// ReactionController implements the like and follow toggles. Each reaction is
// a two-state machine per (user, post) pair: every call flips ABSENT/PRESENT.
type ReactionController struct {
	db *gorm.DB
}

// NewReactionController creates a ReactionController.
func NewReactionController(db *gorm.DB) *ReactionController {
	return &ReactionController{db: db}
}

// ToggleLike flips the caller's like on a post and returns the action taken
// plus the post's updated like count. The whole read-modify-write runs in one
// transaction; the composite unique index on likes is the backstop when two
// toggles from the same user race.
func (r *ReactionController) ToggleLike(ctx *gin.Context) {
	post, userID, ok := r.resolvePostAndUser(ctx)
	if !ok {
		return
	}

	var action string
	var likesCount int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, post.ID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			action = "unliked"
		} else {
			like := models.Like{UserID: userID, PostID: post.ID}
			if err := tx.Create(&like).Error; err != nil {
				if !errors.Is(err, gorm.ErrDuplicatedKey) {
					return err
				}
				// Lost an insert race: the row exists, so the pair is PRESENT.
			}
			action = "liked"
		}
		return tx.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likesCount).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to toggle like")
		return
	}

	utils.CacheDelete("cache:post:detail:" + strconv.Itoa(int(post.ID)))
	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{
		"action":      action,
		"likes_count": likesCount,
	})
}

// ToggleFollow flips the caller's follow subscription on a post with the same
// toggle semantics as ToggleLike.
func (r *ReactionController) ToggleFollow(ctx *gin.Context) {
	post, userID, ok := r.resolvePostAndUser(ctx)
	if !ok {
		return
	}

	var action string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, post.ID).Delete(&models.PostFollow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			action = "unfollowed"
			return nil
		}
		follow := models.PostFollow{UserID: userID, PostID: post.ID}
		if err := tx.Create(&follow).Error; err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
		}
		action = "followed"
		return nil
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to toggle follow")
		return
	}

	utils.CacheDelete("cache:post:detail:" + strconv.Itoa(int(post.ID)))

	utils.Success(ctx, gin.H{"action": action})
}

// resolvePostAndUser loads the target post and the authenticated principal,
// writing the error response itself when either is missing.
func (r *ReactionController) resolvePostAndUser(ctx *gin.Context) (models.Post, uint, bool) {
	var post models.Post
	if err := r.db.First(&post, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "post not found")
			return post, 0, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load post")
		return post, 0, false
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return post, 0, false
	}
	return post, userID, true
}
