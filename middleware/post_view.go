package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trqanh/socialblog/models"
)

// PostViewRecorder records daily view counts for post detail reads.
func PostViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		// Only count post detail pages, e.g. /api/v1/posts/123
		path := c.Request.URL.Path
		const prefix = "/api/v1/posts/"
		if !strings.HasPrefix(path, prefix) {
			return
		}
		rest := strings.TrimPrefix(path, prefix)
		postID, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return
		}

		// Use local midnight to align with DATE column
		now := time.Now().In(time.Local)
		localMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		// Atomic upsert to avoid duplicate key errors under concurrency
		_ = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "post_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
		}).Create(&models.PostView{Date: localMidnight, PostID: uint(postID), Count: 1}).Error
	}
}
