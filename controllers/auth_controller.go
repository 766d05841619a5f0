package controllers

import (
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trqanh/socialblog/config"
	"github.com/trqanh/socialblog/models"
	"github.com/trqanh/socialblog/utils"
)

const tokenLifetime = 72 * time.Hour

// AuthController handles registration, login and profile management.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register handles account registration with bcrypt hashing. Username and
// email must both be unused; the unique indexes catch races past the check.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required,min=2,max=20"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username cannot be empty")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid email address")
		return
	}

	var existing models.User
	if err := a.db.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "username or email already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := a.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40901, "username or email already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	utils.Success(ctx, gin.H{"user": sanitizeUserResponse(user)})
}

// Login verifies user credentials by email and issues a JWT. The failure
// message never distinguishes a wrong email from a wrong password.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", strings.TrimSpace(req.Email)).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  sanitizeUserResponse(user),
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenLifetime)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)

	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's own profile including email and bio.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	utils.Success(ctx, gin.H{"user": ownUserResponse(user)})
}

// ListUsers returns a paginated list of all users. Login required.
func (a *AuthController) ListUsers(ctx *gin.Context) {
	var users []models.User
	var total int64

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	if err := a.db.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to count users")
		return
	}

	if err := a.db.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to retrieve users")
		return
	}

	items := make([]gin.H, 0, len(users))
	for _, u := range users {
		items = append(items, sanitizeUserResponse(u))
	}

	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// GetUserPublic returns public user info by ID.
func (a *AuthController) GetUserPublic(ctx *gin.Context) {
	idStr := strings.TrimSpace(ctx.Param("id"))
	if idStr == "" {
		utils.Error(ctx, http.StatusBadRequest, 40050, "missing user id")
		return
	}
	if b, ok := utils.CacheGetBytes("cache:user:public:" + idStr); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}
	var user models.User
	if err := a.db.First(&user, idStr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to get user")
		return
	}
	payload := sanitizeUserResponse(user)
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON("cache:user:public:"+idStr, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// UpdateProfile allows the authenticated user to update username, email and
// bio. All fields are optional; only provided fields change.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Bio      *string `json:"bio"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	if req.Username != nil {
		uname := strings.TrimSpace(*req.Username)
		if l := len([]rune(uname)); l < 2 || l > 20 {
			utils.Error(ctx, http.StatusBadRequest, 40031, "username length must be 2-20 characters")
			return
		}
		user.Username = uname
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40032, "invalid email address")
			return
		}
		user.Email = email
	}
	if req.Bio != nil {
		bio := utils.Sanitize(strings.TrimSpace(*req.Bio))
		if len([]rune(bio)) > 500 {
			rs := []rune(bio)
			bio = string(rs[:500])
		}
		user.Bio = bio
	}

	if err := a.db.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40902, "username or email already taken")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update profile")
		return
	}

	utils.CacheDelete("cache:user:public:" + strconv.Itoa(int(user.ID)))

	utils.Success(ctx, gin.H{"user": ownUserResponse(user)})
}

// UploadAvatar stores an uploaded avatar image and records it on the profile.
// Only the allow-listed image extensions are accepted.
func (a *AuthController) UploadAvatar(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	file, header, err := ctx.Request.FormFile("avatar")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40033, "no avatar file uploaded")
		return
	}
	defer file.Close()

	const maxAvatarSize = 5 * 1024 * 1024
	if header.Size > maxAvatarSize {
		utils.Error(ctx, http.StatusBadRequest, 40034, "avatar exceeds 5MB")
		return
	}
	if !utils.AllowedAvatarExt(header.Filename) {
		utils.Error(ctx, http.StatusBadRequest, 40035, "only jpg, jpeg, png and gif files are allowed")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	stored, err := utils.SaveAvatar(file, header.Filename, config.Get().AvatarDir)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to save avatar")
		return
	}

	user.Avatar = stored
	if err := a.db.Save(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to update profile")
		return
	}

	utils.CacheDelete("cache:user:public:" + strconv.Itoa(int(user.ID)))

	utils.Success(ctx, gin.H{"avatar": stored, "url": "/static/avatars/" + stored})
}

// sanitizeUserResponse strips private fields for public consumption.
func sanitizeUserResponse(u models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"avatar":     u.Avatar,
		"bio":        u.Bio,
		"created_at": u.CreatedAt,
	}
}

// ownUserResponse includes fields only the account owner should see.
func ownUserResponse(u models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"avatar":     u.Avatar,
		"bio":        u.Bio,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}
