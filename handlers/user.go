package handlers

import (
	"net/http"

	"places/apperr"
	"places/auth"
	"places/models"
	"places/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var ErrInvalidCredentials = apperr.Authentication("Invalid credentials could not log you in")

const (
	errSignup = "Signing up failed, please try again later"
	errLogin  = "Logging in failed, please try again later"
)

type UserCreateRequest struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=6"`
}

type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserImage struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

type UserInfo struct {
	ID     uint64    `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Image  UserImage `json:"image"`
	Places []uint64  `json:"places"`
}

type AuthResponse struct {
	UserID uint64 `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

func NewUserInfo(u *models.User) UserInfo {
	return UserInfo{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Image:  UserImage{Path: u.ImagePath, Filename: u.ImageFilename},
		Places: u.PlaceIDs(),
	}
}

func (h *Handler) UserList(c *gin.Context) {
	users, err := h.Repo.ListUsers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	result := make([]UserInfo, 0, len(users))
	for i := range users {
		result = append(result, NewUserInfo(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": result})
}

func (h *Handler) UserSignup(c *gin.Context) {
	req := UserCreateRequest{}
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		_ = c.Error(invalidInputs(c, err))
		return
	}
	taken, err := h.Repo.EmailTaken(c.Request.Context(), req.Email)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if taken {
		_ = c.Error(models.ErrEmailTaken)
		return
	}
	img, err := h.receiveImage(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	digest, err := auth.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		_ = c.Error(apperr.Persistence("Could not create user, please try again", err))
		return
	}

	user := &models.User{
		Name:          req.Name,
		Email:         req.Email,
		Password:      digest,
		ImagePath:     storage.PublicPath(img.Name),
		ImageFilename: img.Name,
	}
	if err = h.Repo.CreateUser(c.Request.Context(), user, h.storeImage(c, img)); err != nil {
		_ = c.Error(err)
		return
	}
	keepUploads(c)

	token, err := h.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		_ = c.Error(apperr.Persistence(errSignup, err))
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{UserID: user.ID, Email: user.Email, Token: token})
}

// UserLogin reports unknown emails and wrong passwords with the same error
func (h *Handler) UserLogin(c *gin.Context) {
	req := UserLoginRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(ErrInvalidCredentials)
		return
	}
	user, err := h.Repo.FindUserByEmail(c.Request.Context(), req.Email)
	if apperr.KindOf(err) == apperr.KindNotFound {
		_ = c.Error(ErrInvalidCredentials)
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !auth.CheckPassword(req.Password, user.Password) {
		_ = c.Error(ErrInvalidCredentials)
		return
	}
	token, err := h.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		_ = c.Error(apperr.Persistence(errLogin, err))
		return
	}
	c.JSON(http.StatusOK, AuthResponse{UserID: user.ID, Email: user.Email, Token: token})
}
