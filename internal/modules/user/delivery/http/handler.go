package handler

import (
	"net/http"

	"anoa.com/warbler/internal/modules/user/dto"
	"anoa.com/warbler/internal/modules/user/service"
	"anoa.com/warbler/internal/session"
	commonDto "anoa.com/warbler/pkg/dto"
	"anoa.com/warbler/pkg/response"
	"anoa.com/warbler/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	userService service.UserService
	sessions    *session.Manager
}

func NewUserHandler(userService service.UserService, sessions *session.Manager) *UserHandler {
	return &UserHandler{
		userService: userService,
		sessions:    sessions,
	}
}

// CSRF hands out an anti-forgery token bound to the caller's session.
func (h *UserHandler) CSRF(c *gin.Context) {
	token, err := h.sessions.IssueCSRF(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"csrf_token": token})
}

// Signup drops any existing login before creating the account, then logs the
// new user in.
func (h *UserHandler) Signup(c *gin.Context) {
	if err := h.sessions.Logout(c); err != nil {
		response.Error(c, err)
		return
	}

	var input dto.SignupInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	user, err := h.userService.Signup(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.sessions.Login(c, user.ID); err != nil {
		response.Error(c, err)
		return
	}

	logrus.WithField("user_id", user.ID).Info("user signed up")
	c.JSON(http.StatusCreated, dto.AuthResponse{User: user, Redirect: "/"})
}

func (h *UserHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := h.sessions.Login(c, user.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{User: user, Redirect: "/"})
}

func (h *UserHandler) Logout(c *gin.Context) {
	if _, err := session.RequireLogin(session.FromGin(c)); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.sessions.Logout(c); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, commonDto.MessageResponse{Message: "logged out", Redirect: "/login"})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var filter dto.SearchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	users, err := h.userService.Search(c.Request.Context(), filter.Query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserListResponse{Data: users})
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	user, err := session.RequireLogin(session.FromGin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.userService.Delete(c.Request.Context(), user); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.sessions.Logout(c); err != nil {
		// the account is already gone; LoadSession clears the dangling id later
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to clear session after account deletion")
	}
	c.JSON(http.StatusOK, commonDto.MessageResponse{Message: "account deleted", Redirect: "/signup"})
}
