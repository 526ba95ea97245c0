package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"

	profileDto "anoa.com/warbler/internal/modules/profile/dto"
	profile "anoa.com/warbler/internal/modules/profile/service"
	"anoa.com/warbler/internal/session"
	commonDto "anoa.com/warbler/pkg/dto"
	"anoa.com/warbler/pkg/response"
	"anoa.com/warbler/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService profile.ProfileService
}

func NewProfileHandler(profileService profile.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// GetUserProfile is public; a logged in viewer also learns the follow state.
func (h *ProfileHandler) GetUserProfile(c *gin.Context) {
	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	res, err := h.profileService.GetPublicProfile(c.Request.Context(), session.FromGin(c).User, req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	user, err := session.RequireLogin(session.FromGin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.profileService.GetCurrentProfile(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UpdateProfile accepts JSON or a form; multipart forms may carry "image"
// and "header_image" files.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	user, err := session.RequireLogin(session.FromGin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var input profileDto.UpdateProfileInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	avatar, closeAvatar, err := formImage(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}
	defer closeAvatar()

	header, closeHeader, err := formImage(c, "header_image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read header image"})
		return
	}
	defer closeHeader()

	updated, err := h.profileService.UpdateProfile(c.Request.Context(), user, input, avatar, header)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": updated, "redirect": fmt.Sprintf("/users/%d", updated.ID)})
}

func formImage(c *gin.Context, field string) (*profileDto.ImageFile, func(), error) {
	noop := func() {}
	fileHeader, err := c.FormFile(field)
	if err != nil || fileHeader == nil {
		return nil, noop, nil
	}

	var file multipart.File
	if file, err = fileHeader.Open(); err != nil {
		return nil, noop, err
	}
	return &profileDto.ImageFile{Reader: file, FileName: fileHeader.Filename}, func() { _ = file.Close() }, nil
}
