package http

import (
	"net/http"

	statDto "anoa.com/warbler/internal/modules/stat/dto"
	statService "anoa.com/warbler/internal/modules/stat/service"
	"anoa.com/warbler/pkg/response"
	"anoa.com/warbler/pkg/validator"
	"github.com/gin-gonic/gin"
)

type StatHandler struct {
	statService statService.StatService
}

func NewStatHandler(statService statService.StatService) *StatHandler {
	return &StatHandler{
		statService: statService,
	}
}

func (h *StatHandler) GetTotals(c *gin.Context) {
	totals, err := h.statService.GetTotals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, totals)
}

func (h *StatHandler) GetTrendingMessages(c *gin.Context) {
	var filter statDto.TrendingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	messages, err := h.statService.GetTrendingMessages(c.Request.Context(), filter.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, statDto.TrendingResponse{Data: messages})
}
