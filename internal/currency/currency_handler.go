package currency

import (
	"net/http"

	"go-expensio/internal/shared/apperror"
	"go-expensio/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Common(c *gin.Context) {
	response.Success(c, http.StatusOK, h.service.Common(), nil)
}

func (h *Handler) Rates(c *gin.Context) {
	base := c.Param("base")

	rates, err := h.service.Rates(c.Request.Context(), base)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"base": base, "rates": rates}, nil)
}
