package approval

import (
	"net/http"

	"go-expensio/internal/expense"
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

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) decide(c *gin.Context, action string) {
	companyID := c.GetString("company_id")
	actorID := c.GetString("user_id")
	expenseID := c.Param("id")

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	resp, err := h.service.Decide(c.Request.Context(), companyID, actorID, expenseID, action, req.Comment)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	h.decide(c, expense.ActionApproved)
}

func (h *Handler) Reject(c *gin.Context) {
	h.decide(c, expense.ActionRejected)
}

func (h *Handler) Pending(c *gin.Context) {
	companyID := c.GetString("company_id")
	approverID := c.GetString("user_id")

	resp, err := h.service.PendingForApprover(c.Request.Context(), companyID, approverID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Progress(c *gin.Context) {
	companyID := c.GetString("company_id")
	expenseID := c.Param("id")

	resp, err := h.service.Progress(c.Request.Context(), companyID, expenseID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
