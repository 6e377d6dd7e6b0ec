package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/univeil/univeil/internal/services"
	"github.com/univeil/univeil/internal/utils"
)

type WalletHandler struct {
	svc services.WalletService
}

func NewWalletHandler(svc services.WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

func (h *WalletHandler) Balance(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	bal, err := h.svc.Balance(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"coins": bal})
}

func (h *WalletHandler) Ledger(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.svc.Ledger(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ledger": rows})
}

type CreditRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
	Ref    string `json:"ref"`
}

// Credit is admin-only; coin purchases clear through a payment provider
// elsewhere and land here as a plain credit.
func (h *WalletHandler) Credit(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WalletHandler.Credit", "invalid request body", err))
		return
	}
	if req.Ref == "" {
		req.Ref = "admin:credit"
	}

	bal, err := h.svc.Credit(c.Request.Context(), req.UserID, req.Amount, req.Ref)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"coins": bal})
}
