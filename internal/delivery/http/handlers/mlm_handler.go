package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vionex/vionex-mlm-service/internal/delivery/http/dto/request"
	"github.com/vionex/vionex-mlm-service/internal/delivery/http/dto/response"
	"github.com/vionex/vionex-mlm-service/internal/domain"
	"github.com/vionex/vionex-mlm-service/internal/usecase"
	purchasedto "github.com/vionex/vionex-mlm-service/internal/usecase/dto/purchase"
	rebatedto "github.com/vionex/vionex-mlm-service/internal/usecase/dto/rebate"
)

// MLMHandler exposes the engine operations as a thin JSON API.
// Authentication and authorization are handled by the upstream gateway.
type MLMHandler struct {
	purchaseUc     usecase.PurchaseUsecase
	disbursementUc usecase.DisbursementUsecase
	rankUc         usecase.RankUsecase
	binaryUc       usecase.BinaryUsecase
	genealogyUc    usecase.GenealogyUsecase
	walletUc       usecase.WalletUsecase
}

func NewMLMHandler(
	purchaseUc usecase.PurchaseUsecase,
	disbursementUc usecase.DisbursementUsecase,
	rankUc usecase.RankUsecase,
	binaryUc usecase.BinaryUsecase,
	genealogyUc usecase.GenealogyUsecase,
	walletUc usecase.WalletUsecase,
) *MLMHandler {
	return &MLMHandler{
		purchaseUc:     purchaseUc,
		disbursementUc: disbursementUc,
		rankUc:         rankUc,
		binaryUc:       binaryUc,
		genealogyUc:    genealogyUc,
		walletUc:       walletUc,
	}
}

func (h *MLMHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/purchases", h.CreatePurchase)
	router.POST("/purchases/:id/complete", h.CompletePurchase)
	router.POST("/purchases/:id/disburse", h.Disburse)
	router.POST("/purchases/:id/cancel", h.CancelPurchase)

	router.POST("/members/:id/rank/evaluate", h.EvaluateRank)
	router.POST("/ranks/evaluate-all", h.EvaluateAllRanks)

	router.POST("/binary/place", h.Place)
	router.GET("/members/:id/legs/:leg/volume", h.LegVolume)
	router.GET("/members/:id/matching", h.MatchingCommission)

	router.GET("/members/:id/genealogy", h.Genealogy)
	router.GET("/members/:id/wallet/reconcile", h.Reconcile)
}

func (h *MLMHandler) CreatePurchase(c *gin.Context) {
	var req request.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error(), Kind: "validation"})
		return
	}

	purchase, err := h.purchaseUc.CreatePurchase(c.Request.Context(), &purchasedto.CreatePurchaseInput{
		BuyerID:   req.BuyerID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"purchase_id":  purchase.ID,
		"total_amount": purchase.TotalAmount.StringFixed(2),
		"total_pv":     purchase.TotalPV.StringFixed(2),
		"status":       purchase.Status,
	})
}

func (h *MLMHandler) CompletePurchase(c *gin.Context) {
	result, err := h.purchaseUc.CompletePurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDisbursementResponse(result))
}

func (h *MLMHandler) CancelPurchase(c *gin.Context) {
	if err := h.purchaseUc.CancelPurchase(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *MLMHandler) Disburse(c *gin.Context) {
	result, err := h.disbursementUc.Disburse(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDisbursementResponse(result))
}

func (h *MLMHandler) EvaluateRank(c *gin.Context) {
	result, err := h.rankUc.Evaluate(c.Request.Context(), c.Param("id"), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MLMHandler) EvaluateAllRanks(c *gin.Context) {
	result, err := h.rankUc.EvaluateAll(c.Request.Context(), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MLMHandler) Place(c *gin.Context) {
	var req request.PlaceMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error(), Kind: "validation"})
		return
	}

	result, err := h.binaryUc.Place(c.Request.Context(), req.MemberID, req.SponsorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MLMHandler) LegVolume(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error(), Kind: "validation"})
		return
	}

	result, err := h.binaryUc.LegVolume(c.Request.Context(), c.Param("id"), domain.Position(c.Param("leg")), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.LegVolumeResponse{
		MemberID: result.MemberID,
		Leg:      result.Leg,
		Volume:   result.Volume.StringFixed(2),
	})
}

func (h *MLMHandler) MatchingCommission(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error(), Kind: "validation"})
		return
	}

	result, err := h.binaryUc.MatchingCommission(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.MatchingResponse{
		MemberID:       result.MemberID,
		LeftVolume:     result.LeftVolume.StringFixed(2),
		RightVolume:    result.RightVolume.StringFixed(2),
		MatchedVolume:  result.MatchedVolume.StringFixed(2),
		Commission:     result.Commission.StringFixed(2),
		CarriedForward: result.CarriedForward.StringFixed(2),
	})
}

func (h *MLMHandler) Genealogy(c *gin.Context) {
	maxDepth, _ := strconv.Atoi(c.DefaultQuery("max_depth", "0"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	includeStats := c.DefaultQuery("include_stats", "false") == "true"

	result, err := h.genealogyUc.Genealogy(c.Request.Context(), c.Param("id"), maxDepth, page, pageSize, includeStats)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MLMHandler) Reconcile(c *gin.Context) {
	result, err := h.walletUc.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil && result == nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if err != nil {
		// Ledger drift: surface the inconsistent aggregates with a conflict
		// status so it alerts instead of silently proceeding.
		status = http.StatusConflict
	}
	c.JSON(status, response.ReconciliationResponse{
		MemberID:      result.MemberID,
		WalletBalance: result.WalletBalance.StringFixed(2),
		LedgerSum:     result.LedgerSum.StringFixed(2),
		Consistent:    result.Consistent,
	})
}

func toDisbursementResponse(result *rebatedto.DisbursementResult) response.DisbursementResponse {
	rebates := make([]response.RebateResponse, 0, len(result.Rebates))
	for _, r := range result.Rebates {
		rebates = append(rebates, response.RebateResponse{
			RebateID:   r.RebateID,
			ReceiverID: r.ReceiverID,
			Level:      r.Level,
			RewardType: r.RewardType,
			Amount:     r.Amount.StringFixed(2),
		})
	}
	return response.DisbursementResponse{
		PurchaseID:       result.PurchaseID,
		AlreadyDisbursed: result.AlreadyDisbursed,
		TotalAmount:      result.TotalAmount.StringFixed(2),
		Rebates:          rebates,
	}
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, c.DefaultQuery("from", time.Now().AddDate(0, -1, 0).Format(time.RFC3339)))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse(time.RFC3339, c.DefaultQuery("to", time.Now().Format(time.RFC3339)))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{Error: err.Error(), Kind: "not_found"})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrPurchaseNotReady):
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error(), Kind: "validation"})
	case errors.Is(err, domain.ErrAlreadyPlaced):
		c.JSON(http.StatusConflict, response.ErrorResponse{Error: err.Error(), Kind: "already_placed"})
	case errors.Is(err, domain.ErrIntegrityViolation):
		c.JSON(http.StatusConflict, response.ErrorResponse{Error: err.Error(), Kind: "integrity_violation"})
	case errors.Is(err, domain.ErrTransientStore):
		c.JSON(http.StatusServiceUnavailable, response.ErrorResponse{Error: err.Error(), Kind: "transient"})
	default:
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error(), Kind: "internal"})
	}
}
