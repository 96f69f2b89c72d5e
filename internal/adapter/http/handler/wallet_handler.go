package handler

import (
	"wallet-registry/internal/adapter/http/dto"
	"wallet-registry/internal/adapter/http/middleware"
	"wallet-registry/internal/core/ports"
	"wallet-registry/pkg/apperror"
	"wallet-registry/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles /api/v1/wallets.
type WalletHandler struct {
	walletSvc ports.WalletService
	cache     *ResponseCacher
}

// NewWalletHandler creates a new WalletHandler. cache may be nil.
func NewWalletHandler(walletSvc ports.WalletService, cache *ResponseCacher) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc, cache: cache}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.walletSvc.Create(c.Request.Context(), req.ToPort())
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidate(c)
	c.Set(middleware.CtxResourceID, wallet.ID.String())
	response.Created(c, wallet)
}

// List handles GET /api/v1/wallets.
func (h *WalletHandler) List(c *gin.Context) {
	var q dto.ListWalletsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	params := ports.WalletListParams{
		IsActive: q.IsActive,
		Currency: q.Currency,
		Search:   q.Search,
		Tag:      q.Tag,
		Page:     q.Page,
		Limit:    q.Limit,
	}
	if q.RoleID != "" {
		roleID, err := uuid.Parse(q.RoleID)
		if err != nil {
			response.Error(c, apperror.ErrInvalidID("role_id"))
			return
		}
		params.RoleID = &roleID
	}

	key := nsWallets + ":list:" + c.Request.URL.Query().Encode()
	if h.cache.serve(c, nsWallets, key) {
		return
	}

	wallets, total, err := h.walletSvc.FindAll(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, limit := effectivePage(q.Page, q.Limit)
	meta := &response.PageMeta{Total: total, Page: page, Limit: limit}
	h.cache.store(c, key, wallets, meta)
	response.Paginated(c, wallets, total, page, limit)
}

// Stats handles GET /api/v1/wallets/stats.
func (h *WalletHandler) Stats(c *gin.Context) {
	key := nsWallets + ":stats"
	if h.cache.serve(c, nsWallets, key) {
		return
	}

	stats, err := h.walletSvc.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cache.store(c, key, stats, nil)
	response.OK(c, stats)
}

// Get handles GET /api/v1/wallets/:id.
func (h *WalletHandler) Get(c *gin.Context) {
	id := c.Param("id")
	key := nsWallets + ":id:" + id
	if h.cache.serve(c, nsWallets, key) {
		return
	}

	wallet, err := h.walletSvc.FindOne(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cache.store(c, key, wallet, nil)
	response.OK(c, wallet)
}

// GetByAddress handles GET /api/v1/wallets/address/:address.
func (h *WalletHandler) GetByAddress(c *gin.Context) {
	address := c.Param("address")
	key := nsWallets + ":address:" + address
	if h.cache.serve(c, nsWallets, key) {
		return
	}

	wallet, err := h.walletSvc.FindByAddress(c.Request.Context(), address)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cache.store(c, key, wallet, nil)
	response.OK(c, wallet)
}

// Update handles PUT /api/v1/wallets/:id.
func (h *WalletHandler) Update(c *gin.Context) {
	var req dto.UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.walletSvc.Update(c.Request.Context(), c.Param("id"), req.ToPort())
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidate(c)
	response.OK(c, wallet)
}

// Remove handles DELETE /api/v1/wallets/:id. The wallet is deactivated.
func (h *WalletHandler) Remove(c *gin.Context) {
	wallet, err := h.walletSvc.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidate(c)
	response.OK(c, wallet)
}

// AddRole handles POST /api/v1/wallets/:id/roles.
func (h *WalletHandler) AddRole(c *gin.Context) {
	var req dto.AddWalletRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	wallet, err := h.walletSvc.AddRole(c.Request.Context(), c.Param("id"), req.RoleID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidate(c)
	response.OK(c, wallet)
}

// RemoveRole handles DELETE /api/v1/wallets/:id/roles/:roleId.
func (h *WalletHandler) RemoveRole(c *gin.Context) {
	wallet, err := h.walletSvc.RemoveRole(c.Request.Context(), c.Param("id"), c.Param("roleId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidate(c)
	response.OK(c, wallet)
}

// TouchActivity handles PATCH /api/v1/wallets/:id/activity.
func (h *WalletHandler) TouchActivity(c *gin.Context) {
	wallet, err := h.walletSvc.TouchActivity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidate(c)
	response.OK(c, wallet)
}

func (h *WalletHandler) invalidate(c *gin.Context) {
	h.cache.invalidate(c.Request.Context(), patternWallets)
}

// effectivePage mirrors the service defaults so list metadata matches
// what was queried.
func effectivePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
