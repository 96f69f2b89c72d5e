package handler

import (
	"wallet-registry/internal/adapter/http/dto"
	"wallet-registry/internal/adapter/http/middleware"
	"wallet-registry/internal/core/ports"
	"wallet-registry/pkg/apperror"
	"wallet-registry/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletRoleHandler handles /api/v1/wallet-roles.
type WalletRoleHandler struct {
	roleSvc ports.WalletRoleService
	cache   *ResponseCacher
}

// NewWalletRoleHandler creates a new WalletRoleHandler. cache may be nil.
func NewWalletRoleHandler(roleSvc ports.WalletRoleService, cache *ResponseCacher) *WalletRoleHandler {
	return &WalletRoleHandler{roleSvc: roleSvc, cache: cache}
}

// Create handles POST /api/v1/wallet-roles.
func (h *WalletRoleHandler) Create(c *gin.Context) {
	var req dto.CreateWalletRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	role, err := h.roleSvc.Create(c.Request.Context(), req.ToPort())
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidate(c)
	c.Set(middleware.CtxResourceID, role.ID.String())
	response.Created(c, role)
}

// List handles GET /api/v1/wallet-roles.
func (h *WalletRoleHandler) List(c *gin.Context) {
	var q dto.ListWalletRolesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	key := nsWalletRoles + ":list:" + c.Request.URL.Query().Encode()
	if h.cache.serve(c, nsWalletRoles, key) {
		return
	}

	roles, err := h.roleSvc.FindAll(c.Request.Context(), q.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cache.store(c, key, roles, nil)
	response.OK(c, roles)
}

// ListActive handles GET /api/v1/wallet-roles/active.
func (h *WalletRoleHandler) ListActive(c *gin.Context) {
	key := nsWalletRoles + ":active"
	if h.cache.serve(c, nsWalletRoles, key) {
		return
	}

	roles, err := h.roleSvc.FindActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cache.store(c, key, roles, nil)
	response.OK(c, roles)
}

// Stats handles GET /api/v1/wallet-roles/stats.
func (h *WalletRoleHandler) Stats(c *gin.Context) {
	key := nsWalletRoles + ":stats"
	if h.cache.serve(c, nsWalletRoles, key) {
		return
	}

	stats, err := h.roleSvc.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cache.store(c, key, stats, nil)
	response.OK(c, stats)
}

// Get handles GET /api/v1/wallet-roles/:id.
func (h *WalletRoleHandler) Get(c *gin.Context) {
	id := c.Param("id")
	key := nsWalletRoles + ":id:" + id
	if h.cache.serve(c, nsWalletRoles, key) {
		return
	}

	role, err := h.roleSvc.FindOne(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cache.store(c, key, role, nil)
	response.OK(c, role)
}

// Update handles PUT /api/v1/wallet-roles/:id.
func (h *WalletRoleHandler) Update(c *gin.Context) {
	var req dto.UpdateWalletRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	role, err := h.roleSvc.Update(c.Request.Context(), c.Param("id"), req.ToPort())
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidate(c)
	response.OK(c, role)
}

// Toggle handles PATCH /api/v1/wallet-roles/:id/toggle.
func (h *WalletRoleHandler) Toggle(c *gin.Context) {
	role, err := h.roleSvc.ToggleActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidate(c)
	response.OK(c, role)
}

// Remove handles DELETE /api/v1/wallet-roles/:id. The role is deactivated.
func (h *WalletRoleHandler) Remove(c *gin.Context) {
	role, err := h.roleSvc.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidate(c)
	response.OK(c, role)
}

// Role summaries are embedded in wallet responses, so both namespaces go.
func (h *WalletRoleHandler) invalidate(c *gin.Context) {
	h.cache.invalidate(c.Request.Context(), patternWalletRoles, patternWallets)
}
