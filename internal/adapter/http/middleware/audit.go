package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"wallet-registry/internal/core/domain"
	"wallet-registry/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type auditRoute struct {
	action       domain.AuditAction
	resourceType string
}

// auditRoutes maps "METHOD route-template" to the recorded action.
var auditRoutes = map[string]auditRoute{
	"POST /api/v1/auth/login":                  {domain.AuditActionLogin, "session"},
	"POST /api/v1/wallet-roles":                {domain.AuditActionRoleCreate, "wallet_role"},
	"PUT /api/v1/wallet-roles/:id":             {domain.AuditActionRoleUpdate, "wallet_role"},
	"PATCH /api/v1/wallet-roles/:id/toggle":    {domain.AuditActionRoleToggle, "wallet_role"},
	"DELETE /api/v1/wallet-roles/:id":          {domain.AuditActionRoleDeactivate, "wallet_role"},
	"POST /api/v1/wallets":                     {domain.AuditActionWalletCreate, "wallet"},
	"PUT /api/v1/wallets/:id":                  {domain.AuditActionWalletUpdate, "wallet"},
	"DELETE /api/v1/wallets/:id":               {domain.AuditActionWalletDeactivate, "wallet"},
	"POST /api/v1/wallets/:id/roles":           {domain.AuditActionWalletAddRole, "wallet"},
	"DELETE /api/v1/wallets/:id/roles/:roleId": {domain.AuditActionWalletRemoveRole, "wallet"},
	"PATCH /api/v1/wallets/:id/activity":       {domain.AuditActionWalletActivity, "wallet"},
	"POST /api/v1/cache/reset":                 {domain.AuditActionCacheReset, "cache"},
}

// AuditLog records successful mutating requests after the handler ran.
// Handlers that create a resource put its id under CtxResourceID.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		action, resourceType := mapRouteToAction(c.Request.Method, c.FullPath())
		if action == "" {
			return
		}

		var adminID *uuid.UUID
		if v, exists := c.Get(CtxAdminID); exists {
			if id, ok := v.(uuid.UUID); ok {
				adminID = &id
			}
		}

		resourceID := c.Param("id")
		if v := c.GetString(CtxResourceID); v != "" {
			resourceID = v
		}

		details := map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}
		if username := c.GetString(CtxUsername); username != "" {
			details["username"] = username
		}
		if roleID := c.Param("roleId"); roleID != "" {
			details["role_id"] = roleID
		}
		if pattern := c.Query("pattern"); pattern != "" && resourceType == "cache" {
			details["pattern"] = pattern
		}
		raw, _ := json.Marshal(details)

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			AdminID:      adminID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(raw),
			CreatedAt:    time.Now(),
		})
	}
}

func mapRouteToAction(method, route string) (domain.AuditAction, string) {
	r, ok := auditRoutes[method+" "+route]
	if !ok {
		return "", ""
	}
	return r.action, r.resourceType
}
