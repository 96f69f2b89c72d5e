package postgres

import (
	"context"
	"fmt"

	"wallet-registry/internal/core/domain"
	"wallet-registry/internal/core/ports"
)

type auditRepo struct {
	pool Pool
}

// NewAuditRepository creates a PostgreSQL-backed AuditRepository.
func NewAuditRepository(pool Pool) ports.AuditRepository {
	return &auditRepo{pool: pool}
}

func (r *auditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	var details, resourceID any
	if log.Details != "" {
		details = log.Details
	}
	if log.ResourceID != "" {
		resourceID = log.ResourceID
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, admin_id, action, resource_type, resource_id, details, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, log.AdminID, string(log.Action), log.ResourceType,
		resourceID, details, log.IPAddress, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
