package service

import (
	"context"

	"github.com/RagOfJoes/bloom/audit"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/persistence"
)

type service struct {
	ar audit.Repository
}

func NewAuditService(ar audit.Repository) audit.Service {
	return &service{ar: ar}
}

func (s *service) History(ctx context.Context, resourceType string, resourceID string, page internal.Page) ([]audit.Log, error) {
	if _, ok := persistence.AuditedTables[resourceType]; !ok {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%s is not audited", resourceType)
	}
	logs, err := s.ar.List(ctx, resourceType, resourceID, page)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to retrieve history of %s %s", resourceType, resourceID)
	}
	return logs, nil
}
