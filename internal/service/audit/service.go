package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service writes the structured audit trail of booking mutations. It is
// best-effort by design: audit failures never block the mutation that
// triggered them.
type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// NewNop returns an auditor that discards everything, for tests.
func NewNop() *Service {
	return &Service{logger: zap.NewNop()}
}

// Log records one mutation against an entity.
func (s *Service) Log(ctx context.Context, action, entityType string, entityID uuid.UUID, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("action", action),
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID.String()),
	}, fields...)
	s.logger.Info("audit", all...)
}
