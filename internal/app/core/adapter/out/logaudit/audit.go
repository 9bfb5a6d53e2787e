package logaudit

import (
	"context"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/usecase"
)

// Auditor 把稽核紀錄寫到 zap logger
type Auditor struct {
	logger *zap.Logger
}

// NewAuditor 建立 Auditor，logger 會加上 component=audit
func NewAuditor(logger *zap.Logger) *Auditor {
	return &Auditor{logger: logger.With(zap.String("component", "audit"))}
}

// Record 寫入一筆稽核 log
func (a *Auditor) Record(ctx context.Context, entry domain.AuditEntry) error {
	a.logger.Info("audit",
		zap.Stringer("audit_id", entry.ID),
		zap.String("actor", entry.ActorID),
		zap.String("operation", entry.Operation),
		zap.Strings("accounts", entry.AccountNumbers),
		zap.String("amount", entry.Amount.String()),
		zap.Stringer("transaction_id", entry.TransactionID),
		zap.Time("timestamp", entry.Timestamp),
	)
	return nil
}

var _ usecase.AuditService = (*Auditor)(nil)
