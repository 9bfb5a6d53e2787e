package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
)

// AccountStore 帳戶儲存介面
type AccountStore interface {
	// FindByAccountNumber 以帳號查詢，不存在時回傳 domain.ErrAccountNotFound
	FindByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	// Save 新增或更新帳戶
	Save(ctx context.Context, account *domain.Account) (*domain.Account, error)
}

// TransactionStore 交易儲存介面 (只新增，狀態更新以相同 ID 覆寫)
type TransactionStore interface {
	// Save 新增交易，或以相同 ID 更新狀態
	Save(ctx context.Context, tran *domain.Transaction) (*domain.Transaction, error)
	// FindByID 查詢交易，不存在時回傳 domain.ErrTransactionNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// ListByAccount 回傳涉及該帳號的交易，依 Sequence 由舊到新
	ListByAccount(ctx context.Context, accountNumber string) ([]*domain.Transaction, error)
}

// AuditService 稽核紀錄
type AuditService interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}
