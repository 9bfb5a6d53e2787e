package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/history"
	"github.com/JoeShih716/go-ledger-core/pkg/lockset"
)

// CoreUseCase 是核心業務邏輯層
//
// 負責存款、提款、轉帳以及 undo / redo。
// 每個帳戶有自己的鎖 (以帳號為 key)，多帳戶操作依帳號排序後取鎖。
// 帳戶與交易的寫入在持鎖期間完成；稽核與歷史紀錄在釋放鎖之後。
type CoreUseCase struct {
	accounts     AccountStore
	transactions TransactionStore
	audit        AuditService
	history      *history.Stack
	locks        *lockset.LockSet
	logger       *zap.Logger
	sequence     atomic.Uint64
}

// Option 設定 CoreUseCase
type Option func(*CoreUseCase)

// WithLogger 設定 logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *CoreUseCase) {
		c.logger = logger
	}
}

// WithHistory 使用外部建立的 undo / redo 歷史
func WithHistory(stack *history.Stack) Option {
	return func(c *CoreUseCase) {
		c.history = stack
	}
}

// WithSequenceStart 設定交易序號起點 (重啟時從儲存層的最大值接續)
func WithSequenceStart(seq uint64) Option {
	return func(c *CoreUseCase) {
		c.sequence.Store(seq)
	}
}

// NewCoreUseCase 建立 CoreUseCase
//
// 參數:
//
//	accounts: 帳戶儲存
//	transactions: 交易儲存
//	audit: 稽核
//	opts: 其他設定
//
// 回傳:
//
//	*CoreUseCase: 實例
func NewCoreUseCase(accounts AccountStore, transactions TransactionStore, audit AuditService, opts ...Option) *CoreUseCase {
	c := &CoreUseCase{
		accounts:     accounts,
		transactions: transactions,
		audit:        audit,
		locks:        lockset.New(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.history == nil {
		c.history = history.NewStack(0)
	}
	return c
}

// History 回傳 undo / redo 歷史
func (c *CoreUseCase) History() *history.Stack {
	return c.history
}

// ProcessDeposit 存款
func (c *CoreUseCase) ProcessDeposit(ctx context.Context, accountNumber string, amount decimal.Decimal, description, actorID string) (*domain.Transaction, error) {
	return c.post(ctx, domain.Command{
		Type:        domain.TransactionTypeDeposit,
		Destination: accountNumber,
		Amount:      amount,
	}, description, actorID)
}

// ProcessWithdraw 提款
func (c *CoreUseCase) ProcessWithdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, description, actorID string) (*domain.Transaction, error) {
	return c.post(ctx, domain.Command{
		Type:   domain.TransactionTypeWithdraw,
		Source: accountNumber,
		Amount: amount,
	}, description, actorID)
}

// ProcessTransfer 轉帳
//
// 參數:
//
//	ctx: 上下文
//	sourceAccountNumber: 轉出帳號
//	destinationAccountNumber: 轉入帳號
//	amount: 金額
//	description: 備註
//	actorID: 操作者
//
// 回傳:
//
//	*domain.Transaction: 已完成的交易
//	error: ErrSameAccountTransfer, ErrSourceAccountNotFound, ErrDestinationAccountNotFound,
//	       ErrInvalidAmount, ErrInsufficientBalance, ErrPersistenceFailure
func (c *CoreUseCase) ProcessTransfer(ctx context.Context, sourceAccountNumber, destinationAccountNumber string, amount decimal.Decimal, description, actorID string) (*domain.Transaction, error) {
	if sourceAccountNumber == destinationAccountNumber {
		return nil, domain.ErrSameAccountTransfer
	}
	return c.post(ctx, domain.Command{
		Type:        domain.TransactionTypeTransfer,
		Source:      sourceAccountNumber,
		Destination: destinationAccountNumber,
		Amount:      amount,
	}, description, actorID)
}

// Undo 復原最近一筆操作，回傳沖正交易
func (c *CoreUseCase) Undo(ctx context.Context, actorID string) (*domain.Transaction, error) {
	var (
		tran   *domain.Transaction
		undone domain.TransactionType
	)
	err := c.history.Undo(func(cmd domain.Command) (domain.Command, error) {
		undone = cmd.Type
		t, executed, err := c.reverse(ctx, cmd, actorID, "undo")
		tran = t
		return executed, err
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("operation undone",
		zap.String("actor", actorID),
		zap.Stringer("reversal_id", tran.ID),
		zap.String("reversal_of", transactionRef(tran.ReversalOf)),
	)
	c.recordAudit(ctx, domain.NewAuditEntry(actorID, domain.AuditOperationUndoPrefix+undone.String(), tran))
	return tran, nil
}

// Redo 重新套用最近一筆被復原的操作
func (c *CoreUseCase) Redo(ctx context.Context, actorID string) (*domain.Transaction, error) {
	var tran *domain.Transaction
	err := c.history.Redo(func(cmd domain.Command) (domain.Command, error) {
		t, executed, err := c.reverse(ctx, cmd, actorID, "redo")
		tran = t
		return executed, err
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("operation redone",
		zap.String("actor", actorID),
		zap.Stringer("transaction_id", tran.ID),
	)
	c.recordAudit(ctx, domain.NewAuditEntry(actorID, domain.AuditOperationRedoPrefix+tran.Type.String(), tran))
	return tran, nil
}

// post 在鎖內完成操作，釋放鎖後寫稽核並記錄歷史
func (c *CoreUseCase) post(ctx context.Context, cmd domain.Command, description, actorID string) (*domain.Transaction, error) {
	tran, err := c.postLocked(ctx, cmd, description, actorID)
	if err != nil {
		return nil, err
	}
	c.recordAudit(ctx, domain.NewAuditEntry(actorID, "", tran))
	c.history.RecordOperation(domain.CommandFromTransaction(tran))
	return tran, nil
}

func (c *CoreUseCase) postLocked(ctx context.Context, cmd domain.Command, description, actorID string) (*domain.Transaction, error) {
	unlock := c.locks.Lock(cmd.LockKeys()...)
	defer unlock()

	p, err := c.prepare(ctx, cmd, description, actorID)
	if err != nil {
		return nil, err
	}
	if err := c.commit(ctx, p); err != nil {
		return nil, err
	}
	return p.tran, nil
}

// reverse 套用 cmd 的反向操作並把 cmd 對應的交易標為 REVERSED
// 回傳新交易以及實際執行的 Command
func (c *CoreUseCase) reverse(ctx context.Context, cmd domain.Command, actorID, label string) (*domain.Transaction, domain.Command, error) {
	inverse := cmd.Inverse()

	unlock := c.locks.Lock(inverse.LockKeys()...)
	defer unlock()

	original, err := c.transactions.FindByID(ctx, cmd.TransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, domain.Command{}, err
		}
		return nil, domain.Command{}, persistenceError("find transaction "+cmd.TransactionID.String(), err)
	}
	marked := original.Clone()
	if err := marked.MarkReversed(); err != nil {
		return nil, domain.Command{}, err
	}

	// 先驗證並在記憶體中套用，業務錯誤 (例如餘額不足) 不會有任何寫入
	p, err := c.prepare(ctx, inverse, fmt.Sprintf("%s of %s", label, original.ID), actorID)
	if err != nil {
		return nil, domain.Command{}, err
	}
	reversalOf := original.ID
	p.tran.ReversalOf = &reversalOf

	if _, err := c.transactions.Save(ctx, marked); err != nil {
		p.rollback()
		return nil, domain.Command{}, persistenceError("mark transaction reversed", err)
	}
	if err := c.commit(ctx, p); err != nil {
		if _, restoreErr := c.transactions.Save(ctx, original); restoreErr != nil {
			c.logger.Error("restore reversed transaction failed",
				zap.Stringer("transaction_id", original.ID),
				zap.Error(restoreErr),
			)
			err = errors.Join(err, persistenceError("restore transaction status", restoreErr))
		}
		return nil, domain.Command{}, err
	}

	inverse.TransactionID = p.tran.ID
	return p.tran, inverse, nil
}

// recordAudit 同步寫稽核，失敗只記 log 不影響已完成的操作
func (c *CoreUseCase) recordAudit(ctx context.Context, entry domain.AuditEntry) {
	if c.audit == nil {
		return
	}
	if err := c.audit.Record(ctx, entry); err != nil {
		c.logger.Warn("audit record failed",
			zap.String("actor", entry.ActorID),
			zap.String("operation", entry.Operation),
			zap.Stringer("transaction_id", entry.TransactionID),
			zap.Error(err),
		)
	}
}

// findAccount 查詢帳戶，找不到時回傳 notFound
func (c *CoreUseCase) findAccount(ctx context.Context, accountNumber string, notFound error) (*domain.Account, error) {
	account, err := c.accounts.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, notFound
		}
		return nil, persistenceError("find account "+accountNumber, err)
	}
	return account, nil
}

// persistenceError 將外部儲存錯誤包成 ErrPersistenceFailure，保留原始錯誤
func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistenceFailure, op, err)
}

// nextSequence 取得下一個交易序號
func (c *CoreUseCase) nextSequence() uint64 {
	return c.sequence.Add(1)
}

// transactionRef 方便 log
func transactionRef(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
