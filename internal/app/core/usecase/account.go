package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
)

// ReconcileReport 對帳結果
type ReconcileReport struct {
	AccountNumber string
	// Expected: 由交易紀錄推算的餘額
	Expected decimal.Decimal
	// Actual: 帳戶目前餘額
	Actual   decimal.Decimal
	Balanced bool
	// Transactions: 參與計算的交易數
	Transactions int
}

// OpenAccount 開戶，初始餘額為 0
func (c *CoreUseCase) OpenAccount(ctx context.Context, accountNumber, ownerID string, accountType domain.AccountType, actorID string) (*domain.Account, error) {
	account, err := domain.NewAccount(accountNumber, ownerID, accountType)
	if err != nil {
		return nil, err
	}

	unlock := c.locks.Lock(accountNumber)
	_, err = c.accounts.FindByAccountNumber(ctx, accountNumber)
	switch {
	case err == nil:
		unlock()
		return nil, domain.ErrAccountAlreadyExists
	case !errors.Is(err, domain.ErrAccountNotFound):
		unlock()
		return nil, persistenceError("find account "+accountNumber, err)
	}
	saved, err := c.accounts.Save(ctx, account)
	unlock()
	if err != nil {
		return nil, persistenceError("save account "+accountNumber, err)
	}

	c.recordAudit(ctx, domain.AuditEntry{
		ID:             uuid.New(),
		ActorID:        actorID,
		Operation:      domain.AuditOperationOpenAccount,
		AccountNumbers: []string{accountNumber},
		Amount:         decimal.Zero,
		Timestamp:      time.Now().UTC(),
	})
	return saved, nil
}

// GetBalance 取得帳戶餘額
func (c *CoreUseCase) GetBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	account, err := c.findAccount(ctx, accountNumber, domain.ErrAccountNotFound)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// TransactionHistory 回傳帳戶的交易紀錄 (由舊到新)
func (c *CoreUseCase) TransactionHistory(ctx context.Context, accountNumber string) ([]*domain.Transaction, error) {
	if _, err := c.findAccount(ctx, accountNumber, domain.ErrAccountNotFound); err != nil {
		return nil, err
	}
	trans, err := c.transactions.ListByAccount(ctx, accountNumber)
	if err != nil {
		return nil, persistenceError("list transactions "+accountNumber, err)
	}
	return trans, nil
}

// Reconcile 檢查帳戶餘額是否等於交易紀錄的加總
//
// COMPLETED 與 REVERSED 都計入：被沖正的交易保留原本的影響，
// 由對應的沖正交易 (COMPLETED) 抵銷。PENDING 與 FAILED 不計入。
func (c *CoreUseCase) Reconcile(ctx context.Context, accountNumber string) (*ReconcileReport, error) {
	unlock := c.locks.Lock(accountNumber)
	defer unlock()

	account, err := c.findAccount(ctx, accountNumber, domain.ErrAccountNotFound)
	if err != nil {
		return nil, err
	}
	trans, err := c.transactions.ListByAccount(ctx, accountNumber)
	if err != nil {
		return nil, persistenceError("list transactions "+accountNumber, err)
	}

	report := &ReconcileReport{
		AccountNumber: accountNumber,
		Expected:      decimal.Zero,
		Actual:        account.Balance,
	}
	for _, tran := range trans {
		if tran.Status != domain.TransactionStatusCompleted && tran.Status != domain.TransactionStatusReversed {
			continue
		}
		report.Expected = report.Expected.Add(tran.SignedAmount(accountNumber))
		report.Transactions++
	}
	report.Balanced = report.Expected.Equal(report.Actual)
	return report, nil
}
