package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
)

// leg 單一帳戶的變動，before 為變動前的快照
type leg struct {
	account *domain.Account
	before  *domain.Account
}

// posting 已在記憶體中套用、尚未寫入的操作
type posting struct {
	tran *domain.Transaction
	// 依寫入順序：先扣款帳戶，再入帳帳戶
	legs []leg
}

// rollback 還原記憶體中的帳戶狀態
func (p *posting) rollback() {
	for _, l := range p.legs {
		*l.account = *l.before
	}
}

// prepare 查詢帳戶、驗證並在記憶體中套用 cmd，不做任何寫入
// 呼叫端必須持有 cmd.LockKeys() 的鎖
//
// 錯誤順序：帳戶不存在 -> 金額不合法 -> 餘額不足
func (c *CoreUseCase) prepare(ctx context.Context, cmd domain.Command, description, actorID string) (*posting, error) {
	sourceNotFound, destinationNotFound := domain.ErrAccountNotFound, domain.ErrAccountNotFound
	if cmd.Type == domain.TransactionTypeTransfer {
		sourceNotFound, destinationNotFound = domain.ErrSourceAccountNotFound, domain.ErrDestinationAccountNotFound
	}

	var source, destination *domain.Account
	var err error
	if cmd.Source != "" {
		if source, err = c.findAccount(ctx, cmd.Source, sourceNotFound); err != nil {
			return nil, err
		}
	}
	if cmd.Destination != "" {
		if destination, err = c.findAccount(ctx, cmd.Destination, destinationNotFound); err != nil {
			return nil, err
		}
	}

	tran, err := domain.NewTransaction(cmd.Type, cmd.Source, cmd.Destination, cmd.Amount, description, actorID)
	if err != nil {
		return nil, err
	}

	p := &posting{tran: tran}
	if source != nil {
		before := source.Clone()
		if err := source.Withdraw(cmd.Amount); err != nil {
			_ = tran.Fail()
			return nil, err
		}
		p.legs = append(p.legs, leg{account: source, before: before})
	}
	if destination != nil {
		before := destination.Clone()
		if err := destination.Deposit(cmd.Amount); err != nil {
			p.rollback()
			_ = tran.Fail()
			return nil, err
		}
		p.legs = append(p.legs, leg{account: destination, before: before})
	}
	return p, nil
}

// commit 寫入帳戶與交易
// 任何一步失敗都會還原記憶體狀態，並把已寫入的帳戶寫回變動前的快照
func (c *CoreUseCase) commit(ctx context.Context, p *posting) error {
	saved := make([]*domain.Account, 0, len(p.legs))
	for _, l := range p.legs {
		if _, err := c.accounts.Save(ctx, l.account); err != nil {
			return c.abort(ctx, p, saved, persistenceError("save account "+l.account.AccountNumber, err))
		}
		saved = append(saved, l.before)
	}

	completed := p.tran.Clone()
	completed.Sequence = c.nextSequence()
	if err := completed.Complete(); err != nil {
		return c.abort(ctx, p, saved, err)
	}
	if _, err := c.transactions.Save(ctx, completed); err != nil {
		return c.abort(ctx, p, saved, persistenceError("save transaction", err))
	}
	p.tran = completed
	return nil
}

// abort 補償：還原記憶體、寫回已寫入帳戶的快照、交易標為 FAILED
func (c *CoreUseCase) abort(ctx context.Context, p *posting, saved []*domain.Account, cause error) error {
	p.rollback()
	_ = p.tran.Fail()

	c.logger.Warn("ledger operation rolled back",
		zap.String("type", p.tran.Type.String()),
		zap.Stringer("transaction_id", p.tran.ID),
		zap.Error(cause),
	)

	var compErr error
	for i := len(saved) - 1; i >= 0; i-- {
		if _, err := c.accounts.Save(ctx, saved[i]); err != nil {
			c.logger.Error("compensating account write failed",
				zap.String("account", saved[i].AccountNumber),
				zap.Error(err),
			)
			compErr = errors.Join(compErr, persistenceError("restore account "+saved[i].AccountNumber, err))
		}
	}
	if compErr != nil {
		return errors.Join(cause, compErr)
	}
	return cause
}
