package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/usecase"
)

func TestUndo_Empty(t *testing.T) {
	f := newFixture(t)

	_, err := f.core.Undo(context.Background(), testActor)
	assert.ErrorIs(t, err, domain.ErrNothingToUndo)
	_, err = f.core.Redo(context.Background(), testActor)
	assert.ErrorIs(t, err, domain.ErrNothingToRedo)
}

func TestUndo_Deposit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "ACC1", "500")

	original, err := f.core.ProcessDeposit(ctx, "ACC1", dec("10000"), "salary", testActor)
	require.NoError(t, err)
	require.True(t, dec("10500").Equal(f.balance(t, "ACC1")))

	reversal, err := f.core.Undo(ctx, "SUPERVISOR")
	require.NoError(t, err)

	assert.True(t, dec("500").Equal(f.balance(t, "ACC1")))
	assert.Equal(t, domain.TransactionStatusReversed, f.transaction(t, original.ID).Status)
	assert.NotNil(t, f.transaction(t, original.ID).ReversedAt)

	assert.NotEqual(t, original.ID, reversal.ID)
	assert.Equal(t, domain.TransactionTypeWithdraw, reversal.Type)
	assert.Equal(t, domain.TransactionStatusCompleted, reversal.Status)
	assert.Equal(t, "ACC1", reversal.SourceAccount)
	assert.True(t, dec("10000").Equal(reversal.Amount))
	assert.Equal(t, "SUPERVISOR", reversal.PerformedBy)
	require.NotNil(t, reversal.ReversalOf)
	assert.Equal(t, original.ID, *reversal.ReversalOf)
	assert.Equal(t, domain.TransactionStatusCompleted, f.transaction(t, reversal.ID).Status)

	entries := f.audit.Entries()
	assert.Equal(t, "UNDO_DEPOSIT", entries[len(entries)-1].Operation)
	assert.False(t, f.core.History().CanUndo())
	assert.True(t, f.core.History().CanRedo())
	f.requireBalanced(t, "ACC1")
}

func TestUndoRedo_Transfer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "A", "50000")
	f.openAccount(t, "B", "20000")

	original, err := f.core.ProcessTransfer(ctx, "A", "B", dec("15000"), "", testActor)
	require.NoError(t, err)

	reversal, err := f.core.Undo(ctx, testActor)
	require.NoError(t, err)
	assert.True(t, dec("50000").Equal(f.balance(t, "A")))
	assert.True(t, dec("20000").Equal(f.balance(t, "B")))
	assert.Equal(t, domain.TransactionTypeTransfer, reversal.Type)
	assert.Equal(t, "B", reversal.SourceAccount)
	assert.Equal(t, "A", reversal.DestinationAccount)
	assert.Equal(t, domain.TransactionStatusReversed, f.transaction(t, original.ID).Status)

	redone, err := f.core.Redo(ctx, testActor)
	require.NoError(t, err)
	assert.True(t, dec("35000").Equal(f.balance(t, "A")))
	assert.True(t, dec("35000").Equal(f.balance(t, "B")))
	assert.Equal(t, "A", redone.SourceAccount)
	assert.Equal(t, "B", redone.DestinationAccount)
	require.NotNil(t, redone.ReversalOf)
	assert.Equal(t, reversal.ID, *redone.ReversalOf)
	assert.Equal(t, domain.TransactionStatusReversed, f.transaction(t, reversal.ID).Status)

	entries := f.audit.Entries()
	assert.Equal(t, "REDO_TRANSFER", entries[len(entries)-1].Operation)

	// redo 後可以再次 undo
	_, err = f.core.Undo(ctx, testActor)
	require.NoError(t, err)
	assert.True(t, dec("50000").Equal(f.balance(t, "A")))
	assert.Equal(t, domain.TransactionStatusReversed, f.transaction(t, redone.ID).Status)
	f.requireBalanced(t, "A", "B")
}

func TestUndo_Withdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "ACC1", "100")

	_, err := f.core.ProcessWithdraw(ctx, "ACC1", dec("100"), "", testActor)
	require.NoError(t, err)
	require.True(t, f.balance(t, "ACC1").IsZero())

	reversal, err := f.core.Undo(ctx, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeDeposit, reversal.Type)
	assert.True(t, dec("100").Equal(f.balance(t, "ACC1")))
}

func TestUndo_MostRecentFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "ACC1", "0")

	first, err := f.core.ProcessDeposit(ctx, "ACC1", dec("100"), "", testActor)
	require.NoError(t, err)
	second, err := f.core.ProcessDeposit(ctx, "ACC1", dec("7"), "", testActor)
	require.NoError(t, err)

	_, err = f.core.Undo(ctx, testActor)
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(f.balance(t, "ACC1")))
	assert.Equal(t, domain.TransactionStatusReversed, f.transaction(t, second.ID).Status)
	assert.Equal(t, domain.TransactionStatusCompleted, f.transaction(t, first.ID).Status)
}

func TestUndo_InsufficientBalanceLeavesStacks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "ACC1", "0")

	// 另一個櫃員共用相同的儲存，但有自己的歷史
	other := usecase.NewCoreUseCase(f.accounts, f.transactions, f.audit)

	original, err := f.core.ProcessDeposit(ctx, "ACC1", dec("100"), "", testActor)
	require.NoError(t, err)
	_, err = other.ProcessWithdraw(ctx, "ACC1", dec("80"), "", "OTHER_TELLER")
	require.NoError(t, err)

	_, err = f.core.Undo(ctx, testActor)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.True(t, dec("20").Equal(f.balance(t, "ACC1")))
	assert.Equal(t, domain.TransactionStatusCompleted, f.transaction(t, original.ID).Status)
	undo, redo := f.core.History().Len()
	assert.Equal(t, 1, undo)
	assert.Equal(t, 0, redo)
}

func TestUndo_MarkReversedFailsLeavesState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "ACC1", "0")

	original, err := f.core.ProcessDeposit(ctx, "ACC1", dec("100"), "", testActor)
	require.NoError(t, err)
	before := f.transactions.Len()

	f.transactions.setFailSave(true)
	_, err = f.core.Undo(ctx, testActor)
	f.transactions.setFailSave(false)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)

	assert.True(t, dec("100").Equal(f.balance(t, "ACC1")))
	assert.Equal(t, domain.TransactionStatusCompleted, f.transaction(t, original.ID).Status)
	assert.Equal(t, before, f.transactions.Len())
	assert.True(t, f.core.History().CanUndo())
}

func TestUndo_AccountSaveFailsRestoresOriginalStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "ACC1", "0")

	original, err := f.core.ProcessDeposit(ctx, "ACC1", dec("100"), "", testActor)
	require.NoError(t, err)

	f.accounts.failNextSave(1)
	_, err = f.core.Undo(ctx, testActor)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)

	assert.True(t, dec("100").Equal(f.balance(t, "ACC1")))
	assert.Equal(t, domain.TransactionStatusCompleted, f.transaction(t, original.ID).Status)
	assert.True(t, f.core.History().CanUndo())
	f.requireBalanced(t, "ACC1")

	// 之後可以正常 undo
	_, err = f.core.Undo(ctx, testActor)
	require.NoError(t, err)
	assert.True(t, f.balance(t, "ACC1").IsZero())
}

func TestNewOperationClearsRedo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "ACC1", "0")

	_, err := f.core.ProcessDeposit(ctx, "ACC1", dec("10"), "", testActor)
	require.NoError(t, err)
	_, err = f.core.Undo(ctx, testActor)
	require.NoError(t, err)
	_, err = f.core.ProcessDeposit(ctx, "ACC1", dec("5"), "", testActor)
	require.NoError(t, err)

	_, err = f.core.Redo(ctx, testActor)
	assert.ErrorIs(t, err, domain.ErrNothingToRedo)
	assert.True(t, dec("5").Equal(f.balance(t, "ACC1")))
}
