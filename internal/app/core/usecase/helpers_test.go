package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/usecase"
)

const testActor = "TEST_USER"

var errStoreDown = errors.New("store down")

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// callLog 記錄外部呼叫順序
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

// accountStore 包一層 memory.AccountStore，可指定第幾次 Save 失敗
type accountStore struct {
	*memory.AccountStore
	log *callLog

	mu       sync.Mutex
	saves    int
	failSave map[int]bool
	failFind bool
}

func (s *accountStore) FindByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	s.mu.Lock()
	fail := s.failFind
	s.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	return s.AccountStore.FindByAccountNumber(ctx, accountNumber)
}

func (s *accountStore) Save(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	s.mu.Lock()
	s.saves++
	fail := s.failSave[s.saves]
	s.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	s.log.add("account.save:" + account.AccountNumber)
	return s.AccountStore.Save(ctx, account)
}

// failNextSave 讓接下來第 n 次 Save 失敗 (1 = 下一次)
func (s *accountStore) failNextSave(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave == nil {
		s.failSave = make(map[int]bool)
	}
	s.failSave[s.saves+n] = true
}

type transactionStore struct {
	*memory.TransactionStore
	log *callLog

	mu       sync.Mutex
	failSave bool
}

func (s *transactionStore) Save(ctx context.Context, tran *domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	fail := s.failSave
	s.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	s.log.add("transaction.save:" + string(tran.Status))
	return s.TransactionStore.Save(ctx, tran)
}

func (s *transactionStore) setFailSave(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = fail
}

type auditService struct {
	*memory.AuditLog
	log  *callLog
	fail bool
}

func (a *auditService) Record(ctx context.Context, entry domain.AuditEntry) error {
	a.log.add("audit:" + entry.Operation)
	if a.fail {
		return errStoreDown
	}
	return a.AuditLog.Record(ctx, entry)
}

type fixture struct {
	core         *usecase.CoreUseCase
	accounts     *accountStore
	transactions *transactionStore
	audit        *auditService
	log          *callLog
}

func newFixture(t *testing.T, opts ...usecase.Option) *fixture {
	t.Helper()
	accounts, err := memory.NewAccountStore(nil)
	require.NoError(t, err)
	transactions, err := memory.NewTransactionStore(nil)
	require.NoError(t, err)
	audit, err := memory.NewAuditLog(nil)
	require.NoError(t, err)

	f := &fixture{
		accounts:     &accountStore{AccountStore: accounts},
		transactions: &transactionStore{TransactionStore: transactions},
		audit:        &auditService{AuditLog: audit},
	}
	f.core = usecase.NewCoreUseCase(f.accounts, f.transactions, f.audit, opts...)
	return f
}

// withCallLog 開始記錄外部呼叫順序
func (f *fixture) withCallLog() *callLog {
	f.log = &callLog{}
	f.accounts.log = f.log
	f.transactions.log = f.log
	f.audit.log = f.log
	return f.log
}

// openAccount 開戶並存入初始金額 (不留在 undo 歷史)
func (f *fixture) openAccount(t *testing.T, number string, initial string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.core.OpenAccount(ctx, number, "owner-"+number, domain.AccountTypeSavings, testActor)
	require.NoError(t, err)
	if amount := dec(initial); amount.IsPositive() {
		_, err = f.core.ProcessDeposit(ctx, number, amount, "initial", testActor)
		require.NoError(t, err)
		f.core.History().Clear()
	}
}

func (f *fixture) balance(t *testing.T, number string) decimal.Decimal {
	t.Helper()
	b, err := f.core.GetBalance(context.Background(), number)
	require.NoError(t, err)
	return b
}

func (f *fixture) transaction(t *testing.T, id uuid.UUID) *domain.Transaction {
	t.Helper()
	tran, err := f.transactions.FindByID(context.Background(), id)
	require.NoError(t, err)
	return tran
}

func (f *fixture) requireBalanced(t *testing.T, numbers ...string) {
	t.Helper()
	for _, n := range numbers {
		report, err := f.core.Reconcile(context.Background(), n)
		require.NoError(t, err)
		require.Truef(t, report.Balanced, "account %s: expected %s actual %s", n, report.Expected, report.Actual)
	}
}
