package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/usecase"
	"github.com/JoeShih716/go-ledger-core/pkg/wal"
)

// AccountStore 記憶體帳戶儲存
//
// 結構:
//
//	accounts: 帳號 -> 帳戶
//	mu: 保護 accounts
//	wal: 選用，每次 Save 寫入帳戶快照，啟動時重放
type AccountStore struct {
	accounts map[string]*domain.Account
	mu       sync.RWMutex
	wal      *wal.WAL
}

// NewAccountStore 建立記憶體帳戶儲存
//
// 參數:
//
//	w: Write-Ahead Log 實例，nil 表示不落地
//
// 回傳:
//
//	*AccountStore: 實例
//	error: WAL 恢復失敗
func NewAccountStore(w *wal.WAL) (*AccountStore, error) {
	store := &AccountStore{
		accounts: make(map[string]*domain.Account),
		wal:      w,
	}
	if err := store.recoverFromWAL(); err != nil {
		return nil, err
	}
	return store, nil
}

// recoverFromWAL 重放帳戶快照，同一帳號以最後一筆為準
// 只有 NewAccountStore 呼叫，無需 Lock (單執行緒)
func (s *AccountStore) recoverFromWAL() error {
	if s.wal == nil {
		return nil
	}
	return s.wal.ReadAll(func(jsonRaw []byte) error {
		var account domain.Account
		if err := json.Unmarshal(jsonRaw, &account); err != nil {
			return err
		}
		s.accounts[account.AccountNumber] = &account
		return nil
	})
}

// FindByAccountNumber 以帳號查詢，回傳副本
func (s *AccountStore) FindByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountNumber]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account.Clone(), nil
}

// Save 新增或更新帳戶 (先寫 WAL 再更新記憶體)
func (s *AccountStore) Save(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wal != nil {
		if err := s.wal.Write(account); err != nil {
			return nil, err
		}
	}
	s.accounts[account.AccountNumber] = account.Clone()
	return account.Clone(), nil
}

// LoadAllAccounts 回傳所有帳戶的副本
func (s *AccountStore) LoadAllAccounts(ctx context.Context) (map[string]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*domain.Account, len(s.accounts))
	for k, v := range s.accounts {
		out[k] = v.Clone()
	}
	return out, nil
}

var _ usecase.AccountStore = (*AccountStore)(nil)
