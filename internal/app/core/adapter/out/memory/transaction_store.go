package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/usecase"
	"github.com/JoeShih716/go-ledger-core/pkg/wal"
)

// TransactionStore 記憶體交易儲存
// 以 ID 覆寫只會更新內容，不會改變原本的排列順序
type TransactionStore struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
	// order: 依第一次寫入的順序
	order []uuid.UUID
	wal   *wal.WAL
}

// NewTransactionStore 建立記憶體交易儲存，w 為 nil 表示不落地
func NewTransactionStore(w *wal.WAL) (*TransactionStore, error) {
	store := &TransactionStore{
		transactions: make(map[uuid.UUID]*domain.Transaction),
		order:        make([]uuid.UUID, 0),
		wal:          w,
	}
	if w != nil {
		err := w.ReadAll(func(jsonRaw []byte) error {
			var tran domain.Transaction
			if err := json.Unmarshal(jsonRaw, &tran); err != nil {
				return err
			}
			store.put(&tran)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (s *TransactionStore) put(tran *domain.Transaction) {
	if _, ok := s.transactions[tran.ID]; !ok {
		s.order = append(s.order, tran.ID)
	}
	s.transactions[tran.ID] = tran
}

// Save 新增交易或以相同 ID 覆寫
func (s *TransactionStore) Save(ctx context.Context, tran *domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wal != nil {
		if err := s.wal.Write(tran); err != nil {
			return nil, err
		}
	}
	s.put(tran.Clone())
	return tran.Clone(), nil
}

// FindByID 查詢交易
func (s *TransactionStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tran, ok := s.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return tran.Clone(), nil
}

// ListByAccount 回傳涉及該帳號的交易
func (s *TransactionStore) ListByAccount(ctx context.Context, accountNumber string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Transaction, 0)
	for _, id := range s.order {
		tran := s.transactions[id]
		if tran.Touches(accountNumber) {
			out = append(out, tran.Clone())
		}
	}
	return out, nil
}

// MaxSequence 目前最大的交易序號，重啟時用來接續
func (s *TransactionStore) MaxSequence() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var maxSeq uint64
	for _, tran := range s.transactions {
		if tran.Sequence > maxSeq {
			maxSeq = tran.Sequence
		}
	}
	return maxSeq
}

// Len 交易筆數
func (s *TransactionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

var _ usecase.TransactionStore = (*TransactionStore)(nil)
