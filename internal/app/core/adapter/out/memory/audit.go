package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/usecase"
	"github.com/JoeShih716/go-ledger-core/pkg/wal"
)

// AuditLog 記憶體稽核紀錄，可選擇同時寫入 WAL
type AuditLog struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
	wal     *wal.WAL
}

// NewAuditLog 建立稽核紀錄，w 為 nil 表示只存在記憶體
func NewAuditLog(w *wal.WAL) (*AuditLog, error) {
	log := &AuditLog{
		entries: make([]domain.AuditEntry, 0),
		wal:     w,
	}
	if w != nil {
		err := w.ReadAll(func(jsonRaw []byte) error {
			var entry domain.AuditEntry
			if err := json.Unmarshal(jsonRaw, &entry); err != nil {
				return err
			}
			log.entries = append(log.entries, entry)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return log, nil
}

// Record 寫入一筆稽核紀錄
func (l *AuditLog) Record(ctx context.Context, entry domain.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.wal != nil {
		if err := l.wal.Write(entry); err != nil {
			return err
		}
	}
	l.entries = append(l.entries, entry)
	return nil
}

// Entries 回傳所有稽核紀錄 (依寫入順序)
func (l *AuditLog) Entries() []domain.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

var _ usecase.AuditService = (*AuditLog)(nil)
