package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 稽核操作類型 (除了交易類型之外的部分)
const (
	AuditOperationUndoPrefix  = "UNDO_"
	AuditOperationRedoPrefix  = "REDO_"
	AuditOperationOpenAccount = "OPEN_ACCOUNT"
)

// AuditEntry 稽核紀錄：誰、在何時、做了什麼
type AuditEntry struct {
	ID             uuid.UUID       `json:"id"`
	ActorID        string          `json:"actor_id"`
	Operation      string          `json:"operation"`
	AccountNumbers []string        `json:"account_numbers"`
	Amount         decimal.Decimal `json:"amount"`
	TransactionID  uuid.UUID       `json:"transaction_id"`
	Timestamp      time.Time       `json:"timestamp"`
}

// NewAuditEntry 由交易建立稽核紀錄，operation 為空時使用交易類型
func NewAuditEntry(actorID, operation string, tran *Transaction) AuditEntry {
	if operation == "" {
		operation = tran.Type.String()
	}
	accounts := make([]string, 0, 2)
	if tran.SourceAccount != "" {
		accounts = append(accounts, tran.SourceAccount)
	}
	if tran.DestinationAccount != "" {
		accounts = append(accounts, tran.DestinationAccount)
	}
	return AuditEntry{
		ID:             uuid.New(),
		ActorID:        actorID,
		Operation:      operation,
		AccountNumbers: accounts,
		Amount:         tran.Amount,
		TransactionID:  tran.ID,
		Timestamp:      time.Now().UTC(),
	}
}
