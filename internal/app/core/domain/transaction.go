package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType 交易類型
type TransactionType uint8

const (
	// 存款
	TransactionTypeDeposit TransactionType = 1
	// 提款
	TransactionTypeWithdraw TransactionType = 2
	// 轉帳
	TransactionTypeTransfer TransactionType = 3
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeDeposit:
		return "DEPOSIT"
	case TransactionTypeWithdraw:
		return "WITHDRAW"
	case TransactionTypeTransfer:
		return "TRANSFER"
	default:
		return "UNKNOWN"
	}
}

// TransactionStatus 交易狀態
//
//	PENDING -> COMPLETED -> REVERSED
//	PENDING -> FAILED
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusReversed  TransactionStatus = "REVERSED"
)

// Transaction 交易紀錄
//
// 建立後除了 Status (以及對應的時間欄位) 之外皆不可變。
type Transaction struct {
	// Sequence: 由核心分配的遞增序號，用於排序歷史紀錄
	Sequence uint64 `json:"sequence"`
	// ID: 交易 UUID
	ID   uuid.UUID       `json:"id"`
	Type TransactionType `json:"type"`
	// Amount: 金額 (> 0)
	Amount decimal.Decimal `json:"amount"`
	// SourceAccount: 提款 / 轉帳的扣款帳號
	SourceAccount string `json:"source_account,omitempty"`
	// DestinationAccount: 存款 / 轉帳的入帳帳號
	DestinationAccount string            `json:"destination_account,omitempty"`
	Description        string            `json:"description,omitempty"`
	Status             TransactionStatus `json:"status"`
	PerformedBy        string            `json:"performed_by"`
	// ReversalOf: 若為沖正交易，指向被沖正的原交易
	ReversalOf  *uuid.UUID `json:"reversal_of,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ReversedAt  *time.Time `json:"reversed_at,omitempty"`
}

// NewTransaction 建立一筆 PENDING 交易
//
// 參數:
//
//	txType: 交易類型
//	source: 扣款帳號 (存款時為空)
//	destination: 入帳帳號 (提款時為空)
//	amount: 金額
//	description: 備註
//	performedBy: 操作者
//
// 回傳:
//
//	*Transaction: 新交易
//	error: 金額或帳號組合不合法
func NewTransaction(txType TransactionType, source, destination string, amount decimal.Decimal, description, performedBy string) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	switch txType {
	case TransactionTypeDeposit:
		if destination == "" {
			return nil, ErrDestinationAccountNotFound
		}
		source = ""
	case TransactionTypeWithdraw:
		if source == "" {
			return nil, ErrSourceAccountNotFound
		}
		destination = ""
	case TransactionTypeTransfer:
		if source == "" {
			return nil, ErrSourceAccountNotFound
		}
		if destination == "" {
			return nil, ErrDestinationAccountNotFound
		}
		if source == destination {
			return nil, ErrSameAccountTransfer
		}
	default:
		return nil, ErrInvalidTransactionType
	}

	return &Transaction{
		ID:                 uuid.New(),
		Type:               txType,
		Amount:             amount,
		SourceAccount:      source,
		DestinationAccount: destination,
		Description:        description,
		Status:             TransactionStatusPending,
		PerformedBy:        performedBy,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

// Complete PENDING -> COMPLETED
func (t *Transaction) Complete() error {
	if t.Status != TransactionStatusPending {
		return ErrInvalidStatusTransition
	}
	now := time.Now().UTC()
	t.Status = TransactionStatusCompleted
	t.CompletedAt = &now
	return nil
}

// Fail PENDING -> FAILED
func (t *Transaction) Fail() error {
	if t.Status != TransactionStatusPending {
		return ErrInvalidStatusTransition
	}
	t.Status = TransactionStatusFailed
	return nil
}

// MarkReversed COMPLETED -> REVERSED，只有 undo 流程會呼叫
func (t *Transaction) MarkReversed() error {
	if t.Status != TransactionStatusCompleted {
		return ErrInvalidStatusTransition
	}
	now := time.Now().UTC()
	t.Status = TransactionStatusReversed
	t.ReversedAt = &now
	return nil
}

// Touches 是否涉及指定帳號
func (t *Transaction) Touches(accountNumber string) bool {
	return t.SourceAccount == accountNumber || t.DestinationAccount == accountNumber
}

// SignedAmount 回傳此交易對指定帳號餘額的影響 (入帳為正、扣款為負)
func (t *Transaction) SignedAmount(accountNumber string) decimal.Decimal {
	delta := decimal.Zero
	if t.DestinationAccount == accountNumber {
		delta = delta.Add(t.Amount)
	}
	if t.SourceAccount == accountNumber {
		delta = delta.Sub(t.Amount)
	}
	return delta
}

// Clone 複製交易 (指標欄位一併複製)
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.ReversalOf != nil {
		id := *t.ReversalOf
		c.ReversalOf = &id
	}
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		c.CompletedAt = &ts
	}
	if t.ReversedAt != nil {
		ts := *t.ReversedAt
		c.ReversedAt = &ts
	}
	return &c
}
