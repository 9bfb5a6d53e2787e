package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType 帳戶類型
type AccountType string

const (
	// 儲蓄帳戶
	AccountTypeSavings AccountType = "SAVINGS"
	// 活存帳戶
	AccountTypeCurrent AccountType = "CURRENT"
)

// Valid 檢查帳戶類型是否合法
func (t AccountType) Valid() bool {
	return t == AccountTypeSavings || t == AccountTypeCurrent
}

// ParseAccountType 解析帳戶類型 (不分大小寫)
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidAccountType
	}
	return t, nil
}

// Account 帳戶
//
// Balance 只能透過 Deposit / Withdraw 變動，任何時刻皆 >= 0。
// 同一帳戶的並發存取由呼叫端持有的帳戶鎖保護 (見 lockset)。
type Account struct {
	ID            uuid.UUID       `json:"id"`
	AccountNumber string          `json:"account_number"`
	OwnerID       string          `json:"owner_id"`
	Type          AccountType     `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewAccount 建立新帳戶，初始餘額為 0
//
// 參數:
//
//	accountNumber: 對外帳號 (建立後不可變)
//	ownerID: 擁有者 ID
//	accountType: 帳戶類型
//
// 回傳:
//
//	*Account: 新帳戶
//	error: 帳號為空或類型錯誤
func NewAccount(accountNumber, ownerID string, accountType AccountType) (*Account, error) {
	if strings.TrimSpace(accountNumber) == "" {
		return nil, ErrInvalidAccountNumber
	}
	if !accountType.Valid() {
		return nil, ErrInvalidAccountType
	}
	now := time.Now().UTC()
	return &Account{
		ID:            uuid.New(),
		AccountNumber: accountNumber,
		OwnerID:       ownerID,
		Type:          accountType,
		Balance:       decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Deposit 存款
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Withdraw 提款
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}

	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Clone 複製帳戶，儲存層回傳副本避免呼叫端直接改到內部狀態
func (a *Account) Clone() *Account {
	c := *a
	return &c
}
