package domain

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Command 可復原的帳務操作，以資料表示 (不是 closure)，方便記錄與序列化
type Command struct {
	Type        TransactionType `json:"type"`
	Source      string          `json:"source,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	// TransactionID: 執行此操作所產生的交易
	TransactionID uuid.UUID `json:"transaction_id"`
}

// CommandFromTransaction 由已完成的交易建立對應的 Command
func CommandFromTransaction(tran *Transaction) Command {
	return Command{
		Type:          tran.Type,
		Source:        tran.SourceAccount,
		Destination:   tran.DestinationAccount,
		Amount:        tran.Amount,
		TransactionID: tran.ID,
	}
}

// Inverse 回傳反向操作：存款 <-> 提款，轉帳則對調兩端
// 反向操作尚未執行，因此不帶 TransactionID
func (c Command) Inverse() Command {
	inv := Command{Amount: c.Amount}
	switch c.Type {
	case TransactionTypeDeposit:
		inv.Type = TransactionTypeWithdraw
		inv.Source = c.Destination
	case TransactionTypeWithdraw:
		inv.Type = TransactionTypeDeposit
		inv.Destination = c.Source
	case TransactionTypeTransfer:
		inv.Type = TransactionTypeTransfer
		inv.Source = c.Destination
		inv.Destination = c.Source
	}
	return inv
}

// LockKeys 回傳需要鎖定的帳號 (已排序)
func (c Command) LockKeys() []string {
	return sortedKeys(c.Source, c.Destination)
}

// sortedKeys 去除空值與重複後排序
func sortedKeys(keys ...string) []string {
	ids := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids
}
