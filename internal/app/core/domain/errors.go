package domain

import "errors"

var (
	// ErrInvalidAmount 金額必須為正數
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientBalance 餘額不足
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrSourceAccountNotFound 找不到轉出帳戶
	ErrSourceAccountNotFound = errors.New("source account not found")

	// ErrDestinationAccountNotFound 找不到轉入帳戶
	ErrDestinationAccountNotFound = errors.New("destination account not found")

	// ErrSameAccountTransfer 轉出與轉入為同一帳戶
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")

	// ErrNothingToUndo 沒有可復原的操作
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo 沒有可重做的操作
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrPersistenceFailure 外部儲存失敗
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrAccountAlreadyExists 帳戶已存在
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrInvalidAccountNumber 帳號不可為空
	ErrInvalidAccountNumber = errors.New("invalid account number")

	// ErrInvalidAccountType 帳戶類型錯誤
	ErrInvalidAccountType = errors.New("invalid account type")

	// ErrInvalidTransactionType 交易類型錯誤
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrTransactionNotFound 找不到交易
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidStatusTransition 交易狀態不允許此轉換
	ErrInvalidStatusTransition = errors.New("invalid transaction status transition")
)
