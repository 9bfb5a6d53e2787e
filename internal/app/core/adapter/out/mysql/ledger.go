package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/usecase"
	"github.com/JoeShih716/go-ledger-core/pkg/mysql"
)

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID            []byte          `gorm:"column:id;type:binary(16);primaryKey"`
	AccountNumber string          `gorm:"column:account_number;size:64;uniqueIndex"`
	OwnerID       string          `gorm:"column:owner_id;size:64;index"`
	Type          string          `gorm:"column:type;size:16"`
	Balance       decimal.Decimal `gorm:"column:balance;type:decimal(65,18)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

// sqlTransaction 對應資料庫的 transactions 表
type sqlTransaction struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement"`
	RefID              []byte          `gorm:"column:ref_id;type:binary(16);uniqueIndex"` // 對應 domain.Transaction.ID
	Sequence           uint64          `gorm:"index"`
	Type               uint8           `gorm:"column:type"`
	Amount             decimal.Decimal `gorm:"column:amount;type:decimal(65,18)"`
	SourceAccount      string          `gorm:"column:source_account;size:64;index"`
	DestinationAccount string          `gorm:"column:destination_account;size:64;index"`
	Description        string          `gorm:"column:description;size:255"`
	Status             string          `gorm:"column:status;size:16"`
	PerformedBy        string          `gorm:"column:performed_by;size:64"`
	ReversalOf         []byte          `gorm:"column:reversal_of;type:binary(16)"`
	CreatedAt          time.Time
	CompletedAt        *time.Time
	ReversedAt         *time.Time
}

func (*sqlTransaction) TableName() string {
	return "transactions"
}

// sqlAudit 對應資料庫的 audit_logs 表
type sqlAudit struct {
	ID            []byte          `gorm:"column:id;type:binary(16);primaryKey"`
	ActorID       string          `gorm:"column:actor_id;size:64;index"`
	Operation     string          `gorm:"column:operation;size:32"`
	Accounts      string          `gorm:"column:accounts;type:json"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(65,18)"`
	TransactionID []byte          `gorm:"column:transaction_id;type:binary(16);index"`
	Timestamp     time.Time       `gorm:"column:timestamp"`
}

func (*sqlAudit) TableName() string {
	return "audit_logs"
}

// MySQLLedger 以 GORM 實作 AccountStore、TransactionStore 與 AuditService
type MySQLLedger struct {
	client *mysql.Client
}

func NewMySQLLedger(client *mysql.Client) *MySQLLedger {
	return &MySQLLedger{
		client: client,
	}
}

// AutoMigrate 建立 / 更新資料表
func (ledger *MySQLLedger) AutoMigrate(ctx context.Context) error {
	return ledger.client.DB().WithContext(ctx).AutoMigrate(&sqlAccount{}, &sqlTransaction{}, &sqlAudit{})
}

// FindByAccountNumber 以帳號查詢帳戶
func (ledger *MySQLLedger) FindByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	var row sqlAccount
	err := ledger.client.DB().WithContext(ctx).Where("account_number = ?", accountNumber).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return row.toDomain()
}

// Save 新增或更新帳戶 (以 id 為 key upsert)
func (ledger *MySQLLedger) Save(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	row := accountToRow(account)
	err := ledger.client.DB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return account.Clone(), nil
}

// LoadAllAccounts 載入所有帳戶
func (ledger *MySQLLedger) LoadAllAccounts(ctx context.Context) (map[string]*domain.Account, error) {
	var rows []sqlAccount
	if err := ledger.client.DB().WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]*domain.Account, len(rows))
	for i := range rows {
		account, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out[account.AccountNumber] = account
	}
	return out, nil
}

// transactionStore 讓 MySQLLedger 以 TransactionStore 的身分使用 (Save 名稱衝突)
type transactionStore struct {
	ledger *MySQLLedger
}

// Transactions 回傳 TransactionStore
func (ledger *MySQLLedger) Transactions() usecase.TransactionStore {
	return &transactionStore{ledger: ledger}
}

// Save 新增交易，ref_id 已存在時只更新狀態相關欄位
func (s *transactionStore) Save(ctx context.Context, tran *domain.Transaction) (*domain.Transaction, error) {
	row := transactionToRow(tran)
	err := s.ledger.client.DB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ref_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "completed_at", "reversed_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return tran.Clone(), nil
}

// FindByID 以交易 UUID 查詢
func (s *transactionStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var row sqlTransaction
	err := s.ledger.client.DB().WithContext(ctx).Where("ref_id = ?", id[:]).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return row.toDomain()
}

// ListByAccount 依寫入順序 (自增 id) 回傳涉及該帳號的交易
func (s *transactionStore) ListByAccount(ctx context.Context, accountNumber string) ([]*domain.Transaction, error) {
	var rows []sqlTransaction
	err := s.ledger.client.DB().WithContext(ctx).
		Where("source_account = ? OR destination_account = ?", accountNumber, accountNumber).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		tran, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, tran)
	}
	return out, nil
}

// MaxSequence 目前最大的交易序號
func (ledger *MySQLLedger) MaxSequence(ctx context.Context) (uint64, error) {
	var seq uint64
	err := ledger.client.DB().WithContext(ctx).Model(&sqlTransaction{}).
		Select("COALESCE(MAX(sequence), 0)").Scan(&seq).Error
	return seq, err
}

// auditService 讓 MySQLLedger 以 AuditService 的身分使用
type auditService struct {
	ledger *MySQLLedger
}

// Audit 回傳 AuditService
func (ledger *MySQLLedger) Audit() usecase.AuditService {
	return &auditService{ledger: ledger}
}

// Record 寫入 audit_logs
func (a *auditService) Record(ctx context.Context, entry domain.AuditEntry) error {
	row, err := auditToRow(entry)
	if err != nil {
		return err
	}
	return a.ledger.client.DB().WithContext(ctx).Create(&row).Error
}

func accountToRow(a *domain.Account) sqlAccount {
	return sqlAccount{
		ID:            a.ID[:],
		AccountNumber: a.AccountNumber,
		OwnerID:       a.OwnerID,
		Type:          string(a.Type),
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (row *sqlAccount) toDomain() (*domain.Account, error) {
	id, err := uuid.FromBytes(row.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Account{
		ID:            id,
		AccountNumber: row.AccountNumber,
		OwnerID:       row.OwnerID,
		Type:          domain.AccountType(row.Type),
		Balance:       row.Balance,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func transactionToRow(t *domain.Transaction) sqlTransaction {
	row := sqlTransaction{
		RefID:              t.ID[:],
		Sequence:           t.Sequence,
		Type:               uint8(t.Type),
		Amount:             t.Amount,
		SourceAccount:      t.SourceAccount,
		DestinationAccount: t.DestinationAccount,
		Description:        t.Description,
		Status:             string(t.Status),
		PerformedBy:        t.PerformedBy,
		CreatedAt:          t.CreatedAt,
		CompletedAt:        t.CompletedAt,
		ReversedAt:         t.ReversedAt,
	}
	if t.ReversalOf != nil {
		row.ReversalOf = t.ReversalOf[:]
	}
	return row
}

func (row *sqlTransaction) toDomain() (*domain.Transaction, error) {
	id, err := uuid.FromBytes(row.RefID)
	if err != nil {
		return nil, err
	}
	tran := &domain.Transaction{
		Sequence:           row.Sequence,
		ID:                 id,
		Type:               domain.TransactionType(row.Type),
		Amount:             row.Amount,
		SourceAccount:      row.SourceAccount,
		DestinationAccount: row.DestinationAccount,
		Description:        row.Description,
		Status:             domain.TransactionStatus(row.Status),
		PerformedBy:        row.PerformedBy,
		CreatedAt:          row.CreatedAt,
		CompletedAt:        row.CompletedAt,
		ReversedAt:         row.ReversedAt,
	}
	if len(row.ReversalOf) > 0 {
		reversalOf, err := uuid.FromBytes(row.ReversalOf)
		if err != nil {
			return nil, err
		}
		tran.ReversalOf = &reversalOf
	}
	return tran, nil
}

func auditToRow(entry domain.AuditEntry) (sqlAudit, error) {
	accounts, err := json.Marshal(entry.AccountNumbers)
	if err != nil {
		return sqlAudit{}, err
	}
	return sqlAudit{
		ID:            entry.ID[:],
		ActorID:       entry.ActorID,
		Operation:     entry.Operation,
		Accounts:      string(accounts),
		Amount:        entry.Amount,
		TransactionID: entry.TransactionID[:],
		Timestamp:     entry.Timestamp,
	}, nil
}

var (
	_ usecase.AccountStore     = (*MySQLLedger)(nil)
	_ usecase.TransactionStore = (*transactionStore)(nil)
	_ usecase.AuditService     = (*auditService)(nil)
)
