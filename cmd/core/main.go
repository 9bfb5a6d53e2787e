package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/adapter/in/console"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/adapter/out/logaudit"
	memory_adapter "github.com/JoeShih716/go-ledger-core/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-ledger-core/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/config"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/history"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/usecase"
	"github.com/JoeShih716/go-ledger-core/pkg/mysql"
	"github.com/JoeShih716/go-ledger-core/pkg/wal"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	actor := flag.String("actor", "operator", "actor id recorded on every operation")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化 logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, *actor, logger); err != nil {
		logger.Error("ledger core exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, actor string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("close failed", zap.Error(err))
			}
		}
	}()
	// openWAL 開啟 WAL (含上層目錄) 並在結束時關閉
	openWAL := func(path string) (*wal.WAL, error) {
		w, err := wal.NewWAL(path)
		if err != nil {
			return nil, fmt.Errorf("open wal %s: %w", path, err)
		}
		closers = append(closers, w.Close)
		return w, nil
	}

	// 3. 初始化儲存層
	var (
		accounts     usecase.AccountStore
		transactions usecase.TransactionStore
		sqlLedger    *mysql_adapter.MySQLLedger
		sequence     uint64
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMySQL:
		dbClient, err := mysql.NewClient(cfg.MySQL, logger)
		if err != nil {
			return fmt.Errorf("connect mysql: %w", err)
		}
		closers = append(closers, dbClient.Close)
		logger.Info("connected to mysql", zap.String("host", cfg.MySQL.Host), zap.String("db", cfg.MySQL.DBName))

		sqlLedger = mysql_adapter.NewMySQLLedger(dbClient)
		if err := sqlLedger.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		loaded, err := sqlLedger.LoadAllAccounts(ctx)
		if err != nil {
			return fmt.Errorf("load accounts: %w", err)
		}
		logger.Info("loaded accounts", zap.Int("count", len(loaded)))
		if sequence, err = sqlLedger.MaxSequence(ctx); err != nil {
			return fmt.Errorf("load sequence: %w", err)
		}
		accounts, transactions = sqlLedger, sqlLedger.Transactions()
	default:
		var (
			accountWAL, transactionWAL *wal.WAL
			err                        error
		)
		if cfg.Store.WALDir != "" {
			if accountWAL, err = openWAL(filepath.Join(cfg.Store.WALDir, "accounts.wal")); err != nil {
				return err
			}
			if transactionWAL, err = openWAL(filepath.Join(cfg.Store.WALDir, "transactions.wal")); err != nil {
				return err
			}
		}
		accountStore, err := memory_adapter.NewAccountStore(accountWAL)
		if err != nil {
			return fmt.Errorf("recover accounts: %w", err)
		}
		transactionStore, err := memory_adapter.NewTransactionStore(transactionWAL)
		if err != nil {
			return fmt.Errorf("recover transactions: %w", err)
		}
		loaded, err := accountStore.LoadAllAccounts(ctx)
		if err != nil {
			return err
		}
		logger.Info("memory store ready",
			zap.String("wal_dir", cfg.Store.WALDir),
			zap.Int("accounts", len(loaded)),
			zap.Int("transactions", transactionStore.Len()),
		)
		sequence = transactionStore.MaxSequence()
		accounts, transactions = accountStore, transactionStore
	}

	// 4. 初始化稽核
	var audit usecase.AuditService
	switch cfg.Audit.Sink {
	case config.AuditSinkMySQL:
		audit = sqlLedger.Audit()
	case config.AuditSinkWAL:
		auditWAL, err := openWAL(cfg.Audit.WALPath)
		if err != nil {
			return err
		}
		auditLog, err := memory_adapter.NewAuditLog(auditWAL)
		if err != nil {
			return fmt.Errorf("recover audit log: %w", err)
		}
		audit = auditLog
	case config.AuditSinkMemory:
		auditLog, err := memory_adapter.NewAuditLog(nil)
		if err != nil {
			return err
		}
		audit = auditLog
	default:
		audit = logaudit.NewAuditor(logger)
	}

	// 5. 初始化 UseCase
	coreUseCase := usecase.NewCoreUseCase(accounts, transactions, audit,
		usecase.WithLogger(logger),
		usecase.WithHistory(history.NewStack(cfg.HistoryCapacity)),
		usecase.WithSequenceStart(sequence),
	)

	// 6. 啟動操作介面 (Driving Adapter)
	logger.Info("ledger core ready",
		zap.String("store", string(cfg.Store.Driver)),
		zap.String("audit", string(cfg.Audit.Sink)),
		zap.Uint64("sequence", sequence),
	)
	err := console.NewConsole(coreUseCase, actor, os.Stdout).Run(ctx, os.Stdin)
	if err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("ledger core exited")
	return nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// stdout 留給操作介面
	zapCfg.OutputPaths = []string{"stderr"}
	return zapCfg.Build()
}
