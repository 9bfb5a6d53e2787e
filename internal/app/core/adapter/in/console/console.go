package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/usecase"
)

const usage = `commands:
  open <account> <owner> <SAVINGS|CURRENT>
  deposit <account> <amount> [description]
  withdraw <account> <amount> [description]
  transfer <from> <to> <amount> [description]
  undo
  redo
  balance <account>
  history <account>
  reconcile <account>
  help
  quit`

// errQuit 結束 Run
var errQuit = errors.New("quit")

// Console 逐行讀取指令並呼叫 CoreUseCase (本機操作介面)
type Console struct {
	core  *usecase.CoreUseCase
	actor string
	out   io.Writer
}

func NewConsole(core *usecase.CoreUseCase, actor string, out io.Writer) *Console {
	return &Console{
		core:  core,
		actor: actor,
		out:   out,
	}
}

// Run 讀取 in 直到 EOF、quit 或 ctx 結束
// 業務錯誤只輸出，不會中斷
// 讀取在另一個 goroutine，ctx 結束時即使沒有輸入也會立即返回
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	done := make(chan struct{})
	defer close(done)
	lines, scanErr := readLines(in, done)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if err := c.Execute(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
		}
	}
}

// readLines 逐行送出 in 的內容，讀完後關閉 lines 並送出 scanner 的錯誤
// done 關閉後停止送出 (讀取中的 in 不會被中斷)
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				scanErr <- nil
				return
			}
		}
		scanErr <- scanner.Err()
	}()
	return lines, scanErr
}

// Execute 執行單一指令
func (c *Console) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "open":
		if len(args) != 3 {
			return errUsage(cmd)
		}
		accountType, err := domain.ParseAccountType(args[2])
		if err != nil {
			return err
		}
		account, err := c.core.OpenAccount(ctx, args[0], args[1], accountType, c.actor)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "opened %s (%s) owner=%s\n", account.AccountNumber, account.Type, account.OwnerID)
	case "deposit", "withdraw":
		if len(args) < 2 {
			return errUsage(cmd)
		}
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		description := strings.Join(args[2:], " ")
		var tran *domain.Transaction
		if cmd == "deposit" {
			tran, err = c.core.ProcessDeposit(ctx, args[0], amount, description, c.actor)
		} else {
			tran, err = c.core.ProcessWithdraw(ctx, args[0], amount, description, c.actor)
		}
		if err != nil {
			return err
		}
		c.printTransaction(tran)
	case "transfer":
		if len(args) < 3 {
			return errUsage(cmd)
		}
		amount, err := decimal.NewFromString(args[2])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[2], err)
		}
		tran, err := c.core.ProcessTransfer(ctx, args[0], args[1], amount, strings.Join(args[3:], " "), c.actor)
		if err != nil {
			return err
		}
		c.printTransaction(tran)
	case "undo":
		tran, err := c.core.Undo(ctx, c.actor)
		if err != nil {
			return err
		}
		c.printTransaction(tran)
	case "redo":
		tran, err := c.core.Redo(ctx, c.actor)
		if err != nil {
			return err
		}
		c.printTransaction(tran)
	case "balance":
		if len(args) != 1 {
			return errUsage(cmd)
		}
		balance, err := c.core.GetBalance(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s balance=%s\n", args[0], balance.String())
	case "history":
		if len(args) != 1 {
			return errUsage(cmd)
		}
		trans, err := c.core.TransactionHistory(ctx, args[0])
		if err != nil {
			return err
		}
		for _, tran := range trans {
			c.printTransaction(tran)
		}
	case "reconcile":
		if len(args) != 1 {
			return errUsage(cmd)
		}
		report, err := c.core.Reconcile(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s expected=%s actual=%s balanced=%t transactions=%d\n",
			report.AccountNumber, report.Expected, report.Actual, report.Balanced, report.Transactions)
	case "help":
		fmt.Fprintln(c.out, usage)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (c *Console) printTransaction(tran *domain.Transaction) {
	fmt.Fprintf(c.out, "#%d %s %s %s", tran.Sequence, tran.ID, tran.Type, tran.Status)
	if tran.SourceAccount != "" {
		fmt.Fprintf(c.out, " from=%s", tran.SourceAccount)
	}
	if tran.DestinationAccount != "" {
		fmt.Fprintf(c.out, " to=%s", tran.DestinationAccount)
	}
	fmt.Fprintf(c.out, " amount=%s", tran.Amount.String())
	if tran.ReversalOf != nil {
		fmt.Fprintf(c.out, " reversal_of=%s", tran.ReversalOf)
	}
	if tran.Description != "" {
		fmt.Fprintf(c.out, " %q", tran.Description)
	}
	fmt.Fprintln(c.out)
}

func errUsage(cmd string) error {
	return fmt.Errorf("wrong arguments for %s, see help", cmd)
}
