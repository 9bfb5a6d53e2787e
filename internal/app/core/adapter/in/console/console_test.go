package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
	"github.com/JoeShih716/go-ledger-core/internal/app/core/usecase"
)

func newConsole(t *testing.T) (*Console, *bytes.Buffer) {
	t.Helper()
	accounts, err := memory.NewAccountStore(nil)
	require.NoError(t, err)
	transactions, err := memory.NewTransactionStore(nil)
	require.NoError(t, err)
	audit, err := memory.NewAuditLog(nil)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	core := usecase.NewCoreUseCase(accounts, transactions, audit)
	return NewConsole(core, "operator", out), out
}

func TestConsole_Session(t *testing.T) {
	c, out := newConsole(t)
	script := `
# 開戶
open A owner-a savings
open B owner-b CURRENT
deposit A 50000 opening balance
deposit B 20000
transfer A B 15000 rent
balance A
balance B
undo
balance A
redo
balance B
reconcile A
quit
balance A
`
	require.NoError(t, c.Run(context.Background(), strings.NewReader(script)))

	output := out.String()
	assert.Contains(t, output, "opened A (SAVINGS) owner=owner-a")
	assert.Contains(t, output, `TRANSFER COMPLETED from=A to=B amount=15000 "rent"`)
	assert.Contains(t, output, "A balance=35000\nB balance=35000\n")
	assert.Contains(t, output, "A balance=50000\n")
	assert.Contains(t, output, "reversal_of=")
	assert.Contains(t, output, "A expected=35000 actual=35000 balanced=true")
	// quit 之後的指令不執行
	assert.Equal(t, 1, strings.Count(output, "A balance=50000"))
}

func TestConsole_ErrorsDoNotStop(t *testing.T) {
	c, out := newConsole(t)
	script := strings.Join([]string{
		"open A owner-a savings",
		"withdraw A 10",
		"deposit A abc",
		"transfer A A 1",
		"undo",
		"frobnicate",
		"open A",
		"deposit A 5",
		"balance A",
	}, "\n")
	require.NoError(t, c.Run(context.Background(), strings.NewReader(script)))

	output := out.String()
	assert.Contains(t, output, "error: "+domain.ErrInsufficientBalance.Error())
	assert.Contains(t, output, `error: invalid amount "abc"`)
	assert.Contains(t, output, "error: "+domain.ErrSameAccountTransfer.Error())
	assert.Contains(t, output, "error: "+domain.ErrNothingToUndo.Error())
	assert.Contains(t, output, `error: unknown command "frobnicate"`)
	assert.Contains(t, output, "error: wrong arguments for open")
	assert.Contains(t, output, "A balance=5\n")
}

func TestConsole_History(t *testing.T) {
	c, out := newConsole(t)
	ctx := context.Background()
	require.NoError(t, c.Execute(ctx, "open A o savings"))
	require.NoError(t, c.Execute(ctx, "deposit A 10"))
	require.NoError(t, c.Execute(ctx, "withdraw A 4 atm"))
	out.Reset()

	require.NoError(t, c.Execute(ctx, "history A"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "DEPOSIT COMPLETED to=A amount=10")
	assert.Contains(t, lines[1], `WITHDRAW COMPLETED from=A amount=4 "atm"`)

	assert.ErrorIs(t, c.Execute(ctx, "history Z"), domain.ErrAccountNotFound)
	require.NoError(t, c.Execute(ctx, "help"))
	assert.Contains(t, out.String(), "commands:")
}

func TestConsole_ContextCanceled(t *testing.T) {
	c, _ := newConsole(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Run(ctx, strings.NewReader("help\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsole_CancelWhileIdle(t *testing.T) {
	c, out := newConsole(t)
	in, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- c.Run(ctx, in)
	}()

	// 先送一行確認迴圈在跑
	_, err := io.WriteString(writer, "open A owner savings\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		balance, err := c.core.GetBalance(context.Background(), "A")
		return err == nil && balance.IsZero()
	}, time.Second, 10*time.Millisecond)

	// 之後沒有任何輸入，取消 ctx 仍須返回
	cancel()
	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after ctx was canceled")
	}
	assert.Contains(t, out.String(), "opened A")
}

func TestConsole_EOFEndsRun(t *testing.T) {
	c, _ := newConsole(t)
	in, writer := io.Pipe()

	result := make(chan error, 1)
	go func() {
		result <- c.Run(context.Background(), in)
	}()
	_, err := io.WriteString(writer, "help\n")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return at EOF")
	}
}
