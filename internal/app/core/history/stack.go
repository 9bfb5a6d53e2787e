package history

import (
	"sync"

	"github.com/JoeShih716/go-ledger-core/internal/app/core/domain"
)

// ApplyFunc 執行 cmd 的反向操作，回傳實際執行的 Command (含新交易 ID)
type ApplyFunc func(cmd domain.Command) (domain.Command, error)

// Stack 復原 / 重做歷史
//
// undo 與 redo 都是 LIFO。新的操作會清空 redo。
// Undo / Redo 在 Stack 的鎖內執行 ApplyFunc，只有成功時才移動 Command，
// 失敗則兩個 stack 都不變。
type Stack struct {
	mu       sync.Mutex
	undo     []domain.Command
	redo     []domain.Command
	capacity int
}

// NewStack 建立 Stack，capacity <= 0 表示不限制 undo 數量
func NewStack(capacity int) *Stack {
	return &Stack{
		undo:     make([]domain.Command, 0),
		redo:     make([]domain.Command, 0),
		capacity: capacity,
	}
}

// RecordOperation 記錄一筆新完成的操作並清空 redo
func (s *Stack) RecordOperation(cmd domain.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.undo = append(s.undo, cmd)
	if s.capacity > 0 && len(s.undo) > s.capacity {
		// 丟掉最舊的
		s.undo = append(s.undo[:0:0], s.undo[len(s.undo)-s.capacity:]...)
	}
	s.redo = s.redo[:0]
}

// Undo 取出最近一筆操作交給 apply 執行反向，成功後把 apply 的結果放進 redo
//
// 參數:
//
//	apply: 執行反向操作
//
// 回傳:
//
//	error: ErrNothingToUndo 或 apply 的錯誤
func (s *Stack) Undo(apply ApplyFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return domain.ErrNothingToUndo
	}
	top := s.undo[len(s.undo)-1]
	executed, err := apply(top)
	if err != nil {
		return err
	}
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, executed)
	return nil
}

// Redo 取出最近一筆被復原的操作交給 apply 重新套用，成功後放回 undo
func (s *Stack) Redo(apply ApplyFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return domain.ErrNothingToRedo
	}
	top := s.redo[len(s.redo)-1]
	executed, err := apply(top)
	if err != nil {
		return err
	}
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, executed)
	return nil
}

// CanUndo 是否有可復原的操作
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo 是否有可重做的操作
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Len 回傳 undo、redo 的數量
func (s *Stack) Len() (undo int, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo), len(s.redo)
}

// Snapshot 回傳兩個 stack 的副本，最近的在前
func (s *Stack) Snapshot() (undo []domain.Command, redo []domain.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reversed(s.undo), reversed(s.redo)
}

// Clear 清空歷史
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = s.undo[:0]
	s.redo = s.redo[:0]
}

func reversed(cmds []domain.Command) []domain.Command {
	out := make([]domain.Command, len(cmds))
	for i, c := range cmds {
		out[len(cmds)-1-i] = c
	}
	return out
}
