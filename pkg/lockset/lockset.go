package lockset

import (
	"sort"
	"sync"
)

// entry 單一 key 的鎖，refs 為正在持有或等待的數量
type entry struct {
	mu   sync.Mutex
	refs int
}

// LockSet 依 key 提供互斥鎖
// 多個 key 一律排序後依序取得，避免兩個請求以相反順序互鎖。
// 沒有人使用的 key 會被移除，map 不會無限成長。
type LockSet struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New 建立一個新的 LockSet
func New() *LockSet {
	return &LockSet{
		locks: make(map[string]*entry),
	}
}

// Lock 取得所有 key 的鎖 (會阻塞直到全部取得)，回傳釋放函式
//
// 參數:
//
//	keys: 要鎖定的 key，重複或空字串會被忽略
//
// 回傳:
//
//	func(): 釋放所有鎖，只能呼叫一次
func (s *LockSet) Lock(keys ...string) func() {
	ordered := normalize(keys)

	entries := make([]*entry, len(ordered))
	s.mu.Lock()
	for i, k := range ordered {
		e, ok := s.locks[k]
		if !ok {
			e = &entry{}
			s.locks[k] = e
		}
		e.refs++
		entries[i] = e
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 反向釋放
			for i := len(entries) - 1; i >= 0; i-- {
				entries[i].mu.Unlock()
			}
			s.mu.Lock()
			for i, k := range ordered {
				entries[i].refs--
				if entries[i].refs == 0 {
					delete(s.locks, k)
				}
			}
			s.mu.Unlock()
		})
	}
}

// Len 目前仍被持有或等待中的 key 數量
func (s *LockSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
