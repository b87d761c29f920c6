// Package ordering 计算同级实体的稠密位置（0..n-1）。
//
// 所有函数都是纯计算：输入为按 position ASC, created_at DESC 排好序的同级列表，
// 输出为需要写回的位置变更。位置按排名重新分配，输入中的空洞或重复会在下一次
// 变更时被修正。
package ordering

import "errors"

// ErrNotInScope 被移动/删除的实体不在同级列表中
var ErrNotInScope = errors.New("ordering: item not in scope")

// Item 同级实体
type Item struct {
	ID       string
	Position int
}

// Update 位置变更
type Update struct {
	ID       string
	Position int
}

// Insert 计算新实体的位置以及需要后移的同级实体。position 为空时追加到末尾，
// 超出范围时截断到 [0, len(siblings)]。
func Insert(siblings []Item, position *int) (int, []Update) {
	target := len(siblings)
	if position != nil {
		target = clamp(*position, 0, len(siblings))
	}

	var updates []Update
	for rank, s := range siblings {
		want := rank
		if rank >= target {
			want = rank + 1
		}
		if s.Position != want {
			updates = append(updates, Update{ID: s.ID, Position: want})
		}
	}
	return target, updates
}

// Move 将 id 移动到 position，返回最终位置和所有位置变化的实体（包含被移动的实体）。
func Move(siblings []Item, id string, position int) (int, []Update, error) {
	from := indexOf(siblings, id)
	if from < 0 {
		return 0, nil, ErrNotInScope
	}

	target := clamp(position, 0, len(siblings)-1)

	order := make([]Item, 0, len(siblings))
	order = append(order, siblings[:from]...)
	order = append(order, siblings[from+1:]...)
	order = append(order[:target], append([]Item{siblings[from]}, order[target:]...)...)

	return target, rerank(order), nil
}

// Remove 删除 id 后，后续实体依次前移
func Remove(siblings []Item, id string) ([]Update, error) {
	idx := indexOf(siblings, id)
	if idx < 0 {
		return nil, ErrNotInScope
	}

	rest := make([]Item, 0, len(siblings)-1)
	rest = append(rest, siblings[:idx]...)
	rest = append(rest, siblings[idx+1:]...)
	return rerank(rest), nil
}

// Normalize 按当前顺序重新编号，返回需要修正的实体
func Normalize(siblings []Item) []Update {
	return rerank(siblings)
}

func rerank(order []Item) []Update {
	var updates []Update
	for rank, s := range order {
		if s.Position != rank {
			updates = append(updates, Update{ID: s.ID, Position: rank})
		}
	}
	return updates
}

func indexOf(items []Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
