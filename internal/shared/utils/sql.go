package utils

import (
	"fmt"
	"strings"
)

// JoinWithAnd joins a slice of strings with AND operator
func JoinWithAnd(clauses []string) string {
	return strings.Join(clauses, " AND ")
}

// WhereBuilder gom các điều kiện WHERE với placeholder $n tăng dần
type WhereBuilder struct {
	clauses []string
	args    []any
}

// Add thêm clause, mỗi "?" trong clause được thay bằng placeholder $n kế tiếp
func (w *WhereBuilder) Add(clause string, args ...any) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.clauses = append(w.clauses, clause)
}

// SQL trả về "WHERE ..." hoặc "" nếu không có điều kiện
func (w *WhereBuilder) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + JoinWithAnd(w.clauses)
}

func (w *WhereBuilder) Args() []any {
	return w.args
}

// Next trả về placeholder kế tiếp và append arg (dùng cho LIMIT/OFFSET)
func (w *WhereBuilder) Next(arg any) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}
