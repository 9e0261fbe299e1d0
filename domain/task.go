package domain

import (
	"strings"
	"time"
)

const (
	// DefaultCategory is assigned when a task is saved without a category.
	DefaultCategory = "laboral"
	// DateLayout is the calendar date format accepted for due dates.
	DateLayout = "2006-01-02"

	MaxTitleLength    = 100
	MaxCategoryLength = 20
)

// Task represents an account-owned to-do item.
type Task struct {
	ID          int64      `json:"id"`
	AccountID   int64      `json:"account_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Category    string     `json:"category"`
}

func (t *Task) IsOwnedBy(accountID int64) bool {
	return t != nil && t.AccountID == accountID
}

// IsOverdue reports whether the due date lies strictly before today and the
// task is still open.
func (t *Task) IsOverdue(today time.Time) bool {
	if t == nil || t.Completed || t.DueDate == nil {
		return false
	}
	y, m, d := today.Date()
	return t.DueDate.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// DueDateString formats the due date for forms, empty when unset.
func (t *Task) DueDateString() string {
	if t == nil || t.DueDate == nil {
		return ""
	}
	return t.DueDate.Format(DateLayout)
}

// ParseDueDate parses an ISO calendar date. Blank input means "no due date".
func ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return nil, WrapError(ErrCodeInvalidDate, ErrInvalidDate.Message, err)
	}
	return &parsed, nil
}

// NormalizeCategory applies the default category to blank input.
func NormalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return DefaultCategory
	}
	return category
}

// SortOrder selects how task listings are ordered.
type SortOrder string

const (
	SortRecent SortOrder = "recientes"
	SortOldest SortOrder = "antiguas"
	SortTitle  SortOrder = "titulo"
)

// ParseSortOrder maps the query value to a known order, falling back to SortRecent.
func ParseSortOrder(raw string) SortOrder {
	switch SortOrder(strings.TrimSpace(raw)) {
	case SortOldest:
		return SortOldest
	case SortTitle:
		return SortTitle
	default:
		return SortRecent
	}
}
