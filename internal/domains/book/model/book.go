package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"library-lite/internal/shared"
)

const DefaultLanguage = "English"

// Book - catalog entry. Invariant: 0 <= AvailableCopies <= TotalCopies
type Book struct {
	ID              uuid.UUID      `json:"id"`
	Title           string         `json:"title"`
	ISBN            string         `json:"isbn"`
	AuthorID        uuid.UUID      `json:"authorId"`
	AuthorName      string         `json:"authorName,omitempty"`
	Publisher       *string        `json:"publisher,omitempty"`
	PublishedYear   *int           `json:"publishedYear,omitempty"`
	Edition         *string        `json:"edition,omitempty"`
	Language        string         `json:"language"`
	Pages           *int           `json:"pages,omitempty"`
	Genre           pq.StringArray `json:"genre"`
	Tags            pq.StringArray `json:"tags"`
	TotalCopies     int            `json:"totalCopies"`
	AvailableCopies int            `json:"availableCopies"`
	CoverURL        *string        `json:"coverUrl,omitempty"`
	Description     *string        `json:"description,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`

	// Joined data (chỉ có ở GetBook)
	ActiveLoans []ActiveLoan `json:"activeLoans,omitempty"`
}

func (b *Book) Ref() *shared.BookRef {
	return &shared.BookRef{ID: b.ID, Title: b.Title, ISBN: b.ISBN, Author: b.AuthorName}
}

// OnLoan là số bản đang được mượn theo copy counts
func (b *Book) OnLoan() int {
	return b.TotalCopies - b.AvailableCopies
}

// ActiveLoan là loan chưa trả của book (hiển thị ở book detail)
type ActiveLoan struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"userId"`
	UserName string    `json:"userName"`
	DueDate  time.Time `json:"dueDate"`
	Status   string    `json:"status"`
}

type Author struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Bio       *string   `json:"bio,omitempty"`
	BookCount int       `json:"bookCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ============ FILTERS ============

type BookFilter struct {
	Search    string
	Genre     string
	AuthorID  *uuid.UUID
	Author    string
	Language  string
	Available bool
	SortBy    string
	Order     string
	Page      int
	Limit     int
}

// SortColumns whitelist cho ?sortBy=
var SortColumns = map[string]string{
	"title":           "b.title",
	"createdAt":       "b.created_at",
	"publishedYear":   "b.published_year",
	"availableCopies": "b.available_copies",
}

type AuthorFilter struct {
	Search string
	Page   int
	Limit  int
}
