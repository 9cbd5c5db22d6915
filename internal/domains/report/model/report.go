package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	activityModel "library-lite/internal/domains/activity/model"
	loanModel "library-lite/internal/domains/loan/model"
	paymentModel "library-lite/internal/domains/payment/model"
)

// =====================================================
// ADMIN OVERVIEW
// =====================================================

type Counts struct {
	TotalUsers          int             `json:"totalUsers"`
	TotalMembers        int             `json:"totalMembers"`
	ActiveMembers       int             `json:"activeMembers"`
	TotalBooks          int             `json:"totalBooks"`
	TotalAuthors        int             `json:"totalAuthors"`
	AvailableCopies     int             `json:"availableCopies"`
	ActiveLoans         int             `json:"activeLoans"`
	OverdueLoans        int             `json:"overdueLoans"`
	PendingReservations int             `json:"pendingReservations"`
	TotalPayments       int             `json:"totalPayments"`
	FinesCollected      decimal.Decimal `json:"finesCollected"`
}

type TopBook struct {
	BookID      uuid.UUID `json:"bookId"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	BorrowCount int       `json:"borrowCount"`
}

type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

type Overview struct {
	Counts            Counts                      `json:"counts"`
	TopBooks          []TopBook                   `json:"topBooks"`
	RecentActivity    []activityModel.ActivityLog `json:"recentActivity"`
	GenreDistribution []GenreCount                `json:"genreDistribution"`
	GeneratedAt       time.Time                   `json:"generatedAt"`
}

// =====================================================
// USER & BOOK STATS
// =====================================================

// Dimension là cột được group by trong distribution reports
type Dimension string

const (
	DimUserRole       Dimension = "user_role"
	DimMemberStatus   Dimension = "member_status"
	DimMembershipType Dimension = "membership_type"
	DimBookLanguage   Dimension = "book_language"
)

type Bucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type TopBorrower struct {
	UserID      uuid.UUID `json:"userId"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	BorrowCount int       `json:"borrowCount"`
}

type UserReport struct {
	RoleDistribution           []Bucket      `json:"userRoleDistribution"`
	MemberStatusDistribution   []Bucket      `json:"memberStatusDistribution"`
	MembershipTypeDistribution []Bucket      `json:"membershipTypeDistribution"`
	TopBorrowers               []TopBorrower `json:"topBorrowers"`
}

type TopAuthor struct {
	AuthorID  uuid.UUID `json:"authorId"`
	Name      string    `json:"name"`
	Bio       *string   `json:"bio,omitempty"`
	BookCount int       `json:"bookCount"`
}

type LowStockBook struct {
	BookID          uuid.UUID `json:"bookId"`
	Title           string    `json:"title"`
	ISBN            string    `json:"isbn"`
	Author          string    `json:"author"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
}

type BookReport struct {
	TotalCopies          int            `json:"totalCopies"`
	AvailableCopies      int            `json:"availableCopies"`
	BorrowedCopies       int            `json:"borrowedCopies"`
	LanguageDistribution []Bucket       `json:"languageDistribution"`
	TopAuthors           []TopAuthor    `json:"topAuthors"`
	LowStock             []LowStockBook `json:"booksWithLowCopies"`
}

// =====================================================
// LOAN STATS
// =====================================================

type LoanStats struct {
	ByStatus            map[string]int  `json:"byStatus"`
	TotalLoans          int             `json:"totalLoans"`
	AverageLoanDuration float64         `json:"averageLoanDuration"` // days, returned loans only
	TotalFines          decimal.Decimal `json:"totalFines"`
}

// =====================================================
// USER DASHBOARD
// =====================================================

type UserStats struct {
	TotalBorrows     int             `json:"totalBorrows"`
	ActiveBorrows    int             `json:"activeBorrows"`
	OverdueBorrows   int             `json:"overdueBorrows"`
	ReturnedBorrows  int             `json:"returnedBorrows"`
	TotalFines       decimal.Decimal `json:"totalFines"`
	PaidFines        decimal.Decimal `json:"paidFines"`
	MembershipType   string          `json:"membershipType,omitempty"`
	MembershipStatus string          `json:"memberStatus,omitempty"`
}

// DashboardLoan: loan kèm daysRemaining (chỉ loan chưa trả)
type DashboardLoan struct {
	loanModel.Loan
	DaysRemaining *int `json:"daysRemaining"`
}

type UserDashboard struct {
	Stats    UserStats              `json:"stats"`
	Loans    []DashboardLoan        `json:"loans"`
	Payments []paymentModel.Payment `json:"payments"`
}
