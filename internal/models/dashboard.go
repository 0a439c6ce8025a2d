package models

import (
	"time"

	"github.com/talim-board/admin-api/pkg/money"
)

// BankDashboard aggregates the figures shown on the finance overview.
type BankDashboard struct {
	TotalBalance       money.Amount      `json:"total_balance"`
	ActiveAccounts     int               `json:"active_accounts"`
	TotalAccounts      int               `json:"total_accounts"`
	Accounts           []BankAccount     `json:"accounts"`
	RecentTransactions []BankTransaction `json:"recent_transactions"`
	GeneratedAt        time.Time         `json:"generated_at"`
}

// AdminDashboard is the composite admin landing view: the finance summary
// plus headline counts across the board's registries.
type AdminDashboard struct {
	Bank           BankDashboard `json:"bank"`
	ActiveExams    int           `json:"active_exams"`
	ActiveTeachers int           `json:"active_teachers"`
	ActiveMarkazes int           `json:"active_markazes"`
	ActiveNotices  int           `json:"active_notices"`
	GeneratedAt    time.Time     `json:"generated_at"`
}

// SystemMetrics is a lightweight aggregate of runtime counters exposed for
// admin consumption alongside the Prometheus endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
