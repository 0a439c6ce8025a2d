package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/talim-board/admin-api/internal/models"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
	"github.com/talim-board/admin-api/pkg/money"
)

type dashboardAccountRepository interface {
	ListActive(ctx context.Context) ([]models.BankAccount, error)
	List(ctx context.Context, filter models.BankAccountFilter) ([]models.BankAccount, int, error)
	TotalBalance(ctx context.Context) (float64, error)
}

type dashboardTransactionRepository interface {
	Recent(ctx context.Context, limit int) ([]models.BankTransaction, error)
}

type dashboardExamRepository interface {
	List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error)
}

type dashboardTeacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
}

type dashboardMarkazRepository interface {
	List(ctx context.Context, filter models.MarkazFilter) ([]models.Markaz, int, error)
}

type dashboardNoticeRepository interface {
	List(ctx context.Context, filter models.NoticeFilter) ([]models.Notice, int, error)
}

// DashboardService assembles the admin overview.
type DashboardService struct {
	accounts     dashboardAccountRepository
	transactions dashboardTransactionRepository
	exams        dashboardExamRepository
	teachers     dashboardTeacherRepository
	markazes     dashboardMarkazRepository
	notices      dashboardNoticeRepository
	cache        *CacheService
	cacheTTL     time.Duration
	recentLimit  int
	logger       *zap.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(accounts dashboardAccountRepository, transactions dashboardTransactionRepository, exams dashboardExamRepository, teachers dashboardTeacherRepository, markazes dashboardMarkazRepository, notices dashboardNoticeRepository, cache *CacheService, cacheTTL time.Duration, recentLimit int, logger *zap.Logger) *DashboardService {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		accounts:     accounts,
		transactions: transactions,
		exams:        exams,
		teachers:     teachers,
		markazes:     markazes,
		notices:      notices,
		cache:        cache,
		cacheTTL:     cacheTTL,
		recentLimit:  recentLimit,
		logger:       logger,
	}
}

// BankDashboard returns the aggregated finance overview. The boolean
// reports whether the payload came from cache.
func (s *DashboardService) BankDashboard(ctx context.Context) (*models.BankDashboard, bool, error) {
	key := ListKey("bank_dashboard", "overview")

	var cached models.BankDashboard
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	total, err := s.accounts.TotalBalance(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum balances")
	}

	active, err := s.accounts.ListActive(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active accounts")
	}

	_, allCount, err := s.accounts.List(ctx, models.BankAccountFilter{Page: 1, PageSize: 1})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count accounts")
	}

	recent, err := s.transactions.Recent(ctx, s.recentLimit)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent transactions")
	}

	dashboard := &models.BankDashboard{
		TotalBalance:       money.Amount(total),
		ActiveAccounts:     len(active),
		TotalAccounts:      allCount,
		Accounts:           active,
		RecentTransactions: recent,
		GeneratedAt:        time.Now().UTC(),
	}

	_ = s.cache.Set(ctx, key, dashboard, s.cacheTTL)
	return dashboard, false, nil
}

// Overview returns the composite admin dashboard: the finance summary plus
// headline counts. The boolean reports whether it came from cache.
func (s *DashboardService) Overview(ctx context.Context) (*models.AdminDashboard, bool, error) {
	key := ListKey("bank_dashboard", "admin_overview")

	var cached models.AdminDashboard
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	bank, _, err := s.BankDashboard(ctx)
	if err != nil {
		return nil, false, err
	}

	active := true
	_, examCount, err := s.exams.List(ctx, models.ExamFilter{IsActive: &active, Page: 1, PageSize: 1})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count exams")
	}
	_, teacherCount, err := s.teachers.List(ctx, models.TeacherFilter{Active: &active, Page: 1, PageSize: 1})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	_, markazCount, err := s.markazes.List(ctx, models.MarkazFilter{Active: &active, Page: 1, PageSize: 1})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count markazes")
	}
	_, noticeCount, err := s.notices.List(ctx, models.NoticeFilter{Active: &active, Page: 1, PageSize: 1})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notices")
	}

	dashboard := &models.AdminDashboard{
		Bank:           *bank,
		ActiveExams:    examCount,
		ActiveTeachers: teacherCount,
		ActiveMarkazes: markazCount,
		ActiveNotices:  noticeCount,
		GeneratedAt:    time.Now().UTC(),
	}

	_ = s.cache.Set(ctx, key, dashboard, s.cacheTTL)
	return dashboard, false, nil
}
