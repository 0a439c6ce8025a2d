package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/talim-board/admin-api/internal/models"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
	"github.com/talim-board/admin-api/pkg/export"
	"github.com/talim-board/admin-api/pkg/money"
)

// StatementFormat selects the export rendering.
type StatementFormat string

const (
	StatementFormatCSV StatementFormat = "csv"
	StatementFormatPDF StatementFormat = "pdf"
)

type statementTransactionRepository interface {
	List(ctx context.Context, filter models.BankTransactionFilter) ([]models.BankTransaction, int, error)
}

type statementAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.BankAccount, error)
}

// Statement is a rendered account statement ready for download.
type Statement struct {
	Filename    string
	ContentType string
	Content     []byte
}

// StatementService renders bank account statements for download.
type StatementService struct {
	transactions statementTransactionRepository
	accounts     statementAccountRepository
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	logger       *zap.Logger
}

// NewStatementService creates a new statement service.
func NewStatementService(transactions statementTransactionRepository, accounts statementAccountRepository, logger *zap.Logger) *StatementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatementService{
		transactions: transactions,
		accounts:     accounts,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		logger:       logger,
	}
}

var statementHeaders = []string{"Date", "Type", "Description", "Check No", "Amount", "Balance"}

// Export renders the account's transactions within the date range in the
// requested format. Amounts are display-formatted.
func (s *StatementService) Export(ctx context.Context, accountID string, from, to *time.Time, format StatementFormat) (*Statement, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "bank account not found")
	}

	filter := models.BankTransactionFilter{
		AccountID: accountID,
		DateFrom:  from,
		DateTo:    to,
		Page:      1,
		PageSize:  100,
		SortOrder: "ASC",
	}

	var all []models.BankTransaction
	for {
		page, total, err := s.transactions.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transactions")
		}
		all = append(all, page...)
		if len(all) >= total || len(page) == 0 {
			break
		}
		filter.Page++
	}

	data := export.Dataset{Headers: statementHeaders, Rows: make([]map[string]string, 0, len(all))}
	for _, transaction := range all {
		data.Rows = append(data.Rows, statementRow(account.ID, transaction))
	}

	title := fmt.Sprintf("Statement %s (%s)", account.AccountName, account.AccountNumber)
	stamp := time.Now().UTC().Format("20060102")

	switch format {
	case StatementFormatPDF:
		content, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf statement")
		}
		return &Statement{
			Filename:    fmt.Sprintf("statement-%s-%s.pdf", account.AccountNumber, stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	case StatementFormatCSV:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv statement")
		}
		return &Statement{
			Filename:    fmt.Sprintf("statement-%s-%s.csv", account.AccountNumber, stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported statement format "+string(format))
}

// statementRow renders one transaction from the account's point of view:
// outgoing amounts are negative and the balance column shows the account's
// own snapshot.
func statementRow(accountID string, transaction models.BankTransaction) map[string]string {
	amount := transaction.Amount
	var balance *money.Amount
	if transaction.FromAccountID != nil && *transaction.FromAccountID == accountID {
		amount = -transaction.Amount
		balance = transaction.FromBalance
	} else if transaction.ToAccountID != nil && *transaction.ToAccountID == accountID {
		balance = transaction.ToBalance
	}

	row := map[string]string{
		"Date":        transaction.Date.Format("2006-01-02"),
		"Type":        string(transaction.Type),
		"Description": "",
		"Check No":    "",
		"Amount":      amount.String(),
		"Balance":     "",
	}
	if transaction.Description != nil {
		row["Description"] = *transaction.Description
	}
	if transaction.CheckNumber != nil {
		row["Check No"] = *transaction.CheckNumber
	}
	if balance != nil {
		row["Balance"] = balance.String()
	}
	return row
}
