package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/repository"
	"github.com/segyhp/loan-manager/internal/schedule"
	customError "github.com/segyhp/loan-manager/pkg/errors"
	"github.com/segyhp/loan-manager/pkg/utils"
	"github.com/segyhp/loan-manager/pkg/words"
)

type ReportService struct {
	LoanRepo    repository.LoanRepository
	PaymentRepo repository.PaymentRepository
	ClientRepo  repository.ClientRepository
	engine      *schedule.Engine
}

func NewReportService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	clientRepo repository.ClientRepository,
	engine *schedule.Engine,
) *ReportService {
	return &ReportService{
		LoanRepo:    loanRepo,
		PaymentRepo: paymentRepo,
		ClientRepo:  clientRepo,
		engine:      engine,
	}
}

// CollectionReport groups the payments received in the filtered period by loan and splits
// each payment into capital and interest. The interest share of a payment is the nominal
// installment amount minus principal/installmentCount.
func (s *ReportService) CollectionReport(ctx context.Context, actor domain.Actor, filter domain.CollectionFilter) (*domain.CollectionReport, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, customError.WrapValidation("'to' must not be before 'from'", nil)
	}

	payments, err := s.PaymentRepo.List(ctx, domain.PaymentFilter{
		OwnerID:  actor.UserID,
		ClientID: filter.ClientID,
		From:     filter.From,
		To:       filter.To,
	})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	report := &domain.CollectionReport{
		From:              filter.From,
		To:                filter.To,
		Lines:             []*domain.CollectionLine{},
		CapitalCollected:  decimal.Zero,
		InterestCollected: decimal.Zero,
		AmountCollected:   decimal.Zero,
	}
	if len(payments) == 0 {
		return report, nil
	}

	loans, err := s.LoanRepo.List(ctx, domain.LoanFilter{OwnerID: actor.UserID, ClientID: filter.ClientID})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	loansByID := make(map[uuid.UUID]*domain.Loan, len(loans))
	for _, loan := range loans {
		loansByID[loan.ID] = loan
	}

	clients, err := s.ClientRepo.List(ctx, actor.UserID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	names := make(map[uuid.UUID]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	lines := map[uuid.UUID]*domain.CollectionLine{}
	var loanIDs []uuid.UUID
	for _, p := range payments {
		loan, ok := loansByID[p.LoanID]
		if !ok {
			continue
		}

		line, ok := lines[loan.ID]
		if !ok {
			line = &domain.CollectionLine{
				LoanID:            loan.ID,
				OriginationDate:   loan.OriginationDate,
				ClientName:        names[loan.ClientID],
				InstallmentCount:  loan.InstallmentCount,
				CapitalCollected:  decimal.Zero,
				InterestCollected: decimal.Zero,
				AmountCollected:   decimal.Zero,
			}
			lines[loan.ID] = line
			loanIDs = append(loanIDs, loan.ID)
			report.Lines = append(report.Lines, line)
		}

		interest, err := s.interestPerInstallment(loan)
		if err != nil {
			return nil, engineError(err)
		}

		line.Payments = append(line.Payments, p)
		line.PaymentsInPeriod++
		line.AmountCollected = line.AmountCollected.Add(p.Amount)
		line.InterestCollected = line.InterestCollected.Add(interest)
		line.CapitalCollected = line.CapitalCollected.Add(p.Amount.Sub(interest))
	}

	// Installment progress counts every payment of the loan, not only the ones in the period.
	all, err := s.PaymentRepo.ListByLoans(ctx, loanIDs)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	for _, line := range report.Lines {
		line.PaymentsTotal = len(all[line.LoanID])
		report.CapitalCollected = report.CapitalCollected.Add(line.CapitalCollected)
		report.InterestCollected = report.InterestCollected.Add(line.InterestCollected)
		report.AmountCollected = report.AmountCollected.Add(line.AmountCollected)
	}

	return report, nil
}

// CollectionCSV flattens a collection report into one row per payment followed by a totals row.
func (s *ReportService) CollectionCSV(report *domain.CollectionReport) [][]string {
	precision := s.engine.Precision()
	amount := func(d decimal.Decimal) string {
		return d.StringFixed(precision)
	}

	records := [][]string{{
		"loan_id", "client", "origination_date", "paid_date", "installments", "amount", "method",
	}}
	for _, line := range report.Lines {
		for _, p := range line.Payments {
			records = append(records, []string{
				line.LoanID.String(),
				line.ClientName,
				line.OriginationDate.String(),
				p.PaidDate.String(),
				strconv.Itoa(line.PaymentsTotal) + "/" + strconv.Itoa(line.InstallmentCount),
				amount(p.Amount),
				p.Method,
			})
		}
	}

	records = append(records,
		[]string{"", "TOTAL CAPITAL", "", "", "", amount(report.CapitalCollected), ""},
		[]string{"", "TOTAL INTERES", "", "", "", amount(report.InterestCollected), ""},
		[]string{"", "TOTAL COBRADO", "", "", "", amount(report.AmountCollected), ""},
	)
	return records
}

// PromissoryNote gathers the data printed on a loan's promissory note
func (s *ReportService) PromissoryNote(ctx context.Context, actor domain.Actor, loanID uuid.UUID) (*domain.PromissoryNote, error) {
	loan, err := s.LoanRepo.GetByID(ctx, actor.UserID, loanID)
	if err != nil {
		return nil, notFoundOr(err, customError.WrapLoanNotFound(loanID.String()))
	}
	client, err := s.ClientRepo.GetByID(ctx, actor.UserID, loan.ClientID)
	if err != nil {
		return nil, notFoundOr(err, customError.WrapClientNotFound(loan.ClientID.String()))
	}

	total, err := s.engine.TotalPayable(loan)
	if err != nil {
		return nil, engineError(err)
	}
	installments, err := s.engine.Schedule(loan)
	if err != nil {
		return nil, engineError(err)
	}

	return &domain.PromissoryNote{
		Number:          noteNumber(loan),
		IssueDate:       loan.OriginationDate,
		DebtorName:      client.Name,
		DebtorDocument:  client.DocumentID,
		DebtorAddress:   orNA(client.Address),
		DebtorPhone:     orNA(client.Phone),
		Amount:          total,
		AmountFormatted: utils.FormatAmount(total, s.engine.Precision()),
		AmountInWords:   words.FromDecimal(total),
		Schedule:        installments,
	}, nil
}

func (s *ReportService) interestPerInstallment(loan *domain.Loan) (decimal.Decimal, error) {
	installment, err := s.engine.InstallmentAmount(loan)
	if err != nil {
		return decimal.Zero, err
	}
	capital := loan.Principal.Div(decimal.NewFromInt(int64(loan.InstallmentCount)))
	return installment.Sub(capital), nil
}

// noteNumber is the origination year followed by the first block of the loan ID.
func noteNumber(loan *domain.Loan) string {
	block := strings.ToUpper(strings.SplitN(loan.ID.String(), "-", 2)[0])
	return strconv.Itoa(loan.OriginationDate.Year()) + "-" + block
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
