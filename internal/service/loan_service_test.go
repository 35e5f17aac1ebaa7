package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/repository/mocks"
	"github.com/segyhp/loan-manager/internal/schedule"
	customError "github.com/segyhp/loan-manager/pkg/errors"
)

type loanServiceDeps struct {
	loans    *mocks.MockLoanRepository
	payments *mocks.MockPaymentRepository
	clients  *mocks.MockClientRepository
	cache    *memoryCache
}

func newLoanService(clock Clock) (*LoanService, *loanServiceDeps) {
	deps := &loanServiceDeps{
		loans:    new(mocks.MockLoanRepository),
		payments: new(mocks.MockPaymentRepository),
		clients:  new(mocks.MockClientRepository),
		cache:    newMemoryCache(),
	}
	svc := NewLoanService(deps.loans, deps.payments, deps.clients, schedule.New(schedule.DefaultPrecision), deps.cache, nil, clock)
	return svc, deps
}

func TestLoanService_Create(t *testing.T) {
	clientID := uuid.New()
	validReq := func() *domain.CreateLoanRequest {
		return &domain.CreateLoanRequest{
			ClientID:         clientID,
			OriginationDate:  domain.NewDate(2024, 1, 15),
			Principal:        decimal.NewFromInt(1000000),
			InterestRate:     decimal.NewFromInt(10),
			InstallmentCount: 4,
			PaymentInterval:  domain.IntervalMonthly,
		}
	}

	tests := []struct {
		name         string
		req          func() *domain.CreateLoanRequest
		setupMocks   func(*loanServiceDeps)
		expectedCode string
	}{
		{
			name: "Success - loan starts active with its schedule",
			req:  validReq,
			setupMocks: func(d *loanServiceDeps) {
				d.clients.On("GetByID", mock.Anything, testActor.UserID, clientID).Return(&domain.Client{ID: clientID}, nil)
				d.loans.On("Create", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
					return loan.ClientID == clientID && loan.Status == domain.LoanStatusActive
				})).Return(nil)
			},
		},
		{
			name: "Failure - client of another owner",
			req:  validReq,
			setupMocks: func(d *loanServiceDeps) {
				d.clients.On("GetByID", mock.Anything, testActor.UserID, clientID).Return(nil, sql.ErrNoRows)
			},
			expectedCode: customError.ErrCodeClientNotFound,
		},
		{
			name: "Failure - zero principal",
			req: func() *domain.CreateLoanRequest {
				req := validReq()
				req.Principal = decimal.Zero
				return req
			},
			setupMocks: func(d *loanServiceDeps) {
				d.clients.On("GetByID", mock.Anything, testActor.UserID, clientID).Return(&domain.Client{ID: clientID}, nil)
			},
			expectedCode: customError.ErrCodeInvalidLoan,
		},
		{
			name: "Failure - database error on create",
			req:  validReq,
			setupMocks: func(d *loanServiceDeps) {
				d.clients.On("GetByID", mock.Anything, testActor.UserID, clientID).Return(&domain.Client{ID: clientID}, nil)
				d.loans.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))
			},
			expectedCode: customError.ErrCodeDatabaseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newLoanService(fixedClock(2024, 1, 15))
			tt.setupMocks(deps)

			result, err := svc.Create(context.Background(), testActor, tt.req())

			if tt.expectedCode != "" {
				assertCode(t, err, tt.expectedCode)
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			require.Len(t, result.Schedule, 4)
			assert.Equal(t, "2024-02-15", result.Schedule[0].DueDate.String())
			assert.True(t, result.Schedule[0].Amount.Equal(decimal.NewFromInt(275000)))
			assert.Equal(t, 1, deps.cache.invalidations)
			deps.loans.AssertExpectations(t)
		})
	}
}

func TestLoanService_RegisterPayment(t *testing.T) {
	clientID := uuid.New()
	origination := domain.NewDate(2024, 1, 15)

	tests := []struct {
		name           string
		status         string
		req            *domain.RegisterPaymentRequest
		prior          []int64
		expectedCode   string
		expectedStatus string
		expectedOwed   int64
	}{
		{
			name:           "Success - partial payment keeps the loan active",
			status:         domain.LoanStatusActive,
			req:            &domain.RegisterPaymentRequest{Amount: decimal.NewFromInt(275000)},
			expectedStatus: domain.LoanStatusActive,
			expectedOwed:   825000,
		},
		{
			name:           "Success - settling payment marks the loan paid",
			status:         domain.LoanStatusDelinquent,
			req:            &domain.RegisterPaymentRequest{Amount: decimal.NewFromInt(550000)},
			prior:          []int64{550000},
			expectedStatus: domain.LoanStatusPaid,
			expectedOwed:   0,
		},
		{
			name:           "Success - partial payment keeps delinquency",
			status:         domain.LoanStatusDelinquent,
			req:            &domain.RegisterPaymentRequest{Amount: decimal.NewFromInt(100000)},
			expectedStatus: domain.LoanStatusDelinquent,
			expectedOwed:   1000000,
		},
		{
			name:         "Failure - zero amount",
			status:       domain.LoanStatusActive,
			req:          &domain.RegisterPaymentRequest{Amount: decimal.Zero},
			expectedCode: customError.ErrCodeInvalidPaymentAmount,
		},
		{
			name:         "Failure - negative amount",
			status:       domain.LoanStatusActive,
			req:          &domain.RegisterPaymentRequest{Amount: decimal.NewFromInt(-5)},
			expectedCode: customError.ErrCodeInvalidPaymentAmount,
		},
		{
			name:         "Failure - cancelled loan",
			status:       domain.LoanStatusCancelled,
			req:          &domain.RegisterPaymentRequest{Amount: decimal.NewFromInt(1000)},
			expectedCode: customError.ErrCodeLoanNotPayable,
		},
		{
			name:         "Failure - paid loan",
			status:       domain.LoanStatusPaid,
			req:          &domain.RegisterPaymentRequest{Amount: decimal.NewFromInt(1000)},
			expectedCode: customError.ErrCodeLoanNotPayable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newLoanService(fixedClock(2024, 2, 20))
			loan := newTestLoan(clientID, origination, 1000000, 10, 4, domain.IntervalMonthly, tt.status)
			deps.loans.On("GetByID", mock.Anything, testActor.UserID, loan.ID).Return(loan, nil)

			snapshot := []*domain.Payment{}
			for _, amount := range tt.prior {
				snapshot = append(snapshot, newTestPayment(loan.ID, amount, domain.NewDate(2024, 2, 1)))
			}
			snapshot = append(snapshot, newTestPayment(loan.ID, tt.req.Amount.IntPart(), domain.NewDate(2024, 2, 20)))
			deps.loans.On("ApplyPayment", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
				return p.LoanID == loan.ID && p.Amount.Equal(tt.req.Amount)
			})).Return(loan, snapshot, nil)

			result, err := svc.RegisterPayment(context.Background(), testActor, loan.ID, tt.req)

			if tt.expectedCode != "" {
				assertCode(t, err, tt.expectedCode)
				deps.loans.AssertNotCalled(t, "ApplyPayment", mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, result.LoanStatus)
			assert.True(t, result.Outstanding.Equal(decimal.NewFromInt(tt.expectedOwed)), "outstanding %s", result.Outstanding)
			assert.Equal(t, "2024-02-20", result.Payment.PaidDate.String(), "defaults to today")
			assert.Equal(t, domain.PaymentMethodCash, result.Payment.Method)
			assert.Equal(t, 1, deps.cache.invalidations)
		})
	}
}

func TestLoanService_RegisterPaymentUnknownLoan(t *testing.T) {
	svc, deps := newLoanService(fixedClock(2024, 2, 20))
	id := uuid.New()
	deps.loans.On("GetByID", mock.Anything, testActor.UserID, id).Return(nil, sql.ErrNoRows)

	_, err := svc.RegisterPayment(context.Background(), testActor, id, &domain.RegisterPaymentRequest{Amount: decimal.NewFromInt(10)})

	assertCode(t, err, customError.ErrCodeLoanNotFound)
	assert.ErrorIs(t, err, customError.ErrLoanNotFound)
}

func TestLoanService_UpdateStatusTransitions(t *testing.T) {
	tests := []struct {
		name         string
		from         string
		to           string
		expectedCode string
	}{
		{name: "active to cancelled", from: domain.LoanStatusActive, to: domain.LoanStatusCancelled},
		{name: "active to delinquent", from: domain.LoanStatusActive, to: domain.LoanStatusDelinquent},
		{name: "paid to cancelled", from: domain.LoanStatusPaid, to: domain.LoanStatusCancelled},
		{name: "same status is a no-op", from: domain.LoanStatusActive, to: domain.LoanStatusActive},
		{name: "paid to delinquent", from: domain.LoanStatusPaid, to: domain.LoanStatusDelinquent, expectedCode: customError.ErrCodeInvalidStatusTransition},
		{name: "active to paid", from: domain.LoanStatusActive, to: domain.LoanStatusPaid, expectedCode: customError.ErrCodeInvalidStatusTransition},
		{name: "cancelled to active", from: domain.LoanStatusCancelled, to: domain.LoanStatusActive, expectedCode: customError.ErrCodeInvalidStatusTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newLoanService(fixedClock(2024, 2, 20))
			loan := newTestLoan(uuid.New(), domain.NewDate(2024, 1, 15), 1000000, 10, 4, domain.IntervalMonthly, tt.from)
			deps.loans.On("GetByID", mock.Anything, testActor.UserID, loan.ID).Return(loan, nil)
			deps.loans.On("Update", mock.Anything, loan).Return(loan, []*domain.Payment{}, nil)

			req := &domain.UpdateLoanRequest{
				OriginationDate:  loan.OriginationDate,
				Principal:        loan.Principal,
				InterestRate:     loan.InterestRate,
				InstallmentCount: loan.InstallmentCount,
				PaymentInterval:  loan.PaymentInterval,
				Status:           tt.to,
			}
			updated, err := svc.Update(context.Background(), testActor, loan.ID, req)

			if tt.expectedCode != "" {
				assertCode(t, err, tt.expectedCode)
				deps.loans.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)
		})
	}
}

func TestLoanService_UpdateRevalidatesTerms(t *testing.T) {
	svc, deps := newLoanService(fixedClock(2024, 2, 20))
	loan := newTestLoan(uuid.New(), domain.NewDate(2024, 1, 15), 1000000, 10, 4, domain.IntervalMonthly, domain.LoanStatusActive)
	deps.loans.On("GetByID", mock.Anything, testActor.UserID, loan.ID).Return(loan, nil)

	_, err := svc.Update(context.Background(), testActor, loan.ID, &domain.UpdateLoanRequest{
		OriginationDate:  loan.OriginationDate,
		Principal:        decimal.NewFromInt(1000),
		InterestRate:     decimal.NewFromInt(-1),
		InstallmentCount: 4,
		PaymentInterval:  domain.IntervalMonthly,
	})

	assertCode(t, err, customError.ErrCodeInvalidLoan)
	deps.loans.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestLoanService_UpdateReopensSettledLoan(t *testing.T) {
	svc, deps := newLoanService(fixedClock(2024, 2, 20))
	loan := newTestLoan(uuid.New(), domain.NewDate(2024, 1, 15), 1000000, 10, 4, domain.IntervalMonthly, domain.LoanStatusPaid)
	payments := []*domain.Payment{newTestPayment(loan.ID, 1100000, domain.NewDate(2024, 2, 15))}
	deps.loans.On("GetByID", mock.Anything, testActor.UserID, loan.ID).Return(loan, nil)
	deps.loans.On("Update", mock.Anything, loan).Return(loan, payments, nil)

	updated, err := svc.Update(context.Background(), testActor, loan.ID, &domain.UpdateLoanRequest{
		OriginationDate:  loan.OriginationDate,
		Principal:        decimal.NewFromInt(2000000),
		InterestRate:     loan.InterestRate,
		InstallmentCount: loan.InstallmentCount,
		PaymentInterval:  loan.PaymentInterval,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, updated.Status)
	assert.True(t, updated.Principal.Equal(decimal.NewFromInt(2000000)))
	deps.loans.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}

func TestLoanService_Delete(t *testing.T) {
	tests := []struct {
		name         string
		payments     int
		expectedCode string
	}{
		{name: "Success - loan without payments", payments: 0},
		{name: "Failure - loan with payments", payments: 2, expectedCode: customError.ErrCodeLoanHasPayments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newLoanService(fixedClock(2024, 2, 20))
			loan := newTestLoan(uuid.New(), domain.NewDate(2024, 1, 15), 1000000, 10, 4, domain.IntervalMonthly, domain.LoanStatusActive)
			deps.loans.On("GetByID", mock.Anything, testActor.UserID, loan.ID).Return(loan, nil)
			deps.loans.On("CountPayments", mock.Anything, loan.ID).Return(tt.payments, nil)
			deps.loans.On("Delete", mock.Anything, loan.ID).Return(nil)

			err := svc.Delete(context.Background(), testActor, loan.ID)

			if tt.expectedCode != "" {
				assertCode(t, err, tt.expectedCode)
				deps.loans.AssertNotCalled(t, "Delete", mock.Anything, loan.ID)
				return
			}
			require.NoError(t, err)
			deps.loans.AssertCalled(t, "Delete", mock.Anything, loan.ID)
		})
	}
}

func TestLoanService_GetSummary(t *testing.T) {
	svc, deps := newLoanService(fixedClock(2024, 4, 1))
	client := &domain.Client{ID: uuid.New(), Name: "Ana Benítez"}
	loan := newTestLoan(client.ID, domain.NewDate(2024, 1, 15), 1000000, 10, 4, domain.IntervalMonthly, domain.LoanStatusActive)
	payments := []*domain.Payment{newTestPayment(loan.ID, 275000, domain.NewDate(2024, 2, 15))}

	deps.loans.On("GetByID", mock.Anything, testActor.UserID, loan.ID).Return(loan, nil)
	deps.payments.On("ListByLoan", mock.Anything, loan.ID).Return(payments, nil)
	deps.clients.On("GetByID", mock.Anything, testActor.UserID, client.ID).Return(client, nil)

	detail, err := svc.Get(context.Background(), testActor, loan.ID)
	require.NoError(t, err)

	assert.Equal(t, client, detail.Client)
	assert.Len(t, detail.Schedule, 4)
	assert.Equal(t, 1, detail.Summary.InstallmentsPaid)
	assert.Equal(t, 1, detail.Summary.OverdueCount, "2024-03-15 is overdue on 2024-04-01")
	assert.True(t, detail.Summary.Outstanding.Equal(decimal.NewFromInt(825000)))
	require.NotNil(t, detail.Summary.NextDue)
	assert.Equal(t, 2, detail.Summary.NextDue.Index)
}

func TestLoanService_Outstanding(t *testing.T) {
	svc, deps := newLoanService(fixedClock(2024, 4, 1))
	loan := newTestLoan(uuid.New(), domain.NewDate(2024, 1, 15), 999, 3, 3, domain.IntervalWeekly, domain.LoanStatusActive)
	payments := []*domain.Payment{newTestPayment(loan.ID, 500, domain.NewDate(2024, 1, 22))}

	deps.loans.On("GetByID", mock.Anything, testActor.UserID, loan.ID).Return(loan, nil)
	deps.payments.On("ListByLoan", mock.Anything, loan.ID).Return(payments, nil)

	result, err := svc.Outstanding(context.Background(), testActor, loan.ID)
	require.NoError(t, err)

	assert.Equal(t, "1028.97", result.TotalPayable.String())
	assert.Equal(t, "528.97", result.Outstanding.String())
}

func TestLoanService_SearchEmptyTermListsAll(t *testing.T) {
	svc, deps := newLoanService(fixedClock(2024, 4, 1))
	deps.loans.On("List", mock.Anything, domain.LoanFilter{OwnerID: testActor.UserID}).Return([]*domain.Loan{}, nil)

	loans, err := svc.Search(context.Background(), testActor, "   ")
	require.NoError(t, err)
	assert.Empty(t, loans)
	deps.loans.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}
