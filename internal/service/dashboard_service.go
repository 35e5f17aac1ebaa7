package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-manager/internal/domain"
	"github.com/segyhp/loan-manager/internal/metrics"
	"github.com/segyhp/loan-manager/internal/repository"
	"github.com/segyhp/loan-manager/internal/schedule"
	customError "github.com/segyhp/loan-manager/pkg/errors"
	"github.com/segyhp/loan-manager/pkg/utils"
)

const topClientsLimit = 5

type DashboardService struct {
	LoanRepo    repository.LoanRepository
	PaymentRepo repository.PaymentRepository
	ClientRepo  repository.ClientRepository
	engine      *schedule.Engine
	cache       DashboardCache
	metrics     *metrics.Metrics
	clock       Clock
	window      int
}

func NewDashboardService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	clientRepo repository.ClientRepository,
	engine *schedule.Engine,
	cache DashboardCache,
	m *metrics.Metrics,
	clock Clock,
	upcomingWindowDays int,
) *DashboardService {
	return &DashboardService{
		LoanRepo:    loanRepo,
		PaymentRepo: paymentRepo,
		ClientRepo:  clientRepo,
		engine:      engine,
		cache:       cache,
		metrics:     m,
		clock:       clock,
		window:      upcomingWindowDays,
	}
}

// portfolio is one consistent read of an owner's loans, payments and clients.
type portfolio struct {
	loans    []*domain.Loan
	payments map[uuid.UUID][]*domain.Payment
	clients  map[uuid.UUID]*domain.Client
}

func (p *portfolio) clientName(id uuid.UUID) string {
	if c, ok := p.clients[id]; ok {
		return c.Name
	}
	return ""
}

// Metrics summarizes capital, interest and collections over the open loans
func (s *DashboardService) Metrics(ctx context.Context, actor domain.Actor) (*domain.DashboardMetrics, error) {
	var cached domain.DashboardMetrics
	if s.fromCache(ctx, actor, "metrics", &cached) {
		return &cached, nil
	}

	p, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	result := &domain.DashboardMetrics{
		CapitalLent:      decimal.Zero,
		ExpectedInterest: decimal.Zero,
		Collected:        decimal.Zero,
		Receivable:       decimal.Zero,
		LoansByStatus:    map[string]int{},
	}
	for _, loan := range p.loans {
		result.LoansByStatus[loan.Status]++
		if !loan.IsOpen() {
			continue
		}

		if loan.Status == domain.LoanStatusDelinquent {
			result.DelinquentLoans++
		} else {
			result.ActiveLoans++
		}

		total, err := s.engine.TotalPayable(loan)
		if err != nil {
			return nil, engineError(err)
		}
		paid, err := s.engine.AmountPaid(loan, p.payments[loan.ID])
		if err != nil {
			return nil, engineError(err)
		}

		result.CapitalLent = result.CapitalLent.Add(loan.Principal)
		result.ExpectedInterest = result.ExpectedInterest.Add(total.Sub(loan.Principal))
		result.Collected = result.Collected.Add(paid)
		result.Receivable = result.Receivable.Add(total.Sub(paid))
	}

	s.toCache(ctx, actor, "metrics", result)
	return result, nil
}

// Upcoming lists the next installment of each open loan falling due within days, soonest first
func (s *DashboardService) Upcoming(ctx context.Context, actor domain.Actor, days int) ([]*domain.DueItem, error) {
	if days <= 0 {
		days = s.window
	}
	view := fmt.Sprintf("upcoming:%d", days)

	var cached []*domain.DueItem
	if s.fromCache(ctx, actor, view, &cached) {
		return cached, nil
	}

	p, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	limit := today.AddDate(0, 0, days)

	items := []*domain.DueItem{}
	for _, loan := range p.loans {
		if !loan.IsOpen() {
			continue
		}
		next, err := s.engine.NextDue(loan, p.payments[loan.ID], s.clock.AsOf())
		if err != nil {
			return nil, engineError(err)
		}
		if next == nil || next.DueDate.Before(today) || next.DueDate.After(limit) {
			continue
		}
		items = append(items, &domain.DueItem{
			LoanID:     loan.ID,
			ClientID:   loan.ClientID,
			ClientName: p.clientName(loan.ClientID),
			Index:      next.Index,
			DueDate:    next.DueDate,
			Amount:     next.Amount,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DueDate.Before(items[j].DueDate)
	})

	s.toCache(ctx, actor, view, items)
	return items, nil
}

// Overdue lists every overdue installment across the open loans, most overdue first
func (s *DashboardService) Overdue(ctx context.Context, actor domain.Actor) ([]*domain.DueItem, error) {
	var cached []*domain.DueItem
	if s.fromCache(ctx, actor, "overdue", &cached) {
		return cached, nil
	}

	p, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	items := []*domain.DueItem{}
	for _, loan := range p.loans {
		if !loan.IsOpen() {
			continue
		}
		overdue, err := s.engine.Overdue(loan, p.payments[loan.ID], s.clock.AsOf())
		if err != nil {
			return nil, engineError(err)
		}
		for _, inst := range overdue {
			items = append(items, &domain.DueItem{
				LoanID:      loan.ID,
				ClientID:    loan.ClientID,
				ClientName:  p.clientName(loan.ClientID),
				Index:       inst.Index,
				DueDate:     inst.DueDate,
				Amount:      inst.Amount,
				DaysOverdue: inst.DaysOverdue,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DaysOverdue > items[j].DaysOverdue
	})

	s.toCache(ctx, actor, "overdue", items)
	return items, nil
}

// Calendar groups the pending installments of the open loans by due date within a YYYY-MM month
func (s *DashboardService) Calendar(ctx context.Context, actor domain.Actor, month string) ([]*domain.CalendarDay, error) {
	if month == "" {
		month = s.clock.Today().Format("2006-01")
	}
	start, end, err := utils.MonthBounds(month)
	if err != nil {
		return nil, customError.WrapValidation(err.Error(), err)
	}
	view := "calendar:" + month

	var cached []*domain.CalendarDay
	if s.fromCache(ctx, actor, view, &cached) {
		return cached, nil
	}

	p, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	from, to := domain.DateOf(start), domain.DateOf(end)
	byDate := map[domain.Date]*domain.CalendarDay{}
	for _, loan := range p.loans {
		if !loan.IsOpen() {
			continue
		}
		payments := p.payments[loan.ID]
		paidCount, err := s.engine.InstallmentsPaid(loan, payments)
		if err != nil {
			return nil, engineError(err)
		}
		outstanding, err := s.engine.OutstandingBalance(loan, payments)
		if err != nil {
			return nil, engineError(err)
		}
		if !outstanding.IsPositive() {
			continue
		}
		installments, err := s.engine.Schedule(loan)
		if err != nil {
			return nil, engineError(err)
		}

		for _, inst := range installments[paidCount:] {
			if inst.DueDate.Before(from) || !inst.DueDate.Before(to) {
				continue
			}
			day, ok := byDate[inst.DueDate]
			if !ok {
				day = &domain.CalendarDay{Date: inst.DueDate, Total: decimal.Zero}
				byDate[inst.DueDate] = day
			}
			day.Count++
			day.Total = day.Total.Add(inst.Amount)
			day.Items = append(day.Items, &domain.DueItem{
				LoanID:     loan.ID,
				ClientID:   loan.ClientID,
				ClientName: p.clientName(loan.ClientID),
				Index:      inst.Index,
				DueDate:    inst.DueDate,
				Amount:     inst.Amount,
			})
		}
	}

	days := make([]*domain.CalendarDay, 0, len(byDate))
	for _, day := range byDate {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})

	s.toCache(ctx, actor, view, days)
	return days, nil
}

// TopClients ranks clients by outstanding debt on open loans and by number of loans
func (s *DashboardService) TopClients(ctx context.Context, actor domain.Actor) (*domain.TopClientsResponse, error) {
	var cached domain.TopClientsResponse
	if s.fromCache(ctx, actor, "top-clients", &cached) {
		return &cached, nil
	}

	p, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	rankings := make(map[uuid.UUID]*domain.ClientRanking, len(p.clients))
	for id, client := range p.clients {
		rankings[id] = &domain.ClientRanking{ClientID: id, ClientName: client.Name, Debt: decimal.Zero}
	}

	for _, loan := range p.loans {
		r, ok := rankings[loan.ClientID]
		if !ok {
			continue
		}
		r.LoanCount++
		if !loan.IsOpen() {
			continue
		}
		outstanding, err := s.engine.OutstandingBalance(loan, p.payments[loan.ID])
		if err != nil {
			return nil, engineError(err)
		}
		r.Debt = r.Debt.Add(outstanding)
	}

	all := make([]*domain.ClientRanking, 0, len(rankings))
	for _, r := range rankings {
		all = append(all, r)
	}
	// Map iteration order is random; fix a base order before ranking.
	sort.Slice(all, func(i, j int) bool {
		if all[i].ClientName != all[j].ClientName {
			return all[i].ClientName < all[j].ClientName
		}
		return all[i].ClientID.String() < all[j].ClientID.String()
	})

	byDebt := make([]*domain.ClientRanking, 0, len(all))
	for _, r := range all {
		if r.Debt.IsPositive() {
			byDebt = append(byDebt, r)
		}
	}
	sort.SliceStable(byDebt, func(i, j int) bool {
		return byDebt[i].Debt.GreaterThan(byDebt[j].Debt)
	})

	byCount := make([]*domain.ClientRanking, 0, len(all))
	for _, r := range all {
		if r.LoanCount > 0 {
			byCount = append(byCount, r)
		}
	}
	sort.SliceStable(byCount, func(i, j int) bool {
		return byCount[i].LoanCount > byCount[j].LoanCount
	})

	result := &domain.TopClientsResponse{
		ByDebt:      truncate(byDebt, topClientsLimit),
		ByLoanCount: truncate(byCount, topClientsLimit),
	}
	s.toCache(ctx, actor, "top-clients", result)
	return result, nil
}

func (s *DashboardService) load(ctx context.Context, actor domain.Actor) (*portfolio, error) {
	loans, err := s.LoanRepo.List(ctx, domain.LoanFilter{OwnerID: actor.UserID})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	ids := make([]uuid.UUID, 0, len(loans))
	for _, loan := range loans {
		ids = append(ids, loan.ID)
	}
	payments, err := s.PaymentRepo.ListByLoans(ctx, ids)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	clients, err := s.ClientRepo.List(ctx, actor.UserID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	byID := make(map[uuid.UUID]*domain.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}

	return &portfolio{loans: loans, payments: payments, clients: byID}, nil
}

func (s *DashboardService) fromCache(ctx context.Context, actor domain.Actor, view string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, actor.UserID, s.cacheView(view), dest)
	if err != nil {
		slog.Warn("dashboard cache read failed", "view", view, "error", err)
		return false
	}
	s.metrics.CacheLookup(hit)
	return hit
}

func (s *DashboardService) toCache(ctx context.Context, actor domain.Actor, view string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, actor.UserID, s.cacheView(view), value); err != nil {
		slog.Warn("dashboard cache write failed", "view", view, "error", err)
	}
}

// cacheView scopes a view to the current day, since overdue and upcoming figures move with it.
func (s *DashboardService) cacheView(view string) string {
	return view + "@" + s.clock.Today().String()
}

func truncate(rankings []*domain.ClientRanking, n int) []*domain.ClientRanking {
	if len(rankings) > n {
		return rankings[:n]
	}
	return rankings
}
