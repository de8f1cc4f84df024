// Package performance computes funnel metrics and the monthly leads KPI.
package performance

import (
	"context"
	"time"

	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/repository"
	"prospectai_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Repository is the storage the performance service needs.
type Repository interface {
	repository.LeadReader
	repository.CompanySettingsStore
}

// PipelineLoader returns the validated pipeline of a company.
type PipelineLoader interface {
	Load(ctx context.Context, tenantID uuid.UUID) (*domain.Pipeline, error)
}

// Service aggregates lead data into reports.
type Service struct {
	repo      Repository
	pipelines PipelineLoader
	loc       *time.Location
	now       func() time.Time
}

// New creates a performance service.
func New(repo Repository, pipelines PipelineLoader, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, pipelines: pipelines, loc: loc, now: time.Now}
}

// Query selects the leads a report covers. An explicit From/To overrides Period.
type Query struct {
	Period        domain.Period
	From          *time.Time
	To            *time.Time
	SalespersonID *uuid.UUID
}

// Report is the performance view returned to clients.
type Report struct {
	Period        domain.Period
	Range         domain.DateRange
	SalespersonID *uuid.UUID
	Metrics       domain.Metrics
	Stages        []domain.Stage
	// MonthlyLeads is set only when the KPI card is enabled and visible to the caller.
	MonthlyLeads *int
}

// ComputeMetrics builds the report for the actor. Salespeople only see
// their own leads.
func (s *Service) ComputeMetrics(ctx context.Context, actor domain.Actor, q Query) (Report, error) {
	scope, err := s.scope(actor, q.SalespersonID)
	if err != nil {
		return Report{}, err
	}
	r, err := s.dateRange(q)
	if err != nil {
		return Report{}, err
	}

	var (
		p        *domain.Pipeline
		leads    []domain.Lead
		settings domain.CompanySettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = s.pipelines.Load(gctx, actor.TenantID)
		return err
	})
	g.Go(func() error {
		var err error
		leads, err = s.repo.ListLeads(gctx, actor.TenantID, repository.LeadFilter{
			OwnedBy:      scope,
			CreatedFrom:  r.From,
			CreatedUntil: r.To,
		})
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.repo.GetCompanySettings(gctx, actor.TenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{
		Period:        q.Period,
		Range:         r,
		SalespersonID: scope,
		Metrics:       domain.ComputeMetrics(p, leads, r),
		Stages:        p.Stages(),
	}
	if report.Period == "" && r.From == nil && r.To == nil {
		report.Period = domain.PeriodAll
	}

	if settings.ShowMonthlyLeadsKPI.VisibleFor(actor.ID, actor.IsManager) {
		count, err := s.monthlyLeads(ctx, actor.TenantID, scope)
		if err != nil {
			return Report{}, err
		}
		report.MonthlyLeads = &count
	}
	return report, nil
}

func (s *Service) monthlyLeads(ctx context.Context, tenantID uuid.UUID, scope *uuid.UUID) (int, error) {
	month, err := domain.RangeForPeriod(domain.PeriodThisMonth, s.now(), s.loc)
	if err != nil {
		return 0, err
	}
	return s.repo.CountLeadsCreatedSince(ctx, tenantID, scope, *month.From)
}

func (s *Service) scope(actor domain.Actor, requested *uuid.UUID) (*uuid.UUID, error) {
	if !actor.IsManager {
		if requested != nil && *requested != actor.ID {
			return nil, apperr.Forbidden("salespeople can only see their own performance")
		}
		id := actor.ID
		return &id, nil
	}
	return requested, nil
}

func (s *Service) dateRange(q Query) (domain.DateRange, error) {
	if q.From != nil || q.To != nil {
		if q.From != nil && q.To != nil && !q.From.Before(*q.To) {
			return domain.DateRange{}, apperr.Validation("from must be before to")
		}
		return domain.DateRange{From: q.From, To: q.To}, nil
	}
	return domain.RangeForPeriod(q.Period, s.now(), s.loc)
}

// GetKPISettings returns the monthly leads KPI configuration.
func (s *Service) GetKPISettings(ctx context.Context, actor domain.Actor) (domain.MonthlyLeadsKPI, error) {
	settings, err := s.repo.GetCompanySettings(ctx, actor.TenantID)
	if err != nil {
		return domain.MonthlyLeadsKPI{}, err
	}
	return settings.ShowMonthlyLeadsKPI, nil
}

// UpdateKPISettings replaces the monthly leads KPI configuration.
func (s *Service) UpdateKPISettings(ctx context.Context, actor domain.Actor, kpi domain.MonthlyLeadsKPI) (domain.MonthlyLeadsKPI, error) {
	if !actor.IsManager {
		return domain.MonthlyLeadsKPI{}, apperr.Forbidden("only managers can change KPI settings")
	}
	if kpi.VisibleToAll {
		kpi.VisibleTo = nil
	}
	if err := s.repo.SaveCompanySettings(ctx, actor.TenantID, domain.CompanySettings{ShowMonthlyLeadsKPI: kpi}); err != nil {
		return domain.MonthlyLeadsKPI{}, err
	}
	return kpi, nil
}
