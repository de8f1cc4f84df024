package management

import (
	"context"

	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/repository"
	"prospectai_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Board returns the funnel view of a salesperson. Salespeople always get
// their own board; managers may name any salesperson of the company.
func (s *Service) Board(ctx context.Context, actor domain.Actor, salespersonID *uuid.UUID) (domain.Board, error) {
	target, err := s.boardOwner(actor, salespersonID)
	if err != nil {
		return domain.Board{}, err
	}

	var (
		p      *domain.Pipeline
		leads  []domain.Lead
		member domain.Member
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = s.pipelines.Load(gctx, actor.TenantID)
		return err
	})
	g.Go(func() error {
		var err error
		leads, err = s.repo.ListLeads(gctx, actor.TenantID, repository.LeadFilter{VisibleTo: &target})
		return err
	})
	g.Go(func() error {
		var err error
		member, err = s.repo.GetMember(gctx, actor.TenantID, target)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Board{}, err
	}

	return domain.BuildBoard(p, leads, target, member.Deadlines, s.now(), s.loc), nil
}

// ProspectingLock reports whether the salesperson must give feedback on
// earlier leads before picking up new ones.
func (s *Service) ProspectingLock(ctx context.Context, actor domain.Actor, salespersonID *uuid.UUID) (domain.LockState, error) {
	target, err := s.boardOwner(actor, salespersonID)
	if err != nil {
		return domain.LockState{}, err
	}

	var (
		p     *domain.Pipeline
		leads []domain.Lead
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = s.pipelines.Load(gctx, actor.TenantID)
		return err
	})
	g.Go(func() error {
		var err error
		leads, err = s.repo.ListLeads(gctx, actor.TenantID, repository.LeadFilter{OwnedBy: &target})
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.LockState{}, err
	}

	return domain.ProspectingLock(p, leads, target, s.now(), s.loc), nil
}

func (s *Service) boardOwner(actor domain.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if requested == nil || *requested == actor.ID {
		return actor.ID, nil
	}
	if !actor.IsManager {
		return uuid.Nil, apperr.Forbidden("salespeople can only see their own board")
	}
	return *requested, nil
}
