package report

import (
	"context"
	"errors"

	"IslandWar/internal/shared/errx"
	"IslandWar/internal/store"
)

const CodeReportNotFound errx.Code = "REPORT_NOT_FOUND"

var ErrReportNotFound = errx.NewBiz(CodeReportNotFound, "report not found")

// Service is the inbox: list own reports newest-first, mark them read.
// Reports are immutable apart from the Read flag.
type Service struct {
	store   store.Store
	worldID string
}

func NewService(st store.Store, worldID string) *Service {
	return &Service{store: st, worldID: worldID}
}

func (s *Service) List(ctx context.Context, ownerID string, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Report
	q := store.Query{
		Filters: []store.Filter{
			store.Eq("worldId", s.worldID),
			store.Eq("ownerId", ownerID),
		},
		OrderBy: "createdAt",
		Desc:    true,
		Limit:   limit,
	}
	if err := s.store.Query(ctx, Collection, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) MarkRead(ctx context.Context, ownerID, reportID string) error {
	return s.store.RunTransaction(ctx, func(tx store.Tx) error {
		var r Report
		if err := tx.Get(Collection, reportID, &r); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrReportNotFound
			}
			return err
		}
		if r.OwnerID != ownerID {
			return ErrReportNotFound
		}
		if r.Read {
			return nil
		}
		r.Read = true
		tx.Put(Collection, r.ID, &r)
		return nil
	})
}
