// Package interop materializes the entities of the authorization graph as
// read-only projections over a remote statement store. Every entity is a
// snapshot keyed by its URI: a fixed set of per-predicate lookups issued as
// one fan-out, memoized by a per-type cache until the session ends.
package interop

import (
	"context"
	"sync"

	"github.com/arya-analytics/aegis/pkg/graph"
	"github.com/arya-analytics/aegis/pkg/rdf"
)

// StateSource notifies the service of session activation transitions.
type StateSource interface {
	OnStateChange(observe func(active bool))
}

type Config struct {
	// Store resolves statement lookups for the projections.
	Store graph.Store
	// Session invalidates all caches on its inactive transition. Optional.
	Session StateSource
}

// Service provides cached, typed reads of the authorization graph. All
// construction goes through the caches; projections are never built
// directly against the store.
type Service struct {
	AccessRequests       *graph.Cache[AccessRequest]
	AccessNeedGroups     *graph.Cache[AccessNeedGroup]
	AccessNeeds          *graph.Cache[AccessNeed]
	DataAuthorizations   *graph.Cache[DataAuthorization]
	AccessAuthorizations *graph.Cache[AccessAuthorization]
	AccessReceipts       *graph.Cache[AccessReceipt]
}

func OpenService(cfg Config) *Service {
	s := &Service{
		AccessRequests:       graph.NewCache(loadAccessRequest(cfg.Store)),
		AccessNeedGroups:     graph.NewCache(loadAccessNeedGroup(cfg.Store)),
		AccessNeeds:          graph.NewCache(loadAccessNeed(cfg.Store)),
		DataAuthorizations:   graph.NewCache(loadDataAuthorization(cfg.Store)),
		AccessAuthorizations: graph.NewCache(loadAccessAuthorization(cfg.Store)),
		AccessReceipts:       graph.NewCache(loadAccessReceipt(cfg.Store)),
	}
	if cfg.Session != nil {
		cfg.Session.OnStateChange(func(active bool) {
			if !active {
				s.InvalidateAll()
			}
		})
	}
	return s
}

// InvalidateAll drops every cached projection. Subsequent reads reload.
func (s *Service) InvalidateAll() {
	s.AccessRequests.InvalidateAll()
	s.AccessNeedGroups.InvalidateAll()
	s.AccessNeeds.InvalidateAll()
	s.DataAuthorizations.InvalidateAll()
	s.AccessAuthorizations.InvalidateAll()
	s.AccessReceipts.InvalidateAll()
}

// lookup binds one predicate to the field receiving its objects.
type lookup struct {
	predicate string
	into      *[]string
}

// resolve issues every lookup concurrently and waits for all of them. A
// failed lookup leaves its field empty rather than failing the read; the
// projection degrades to "no value" instead of an error.
func resolve(ctx context.Context, store graph.Store, uri string, lookups []lookup) {
	var wg sync.WaitGroup
	wg.Add(len(lookups))
	for _, l := range lookups {
		l := l
		go func() {
			defer wg.Done()
			statements, err := store.FetchStatements(ctx, uri, l.predicate)
			if err != nil {
				return
			}
			*l.into = rdf.Objects(statements)
		}()
	}
	wg.Wait()
}

// first reduces a single-valued attribute to its first value or "absent".
func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
