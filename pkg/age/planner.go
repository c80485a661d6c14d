package age

import (
	"errors"

	"github.com/orneryd/agego/pkg/cache"
	"github.com/orneryd/agego/pkg/cypher"
	"github.com/orneryd/agego/pkg/storage"
	"github.com/sirupsen/logrus"
)

// Planner returns the projection plan of a query, consulting an in-memory
// LRU first, then a persistent plan store, and synthesizing on a miss.
// Either tier may be nil. Store failures are logged and counted but never
// fail the lookup, since a plan can always be synthesized again.
type Planner struct {
	cache   *cache.PlanCache
	store   *storage.PlanStore
	metrics *Metrics
	log     *logrus.Entry
}

// NewPlanner creates a planner over the given tiers.
func NewPlanner(c *cache.PlanCache, s *storage.PlanStore) *Planner {
	return &Planner{
		cache: c,
		store: s,
		log:   logrus.WithField("component", "Planner"),
	}
}

// Plan returns the plan for query.
func (p *Planner) Plan(query string) cypher.Plan {
	if p == nil {
		return cypher.NewPlan(query)
	}

	if p.cache != nil {
		if plan, ok := p.cache.Get(query); ok {
			p.metrics.RecordPlanLookup(planSourceMemory)
			return plan
		}
	}

	if p.store != nil {
		rec, err := p.store.Get(query)
		switch {
		case err == nil:
			p.metrics.RecordPlanLookup(planSourceStore)
			if p.cache != nil {
				p.cache.Put(query, rec.Plan)
			}
			return rec.Plan
		case !errors.Is(err, storage.ErrNotFound):
			p.storeFailed("get", err)
		}
	}

	plan := cypher.NewPlan(query)
	p.metrics.RecordPlanLookup(planSourceSynthesized)

	if p.cache != nil {
		p.cache.Put(query, plan)
	}
	if p.store != nil {
		if err := p.store.Put(query, plan); err != nil {
			p.storeFailed("put", err)
		}
	}
	return plan
}

// Forget drops query from both tiers.
func (p *Planner) Forget(query string) {
	if p == nil {
		return
	}
	if p.cache != nil {
		p.cache.Remove(query)
	}
	if p.store != nil {
		if err := p.store.Delete(query); err != nil && !errors.Is(err, storage.ErrNotFound) {
			p.storeFailed("delete", err)
		}
	}
}

func (p *Planner) storeFailed(op string, err error) {
	p.metrics.RecordPlanStoreError()
	p.log.WithFields(logrus.Fields{
		"op":    op,
		"error": err,
	}).Warn("plan store operation failed")
}

// SetMetrics attaches metrics to the planner.
func (p *Planner) SetMetrics(m *Metrics) { p.metrics = m }

// SetLogger replaces the planner's log entry.
func (p *Planner) SetLogger(log *logrus.Entry) {
	p.log = log.WithField("component", "Planner")
}
