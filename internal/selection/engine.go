// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package selection

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jmoreau78/audiotheca/internal/models"
)

// Selected is one engine result: the chosen identifier, the deterministic
// identifier-derived cover path, and the soft-fallback match count (zero
// when the pool came from strict matching or aggressive fallback).
type Selected struct {
	ID         uuid.UUID
	CoverPath  string
	MatchCount int
}

// Result is the outcome of one selection call. PoolSize is the candidate
// count before truncation to the limit; FallbackUsed reports whether the
// strict-match set was empty and the fallback resolver ran.
type Result struct {
	Items        []Selected
	PoolSize     int
	FallbackUsed bool
}

// Engine evaluates selection queries against catalog snapshots. It is
// stateless apart from its logger and random-source factory and is safe
// for concurrent use.
type Engine struct {
	logger  zerolog.Logger
	newRand func() *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandSource overrides the per-call random source factory. Tests use
// this to fix seeds; the default draws a fresh time-seeded source per call
// so concurrent selections never share generator state.
func WithRandSource(fn func() *rand.Rand) Option {
	return func(e *Engine) { e.newRand = fn }
}

// NewEngine creates a selection engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger: logger.With().Str("component", "selection").Logger(),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Select evaluates the query against the snapshot and returns the ordered,
// truncated result. The snapshot is read-only and is consumed in its given
// order, which serves as the final tie-break everywhere.
//
// Validation failures surface as *ValidationError before any evaluation.
// An empty result is a normal outcome, not an error.
func (e *Engine) Select(snapshot []models.Media, q Query, opts Options) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	pq := prepareQuery(q)
	cands := indexSnapshot(snapshot)

	// The never-relaxed predicate: active, media type, provider, exclusion
	// identifiers, NoneOf. Composed once, applied identically in strict
	// matching and in every fallback branch.
	exclude := make(map[uuid.UUID]struct{}, len(opts.ExcludeIDs))
	for _, id := range opts.ExcludeIDs {
		exclude[id] = struct{}{}
	}
	neverRelaxed := func(c *candidate) bool {
		if !c.media.IsActive {
			return false
		}
		if opts.MediaType != "" && c.media.Type != opts.MediaType {
			return false
		}
		if opts.Provider != "" && c.media.Provider != opts.Provider {
			return false
		}
		if _, excluded := exclude[c.media.ID]; excluded {
			return false
		}
		for i := range pq.noneOf {
			if c.matches(&pq.noneOf[i]) {
				return false
			}
		}
		return true
	}

	base := make([]*candidate, 0, len(cands))
	for i := range cands {
		if neverRelaxed(&cands[i]) {
			base = append(base, &cands[i])
		}
	}

	pool := evalStrict(base, pq.allOf, pq.anyOf)
	fallbackUsed := false

	if len(pool) == 0 && opts.Fallback != FallbackNone {
		fallbackUsed = true
		switch opts.Fallback {
		case FallbackAggressive:
			pool = e.relaxAggressive(base, pq)
		case FallbackSoft:
			pool = scoreSoft(base, pq)
		}
	} else if len(pool) == 0 {
		fallbackUsed = true
	}

	poolSize := len(pool)
	if opts.Random {
		shuffleTiers(e.newRand(), pool)
	}
	if len(pool) > opts.Limit {
		pool = pool[:opts.Limit]
	}

	items := make([]Selected, 0, len(pool))
	for _, r := range pool {
		items = append(items, Selected{
			ID:         r.cand.media.ID,
			CoverPath:  r.cand.media.ID.String() + ".jpg",
			MatchCount: r.count,
		})
	}

	e.logger.Debug().
		Int("snapshot", len(snapshot)).
		Int("pool", poolSize).
		Int("returned", len(items)).
		Bool("fallback_used", fallbackUsed).
		Str("fallback", string(opts.Fallback)).
		Msg("selection evaluated")

	return Result{Items: items, PoolSize: poolSize, FallbackUsed: fallbackUsed}, nil
}

// prepCriterion is a criterion with its value set normalized for matching.
type prepCriterion struct {
	category string
	values   map[string]struct{}
}

type prepQuery struct {
	allOf  []prepCriterion
	noneOf []prepCriterion
	anyOf  []prepCriterion

	// pooled is AllOf then AnyOf in declaration order; soft fallback scores
	// and tie-breaks over this sequence.
	pooled []prepCriterion
}

func prepareQuery(q Query) prepQuery {
	pq := prepQuery{
		allOf:  prepareCriteria(q.AllOf),
		noneOf: prepareCriteria(q.NoneOf),
		anyOf:  prepareCriteria(q.AnyOf),
	}
	pq.pooled = make([]prepCriterion, 0, len(pq.allOf)+len(pq.anyOf))
	pq.pooled = append(pq.pooled, pq.allOf...)
	pq.pooled = append(pq.pooled, pq.anyOf...)
	return pq
}

func prepareCriteria(criteria []Criterion) []prepCriterion {
	if len(criteria) == 0 {
		return nil
	}
	out := make([]prepCriterion, 0, len(criteria))
	for _, c := range criteria {
		_, set := normalizeValueSet(c.Values)
		out = append(out, prepCriterion{category: c.Category, values: set})
	}
	return out
}

// candidate pairs a snapshot item with its position and a normalized tag
// index so each value is folded once per call, not once per comparison.
type candidate struct {
	media *models.Media
	pos   int
	tags  map[string]map[string]struct{}
}

func indexSnapshot(snapshot []models.Media) []candidate {
	cands := make([]candidate, len(snapshot))
	for i := range snapshot {
		tags := make(map[string]map[string]struct{}, len(snapshot[i].Tags))
		for _, t := range snapshot[i].Tags {
			norm := NormalizeToken(t.Value)
			if norm == "" {
				continue
			}
			set, ok := tags[t.Category]
			if !ok {
				set = make(map[string]struct{}, 2)
				tags[t.Category] = set
			}
			set[norm] = struct{}{}
		}
		cands[i] = candidate{media: &snapshot[i], pos: i, tags: tags}
	}
	return cands
}

// matches reports whether the candidate carries at least one tag in the
// criterion's category whose normalized value is acceptable. Categories
// compare exactly; values were normalized on both sides.
func (c *candidate) matches(pc *prepCriterion) bool {
	vals := c.tags[pc.category]
	if len(vals) == 0 {
		return false
	}
	for v := range pc.values {
		if _, ok := vals[v]; ok {
			return true
		}
	}
	return false
}

// ranked is a pool entry: count and vec are populated only by soft
// fallback, where they define rank tiers.
type ranked struct {
	cand  *candidate
	count int
	vec   []bool
}

func matchesAll(c *candidate, criteria []prepCriterion) bool {
	for i := range criteria {
		if !c.matches(&criteria[i]) {
			return false
		}
	}
	return true
}

func matchesAny(c *candidate, criteria []prepCriterion) bool {
	for i := range criteria {
		if c.matches(&criteria[i]) {
			return true
		}
	}
	return false
}

// evalStrict applies the tag conditions to candidates that already passed
// the never-relaxed predicate, preserving snapshot order.
func evalStrict(base []*candidate, allOf, anyOf []prepCriterion) []ranked {
	var pool []ranked
	for _, c := range base {
		if !matchesAll(c, allOf) {
			continue
		}
		if len(anyOf) > 0 && !matchesAny(c, anyOf) {
			continue
		}
		pool = append(pool, ranked{cand: c})
	}
	return pool
}

// relaxAggressive removes the last-declared AllOf criterion and re-runs the
// full strict evaluation, repeating until something matches or every AllOf
// criterion is gone. AnyOf and the never-relaxed predicate stay fixed
// throughout. Each step is an independent re-evaluation over the base set,
// never an incremental merge.
func (e *Engine) relaxAggressive(base []*candidate, pq prepQuery) []ranked {
	for keep := len(pq.allOf) - 1; keep >= 0; keep-- {
		if pool := evalStrict(base, pq.allOf[:keep], pq.anyOf); len(pool) > 0 {
			e.logger.Debug().
				Int("kept_criteria", keep).
				Int("pool", len(pool)).
				Msg("aggressive fallback matched")
			return pool
		}
	}
	return nil
}

// scoreSoft keeps every candidate matching at least one pooled criterion
// (AllOf ∪ AnyOf) and orders them by descending match count, then by the
// match vector over the pooled declaration sequence so that an item
// matching an earlier-declared criterion beats an otherwise-equal one, then
// by snapshot order via the stable sort.
func scoreSoft(base []*candidate, pq prepQuery) []ranked {
	if len(pq.pooled) == 0 {
		return nil
	}
	var pool []ranked
	for _, c := range base {
		vec := make([]bool, len(pq.pooled))
		count := 0
		for i := range pq.pooled {
			if c.matches(&pq.pooled[i]) {
				vec[i] = true
				count++
			}
		}
		if count > 0 {
			pool = append(pool, ranked{cand: c, count: count, vec: vec})
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].count != pool[j].count {
			return pool[i].count > pool[j].count
		}
		for k := range pool[i].vec {
			if pool[i].vec[k] != pool[j].vec[k] {
				return pool[i].vec[k]
			}
		}
		return false
	})
	return pool
}

// shuffleTiers permutes pool entries uniformly inside each run of equal
// rank. Strict and aggressive pools carry no rank, so the whole pool is one
// tier; soft pools shuffle only within equal (count, vector) runs, keeping
// randomness from ever crossing a rank boundary.
func shuffleTiers(rng *rand.Rand, pool []ranked) {
	start := 0
	for i := 1; i <= len(pool); i++ {
		if i < len(pool) && sameTier(&pool[i-1], &pool[i]) {
			continue
		}
		tier := pool[start:i]
		rng.Shuffle(len(tier), func(a, b int) {
			tier[a], tier[b] = tier[b], tier[a]
		})
		start = i
	}
}

func sameTier(a, b *ranked) bool {
	if a.count != b.count || len(a.vec) != len(b.vec) {
		return false
	}
	for i := range a.vec {
		if a.vec[i] != b.vec[i] {
			return false
		}
	}
	return true
}
