package correlate

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// Default Tier 4 concurrency and timeouts (spec §5).
const (
	AISearchConcurrency  = 5
	WebSearchConcurrency = 10
	AISearchTimeout      = 180 * time.Second
	WebSearchTimeout     = 120 * time.Second
	RateLimitHaltBelow   = 5
)

// AISearchResult is the JSON shape an LLM web-search collaborator returns.
type AISearchResult struct {
	NexusModID int64
	Confidence float64
	Reasoning  string
	NexusURL   string
}

// WebSearchResult is the JSON shape a deterministic search-API collaborator
// returns.
type WebSearchResult struct {
	NexusModID int64
	Score      float64
}

// AISearchFunc performs one semantic search call for a single ModGroup.
type AISearchFunc func(ctx context.Context, group model.ModGroup, endorsedHints []string) (AISearchResult, error)

// WebSearchFunc performs one deterministic search-API call for a single
// ModGroup.
type WebSearchFunc func(ctx context.Context, group model.ModGroup) (WebSearchResult, error)

// HourlyRemainingFunc reports the catalog's last-observed hourly
// rate-limit remaining count.
type HourlyRemainingFunc func() int

// extractNexusIDFromURL pulls a trailing numeric id from a Nexus mod URL
// (".../mods/1234") when the AI search result didn't set NexusModID
// directly.
func extractNexusIDFromURL(url string) int64 {
	url = strings.TrimRight(url, "/")
	idx := strings.LastIndexByte(url, '/')
	if idx < 0 {
		return 0
	}
	digits := url[idx+1:]
	if digits == "" {
		return 0
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0
		}
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// RunAISearch fans out the semantic path over uncorrelated groups under a
// bounded semaphore, honouring the tier timeout and halting further calls
// once the catalog's hourly-remaining budget drops below the floor.
func RunAISearch(ctx context.Context, groups []model.ModGroup, endorsedHints []string, search AISearchFunc, hourlyRemaining HourlyRemainingFunc) ([]model.ModNexusCorrelation, error) {
	return runTier4(ctx, groups, AISearchConcurrency, AISearchTimeout, hourlyRemaining, func(ctx context.Context, g model.ModGroup) (model.ModNexusCorrelation, bool, error) {
		res, err := search(ctx, g, endorsedHints)
		if err != nil {
			return model.ModNexusCorrelation{}, false, err
		}
		id := res.NexusModID
		if id == 0 {
			id = extractNexusIDFromURL(res.NexusURL)
		}
		if id == 0 {
			return model.ModNexusCorrelation{}, false, nil
		}
		confidence := res.Confidence
		if confidence > 0.90 {
			confidence = 0.90
		}
		return model.ModNexusCorrelation{
			ModGroupID: g.ID,
			NexusModID: id,
			Score:      confidence,
			Method:     model.MethodAISearch,
			Reasoning:  res.Reasoning,
		}, true, nil
	})
}

// RunWebSearch fans out the deterministic path, same bounding discipline
// as RunAISearch but with its own concurrency/timeout/threshold.
func RunWebSearch(ctx context.Context, groups []model.ModGroup, search WebSearchFunc, hourlyRemaining HourlyRemainingFunc) ([]model.ModNexusCorrelation, error) {
	return runTier4(ctx, groups, WebSearchConcurrency, WebSearchTimeout, hourlyRemaining, func(ctx context.Context, g model.ModGroup) (model.ModNexusCorrelation, bool, error) {
		res, err := search(ctx, g)
		if err != nil {
			return model.ModNexusCorrelation{}, false, err
		}
		if res.Score <= 0.5 {
			return model.ModNexusCorrelation{}, false, nil
		}
		score := res.Score
		if score > 0.85 {
			score = 0.85
		}
		return model.ModNexusCorrelation{
			ModGroupID: g.ID,
			NexusModID: res.NexusModID,
			Score:      score,
			Method:     model.MethodWebSearch,
		}, true, nil
	})
}

type rateLimitHalt struct{}

func (rateLimitHalt) Error() string { return "hourly rate-limit budget exhausted, tier halted" }

func runTier4(
	parent context.Context,
	groups []model.ModGroup,
	concurrency int,
	timeout time.Duration,
	hourlyRemaining HourlyRemainingFunc,
	call func(ctx context.Context, g model.ModGroup) (model.ModNexusCorrelation, bool, error),
) ([]model.ModNexusCorrelation, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]*model.ModNexusCorrelation, len(groups))
	var halted bool

	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			if hourlyRemaining != nil && hourlyRemaining() < RateLimitHaltBelow {
				halted = true
				return rateLimitHalt{}
			}
			corr, ok, err := call(gctx, group)
			if err != nil {
				return err
			}
			if ok {
				results[i] = &corr
			}
			return nil
		})
	}

	err := g.Wait()
	// A rate-limit halt is terminal for the tier but not an error the
	// caller needs propagated — partial results are final per spec §5.
	if err != nil && !halted {
		if _, isHalt := err.(rateLimitHalt); !isHalt {
			return partial(results), err
		}
	}
	return partial(results), nil
}

func partial(results []*model.ModNexusCorrelation) []model.ModNexusCorrelation {
	out := make([]model.ModNexusCorrelation, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
