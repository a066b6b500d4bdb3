package engine

import (
	"context"
	"log"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/plati-tools/platiscout/internal/classify"
	"github.com/plati-tools/platiscout/internal/parser"
	"github.com/plati-tools/platiscout/internal/plati"
	"github.com/plati-tools/platiscout/internal/pricing"
	"github.com/plati-tools/platiscout/internal/reliability"
	"github.com/plati-tools/platiscout/internal/types"
)

// Fetcher is the marketplace access surface the engine depends on.
// *plati.Client satisfies it; tests substitute a fake.
type Fetcher interface {
	SearchPage(ctx context.Context, query string, page, perPage int, currency, lang string) (*plati.SearchContent, error)
	ProductData(ctx context.Context, productID int64, currency, lang string) (*plati.ProductResponse, error)
	SellerReviews(ctx context.Context, sellerID int64, lang string) (*plati.ReviewsResponse, error)
	CategoryPage(ctx context.Context, categoryID string, page, perPage int, currency, lang string) ([]plati.SearchItem, bool, error)
}

// Engine runs the full query pipeline: paginate, fetch details,
// parse, score, resolve prices, filter, rank, truncate. One Engine is
// safe for concurrent Search calls; all per-query state is local.
type Engine struct {
	fetcher    Fetcher
	classifier classify.OfferClassifier
	config     *types.Config
	logger     *log.Logger
	debug      bool
}

// New creates an engine. A nil classifier gets the built-in deny list.
func New(fetcher Fetcher, classifier classify.OfferClassifier, cfg *types.Config) *Engine {
	if classifier == nil {
		classifier = classify.NewDenyListClassifier()
	}
	return &Engine{
		fetcher:    fetcher,
		classifier: classifier,
		config:     cfg,
		logger:     log.New(os.Stderr, "[Engine] ", log.LstdFlags),
		debug:      cfg.Debug,
	}
}

type detailResult struct {
	item   plati.SearchItem
	detail *plati.ProductResponse
	err    error
}

// Search executes one query end to end. Invalid criteria and context
// cancellation are the only fatal outcomes; per-lot fetch, parse and
// price failures are counted in the result stats and the affected lot
// or variant is dropped or degraded.
func (e *Engine) Search(ctx context.Context, criteria types.SearchCriteria) (*types.RankedResultSet, error) {
	e.applyDefaults(&criteria)
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	searchID := uuid.NewString()
	var stats types.FetchStats

	items := e.collectItems(ctx, criteria, &stats)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.debug {
		e.logger.Printf("search %s: %d candidate lots across %d pages", searchID, len(items), stats.PagesScanned)
	}

	details := e.fetchDetails(ctx, items, criteria, &stats)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lots, err := e.buildLots(ctx, details, criteria, &stats)
	if err != nil {
		return nil, err
	}

	stats.LotsScanned = len(items)

	planner := NewPlanner(criteria, e.classifier)
	offers, rawCount := planner.Plan(lots)
	filteredCount := len(offers)
	if len(offers) > criteria.Limit {
		offers = offers[:criteria.Limit]
	}
	if offers == nil {
		offers = []types.RankedOffer{}
	}

	if e.debug {
		e.logger.Printf("search %s: %d lots, %d candidate offers, %d after filters, returning %d",
			searchID, len(items), rawCount, filteredCount, len(offers))
	}

	return &types.RankedResultSet{
		SearchID:       searchID,
		Query:          criteria.Query,
		Offers:         offers,
		RawCount:       rawCount,
		FilteredCount:  filteredCount,
		FiltersApplied: criteria,
		Stats:          stats,
	}, nil
}

// applyDefaults normalizes the query input and fills unset fields from
// the configured deployment profile. An explicit zero min_reviews or
// min_positive_ratio is a valid value and stays as given.
func (e *Engine) applyDefaults(criteria *types.SearchCriteria) {
	in := plati.ParseQueryInput(criteria.Query)
	criteria.Query = in.ProductQuery
	if criteria.CategoryID == "" {
		criteria.CategoryID = in.CategoryID
	}
	if criteria.SourceURL == "" {
		criteria.SourceURL = in.SourceURL
	}

	if criteria.Limit == 0 {
		criteria.Limit = e.config.DefaultLimit
	}
	if criteria.SortBy == "" {
		criteria.SortBy = types.SortPriceAsc
	}
	if criteria.MaxPages == 0 {
		criteria.MaxPages = 6
	}
	if criteria.PerPage == 0 {
		criteria.PerPage = 30
	}
	if criteria.Currency == "" {
		criteria.Currency = "RUB"
	}
	if criteria.Lang == "" {
		criteria.Lang = "ru-RU"
	}
}

// collectItems paginates the search or category listing, deduplicating
// by product id across pages. A page fetch failure after retries stops
// pagination; what was already collected stands.
func (e *Engine) collectItems(ctx context.Context, criteria types.SearchCriteria, stats *types.FetchStats) []plati.SearchItem {
	seen := make(map[int64]bool)
	var items []plati.SearchItem

	for page := 1; page <= criteria.MaxPages; page++ {
		if ctx.Err() != nil {
			return items
		}

		pageItems, hasNext, err := e.fetchPage(ctx, criteria, page)
		if err != nil {
			stats.FetchFailures++
			if e.debug {
				e.logger.Printf("page %d fetch failed: %v", page, err)
			}
			return items
		}
		stats.PagesScanned++
		if len(pageItems) == 0 {
			return items
		}

		for _, item := range pageItems {
			if item.ProductID <= 0 || seen[item.ProductID] {
				continue
			}
			seen[item.ProductID] = true
			items = append(items, item)
		}
		if !hasNext {
			return items
		}
	}
	return items
}

func (e *Engine) fetchPage(ctx context.Context, criteria types.SearchCriteria, page int) ([]plati.SearchItem, bool, error) {
	if criteria.CategoryID != "" {
		return e.fetcher.CategoryPage(ctx, criteria.CategoryID, page, criteria.PerPage, criteria.Currency, criteria.Lang)
	}
	content, err := e.fetcher.SearchPage(ctx, criteria.Query, page, criteria.PerPage, criteria.Currency, criteria.Lang)
	if err != nil {
		return nil, false, err
	}
	return content.Items, content.HasNextPage, nil
}

// fetchDetails loads product detail payloads with bounded parallelism.
// Each worker writes only its own slot; errors stay in the slot and
// are classified later by the single orchestrating goroutine.
func (e *Engine) fetchDetails(ctx context.Context, items []plati.SearchItem, criteria types.SearchCriteria, stats *types.FetchStats) []detailResult {
	results := make([]detailResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			detail, err := e.fetcher.ProductData(gctx, item.ProductID, criteria.Currency, criteria.Lang)
			results[i] = detailResult{item: item, detail: detail, err: err}
			return nil
		})
	}
	// Workers never return errors, so Wait only synchronizes.
	_ = g.Wait()

	for _, r := range results {
		if r.err != nil {
			stats.FetchFailures++
		}
	}
	return results
}

// buildLots parses detail payloads, stamps seller reliability and
// resolves variant prices. Seller reviews are fetched once per
// distinct seller and cached for the rest of the query.
func (e *Engine) buildLots(ctx context.Context, details []detailResult, criteria types.SearchCriteria, stats *types.FetchStats) ([]*types.Lot, error) {
	p := parser.New(e.config.MarketBaseURL, criteria.Lang, e.debug)
	resolver := pricing.NewResolver(criteria.Currency, criteria.Lang, e.debug)
	reviewCache := make(map[int64]types.ReliabilitySnapshot)

	var lots []*types.Lot
	for _, r := range details {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.err != nil {
			continue
		}

		lot, err := p.ParseLot(r.item, r.detail, criteria.Currency)
		if err != nil {
			stats.ParseFailures++
			if e.debug {
				e.logger.Printf("lot %d dropped: %v", r.item.ProductID, err)
			}
			continue
		}

		snapshot, err := e.sellerSnapshot(ctx, lot.Seller.ID, criteria.Lang, reviewCache)
		if err != nil {
			stats.FetchFailures++
		}
		parser.ApplyReviews(lot, snapshot)

		stats.PriceAnomalies += resolver.ResolveLot(lot)
		lots = append(lots, lot)
	}
	return lots, nil
}

// sellerSnapshot returns cached reliability for a seller, fetching on
// first sight. A failed fetch caches a zero snapshot so the same
// seller is not retried within the query.
func (e *Engine) sellerSnapshot(ctx context.Context, sellerID int64, lang string, cache map[int64]types.ReliabilitySnapshot) (types.ReliabilitySnapshot, error) {
	if sellerID <= 0 {
		return types.ReliabilitySnapshot{}, nil
	}
	if snapshot, ok := cache[sellerID]; ok {
		return snapshot, nil
	}

	reviews, err := e.fetcher.SellerReviews(ctx, sellerID, lang)
	if err != nil {
		cache[sellerID] = types.ReliabilitySnapshot{}
		return types.ReliabilitySnapshot{}, err
	}
	snapshot := reliability.FromReviews(reviews.TotalItems, reviews.TotalGood, reviews.TotalBad)
	cache[sellerID] = snapshot
	return snapshot, nil
}
