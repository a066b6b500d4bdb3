package engine

import (
	"sort"
	"strings"

	"github.com/plati-tools/platiscout/internal/classify"
	"github.com/plati-tools/platiscout/internal/reliability"
	"github.com/plati-tools/platiscout/internal/types"
)

// Planner turns parsed lots into the filtered, deterministically
// ordered candidate sequence for one set of search criteria.
type Planner struct {
	criteria   types.SearchCriteria
	classifier classify.OfferClassifier
}

// NewPlanner creates a planner for one invocation
func NewPlanner(criteria types.SearchCriteria, classifier classify.OfferClassifier) *Planner {
	if classifier == nil {
		classifier = classify.NewDenyListClassifier()
	}
	return &Planner{criteria: criteria, classifier: classifier}
}

// Plan expands every lot into candidate offers, then filters and
// orders them. Filters apply in a fixed order per lot and offer:
// classifier verdict, reliability gate, price bounds, include terms,
// exclude terms. The second return counts every candidate before
// filtering, at the same offer granularity as the surviving sequence,
// so raw and filtered counts stay comparable. The returned sequence is
// totally ordered: repeated runs over identical input produce
// identical output.
func (p *Planner) Plan(lots []*types.Lot) (offers []types.RankedOffer, scanned int) {
	for _, lot := range lots {
		snapshot := types.ReliabilitySnapshot{
			ReviewCount:   lot.ReviewCount,
			PositiveRatio: lot.PositiveRatio,
			Good:          lot.GoodReviews,
			Bad:           lot.BadReviews,
		}
		candidates := expandOffers(lot, snapshot)
		scanned += len(candidates)

		if p.classifier.Excluded(classify.LotFields(lot)...) {
			continue
		}
		if !reliability.PassesGate(snapshot, p.criteria.MinReviews, p.criteria.MinPositiveRatio) {
			continue
		}

		for _, offer := range candidates {
			if !p.priceInBounds(offer.Price) {
				continue
			}
			if !p.termsMatch(offer) {
				continue
			}
			offers = append(offers, offer)
		}
	}

	sortOffers(offers, p.criteria.SortBy)
	return offers, scanned
}

// expandOffers yields one candidate per (option group, visible
// variant); a lot without option groups is a single fixed-price offer
// at its base price.
func expandOffers(lot *types.Lot, snapshot types.ReliabilitySnapshot) []types.RankedOffer {
	base := types.RankedOffer{
		LotID:       lot.ID,
		Title:       lot.Title,
		URL:         lot.URL,
		Seller:      lot.Seller.Name,
		Currency:    lot.Currency,
		Reliability: snapshot,
		Options:     lot.OptionGroups,
		Lot:         lot,
	}

	if len(lot.OptionGroups) == 0 {
		base.Price = lot.BasePrice
		base.PriceFormatted = lot.BaseFormatted
		return []types.RankedOffer{base}
	}

	var offers []types.RankedOffer
	for _, group := range lot.OptionGroups {
		name := group.Name
		if group.Label != "" {
			name = group.Label
		}
		for _, variant := range group.Variants {
			offer := base
			offer.GroupName = name
			offer.VariantLabel = variant.Label
			offer.Price = variant.PriceIfSelected
			offer.PriceFormatted = variant.PriceFormatted
			offers = append(offers, offer)
		}
	}
	return offers
}

func (p *Planner) priceInBounds(price float64) bool {
	if p.criteria.MinPrice > 0 && price < p.criteria.MinPrice {
		return false
	}
	if p.criteria.MaxPrice > 0 && price > p.criteria.MaxPrice {
		return false
	}
	return true
}

// termsMatch checks include/exclude tokens against the offer's own
// text: the lot title, the offer's option group name and its variant
// label. Whole tokens, case-insensitive.
func (p *Planner) termsMatch(offer types.RankedOffer) bool {
	if len(p.criteria.IncludeTerms) == 0 && len(p.criteria.ExcludeTerms) == 0 {
		return true
	}
	tokens := classify.TokenSet(offer.Title, offer.GroupName, offer.VariantLabel)

	for _, term := range p.criteria.IncludeTerms {
		if _, ok := tokens[strings.ToLower(term)]; !ok {
			return false
		}
	}
	for _, term := range p.criteria.ExcludeTerms {
		if _, ok := tokens[strings.ToLower(term)]; ok {
			return false
		}
	}
	return true
}

// sortOffers applies the requested total ordering. Ties resolve
// through the documented tie-break chains down to lot id; the stable
// sort preserves option/variant declaration order beyond that, so the
// ordering is reproducible byte for byte.
func sortOffers(offers []types.RankedOffer, sortBy types.SortOrder) {
	var less func(a, b *types.RankedOffer) bool

	switch sortBy {
	case types.SortPriceDesc:
		less = func(a, b *types.RankedOffer) bool {
			if a.Price != b.Price {
				return a.Price > b.Price
			}
			return a.LotID < b.LotID
		}
	case types.SortSellerReviewsDesc:
		less = func(a, b *types.RankedOffer) bool {
			if a.Reliability.ReviewCount != b.Reliability.ReviewCount {
				return a.Reliability.ReviewCount > b.Reliability.ReviewCount
			}
			if a.Reliability.PositiveRatio != b.Reliability.PositiveRatio {
				return a.Reliability.PositiveRatio > b.Reliability.PositiveRatio
			}
			return a.LotID < b.LotID
		}
	case types.SortReliabilityDesc:
		less = func(a, b *types.RankedOffer) bool {
			return reliability.MoreReliable(a.Reliability, b.Reliability, a.LotID, b.LotID)
		}
	case types.SortTitleAsc:
		less = func(a, b *types.RankedOffer) bool {
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
			return a.LotID < b.LotID
		}
	case types.SortTitleDesc:
		less = func(a, b *types.RankedOffer) bool {
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at > bt
			}
			return a.LotID < b.LotID
		}
	default: // price_asc
		less = func(a, b *types.RankedOffer) bool {
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			return a.LotID < b.LotID
		}
	}

	sort.SliceStable(offers, func(i, j int) bool {
		return less(&offers[i], &offers[j])
	})
}
