package storage

import (
	"cmp"
	"slices"

	"github.com/emmanuel197/kuandorwear-media/domain/shop"
)

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}

// rankProducts orders products by score, highest first. Products missing from
// scores rank at 0 and ties keep id order.
func rankProducts(products []shop.Product, scores map[uint]float64, limit int) []shop.Product {
	ranked := slices.Clone(products)
	slices.SortStableFunc(ranked, func(a, b shop.Product) int {
		if c := cmp.Compare(scores[b.ID], scores[a.ID]); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func sortNewestFirst(reviews []shop.Review) {
	slices.SortStableFunc(reviews, func(a, b shop.Review) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

// topRated orders reviews by rating, highest first, with ties in id order.
func topRated(reviews []shop.Review, limit int) []shop.Review {
	slices.SortStableFunc(reviews, func(a, b shop.Review) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(reviews) > limit {
		reviews = reviews[:limit]
	}
	return reviews
}

func meanRatings(reviews []shop.Review) map[uint]float64 {
	sums := make(map[uint]int)
	counts := make(map[uint]int)
	for _, r := range reviews {
		sums[r.ProductID] += r.Rating
		counts[r.ProductID]++
	}
	means := make(map[uint]float64, len(sums))
	for id, sum := range sums {
		means[id] = float64(sum) / float64(counts[id])
	}
	return means
}

func quantitiesSold(items []shop.OrderItem) map[uint]float64 {
	totals := make(map[uint]float64)
	for _, it := range items {
		totals[it.ProductID] += float64(it.Quantity)
	}
	return totals
}
