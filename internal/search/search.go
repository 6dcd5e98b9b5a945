package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"git.sr.ht/~jakintosh/portal/internal/domain"
)

// Result is a link that matched a query, with its position in the store.
type Result struct {
	CategoryID    string
	CategoryTitle string
	Link          domain.Link
	Distance      int // Levenshtein distance to the best matching field (lower is better)
}

// Links fuzzy-matches query against link titles, urls and memos.
// Results are ranked by distance, ties keep store order.
func Links(cats []domain.Category, query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var results []Result
	for _, c := range cats {
		for _, l := range c.Links {
			best := -1
			for _, field := range []string{l.Title, l.URL, l.Memo} {
				if field == "" || !fuzzy.MatchFold(query, field) {
					continue
				}
				d := fuzzy.LevenshteinDistance(strings.ToLower(query), strings.ToLower(field))
				if best < 0 || d < best {
					best = d
				}
			}
			if best < 0 {
				continue
			}
			results = append(results, Result{
				CategoryID:    c.ID,
				CategoryTitle: c.Title,
				Link:          l,
				Distance:      best,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results
}
