package feed

import (
	"sort"

	"github.com/princekumarofficial/stories-viewer/internal/types"
)

// Author is the display metadata attached to a collection after grouping.
type Author struct {
	Name   string
	Avatar string
}

// Group buckets active stories into per-author collections for the given
// viewer. The input is expected in fetch order, newest-first, so appending
// preserves newest-first storage order within each collection.
//
// The returned slice always starts with the viewer's own collection, even
// when the viewer has no active stories. Every other collection has at least
// one story and the tail is sorted ascending by the creation time of each
// author's most recent story (oldest ring first, freshest last).
//
// Cost is one pass over the stories plus a sort over the authors; it never
// touches stories × authors.
func Group(stories []types.Story, viewerID string) []types.AuthorCollection {
	own := types.AuthorCollection{AuthorID: viewerID}

	byAuthor := make(map[string]int)
	others := make([]types.AuthorCollection, 0)

	for _, s := range stories {
		if s.AuthorID == viewerID {
			own.Stories = append(own.Stories, s)
			continue
		}
		idx, ok := byAuthor[s.AuthorID]
		if !ok {
			idx = len(others)
			byAuthor[s.AuthorID] = idx
			others = append(others, types.AuthorCollection{AuthorID: s.AuthorID})
		}
		others[idx].Stories = append(others[idx].Stories, s)
	}

	sort.SliceStable(others, func(i, j int) bool {
		return others[i].LatestCreatedAt().Before(others[j].LatestCreatedAt())
	})

	out := make([]types.AuthorCollection, 0, len(others)+1)
	out = append(out, own)
	out = append(out, others...)
	return out
}

// AttachAuthors fills in author display metadata on each collection.
// Collections whose author is unknown keep their zero-value fields.
func AttachAuthors(cols []types.AuthorCollection, authors map[string]Author) {
	for i := range cols {
		if a, ok := authors[cols[i].AuthorID]; ok {
			cols[i].AuthorName = a.Name
			cols[i].AuthorAvatar = a.Avatar
		}
	}
}

// ViewedCount counts how many of the collection's stories the viewer has
// seen, per the supplied membership check. The result is what the segmented
// progress ring renders: always within [0, len(stories)].
func ViewedCount(col types.AuthorCollection, viewed func(storyID string) bool) int {
	count := 0
	for _, s := range col.Stories {
		if viewed(s.ID) {
			count++
		}
	}
	return count
}

// ApplyViewedCounts stamps ViewedCount on every collection. The viewer's own
// collection is always rendered fully viewed regardless of the viewed set.
func ApplyViewedCounts(cols []types.AuthorCollection, viewerID string, viewed func(storyID string) bool) {
	for i := range cols {
		if cols[i].AuthorID == viewerID {
			cols[i].ViewedCount = len(cols[i].Stories)
			continue
		}
		cols[i].ViewedCount = ViewedCount(cols[i], viewed)
	}
}
