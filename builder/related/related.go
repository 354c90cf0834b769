// Package related picks the posts most similar to a given one.
package related

import (
	"sort"

	"faro/builder/index"
	"faro/builder/models"
)

const (
	defaultMax       = 4
	defaultMinShared = 1
)

// Options tune the matcher. Zero values fall back to the defaults.
type Options struct {
	Max       int // result cap
	MinShared int // minimum tag overlap to count as related
}

type scored struct {
	post   *models.Post
	shared int
}

// Match returns up to opts.Max posts related to post, best match first.
// Relation is tag overlap, ranked by shared count then recency. When no
// post shares enough tags, the most recent posts from the post's primary
// category stand in. No match at all yields an empty result; templates
// render no related section in that case.
func Match(post *models.Post, idx *index.Index, opts Options) []*models.Post {
	max := opts.Max
	if max <= 0 {
		max = defaultMax
	}
	minShared := opts.MinShared
	if minShared <= 0 {
		minShared = defaultMinShared
	}

	tags := make(map[string]struct{}, len(post.Tags))
	for _, t := range post.Tags {
		tags[t] = struct{}{}
	}

	var candidates []scored
	for _, other := range idx.Posts {
		if other.Link == post.Link {
			continue
		}
		shared := 0
		for _, t := range other.Tags {
			if _, ok := tags[t]; ok {
				shared++
			}
		}
		if shared >= minShared {
			candidates = append(candidates, scored{post: other, shared: shared})
		}
	}

	// Stable keeps the index's slug order for full ties, so the result is
	// the same on every build.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].shared != candidates[j].shared {
			return candidates[i].shared > candidates[j].shared
		}
		return candidates[i].post.Date.After(candidates[j].post.Date)
	})

	if len(candidates) > 0 {
		out := make([]*models.Post, 0, max)
		for _, c := range candidates {
			out = append(out, c.post)
			if len(out) == max {
				break
			}
		}
		return out
	}

	return categoryFallback(post, idx, max)
}

func categoryFallback(post *models.Post, idx *index.Index, max int) []*models.Post {
	if len(post.Categories) == 0 {
		return nil
	}
	var out []*models.Post
	for _, other := range idx.ByCategory[post.Categories[0]] {
		if other.Link == post.Link {
			continue
		}
		out = append(out, other)
		if len(out) == max {
			break
		}
	}
	return out
}
