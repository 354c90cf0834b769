package utils

import (
	"slices"

	"faro/builder/models"
)

// FindPrevNext locates the chronological neighbors of a post. allPosts
// may arrive in any order; prev is the newer neighbor and next the
// older one, nil at either end or when the post is absent.
func FindPrevNext(current *models.Post, allPosts []*models.Post) (prev, next *models.Post) {
	if len(allPosts) < 2 {
		return nil, nil
	}

	sorted := slices.Clone(allPosts)
	SortPosts(sorted)

	i := slices.IndexFunc(sorted, func(p *models.Post) bool {
		return p.Link == current.Link
	})
	switch {
	case i < 0:
		return nil, nil
	case i == 0:
		return nil, sorted[1]
	case i == len(sorted)-1:
		return sorted[i-1], nil
	default:
		return sorted[i-1], sorted[i+1]
	}
}
