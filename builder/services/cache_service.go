package services

import (
	"faro/builder/cache"
)

// cacheService adapts cache.Manager to the CacheService interface. The
// embedded manager supplies every method; the wrapper exists so tests
// can swap the whole layer for an in-memory fake.
type cacheService struct {
	*cache.Manager
}

func NewCacheService(m *cache.Manager) CacheService {
	return &cacheService{Manager: m}
}
