// Package mocks provides in-memory service fakes for testing.
package mocks

import (
	"maps"
	"path/filepath"
	"slices"
	"sync"

	"faro/builder/cache"
	"faro/builder/utils"
)

// MockCacheService is an in-memory stand-in for services.CacheService.
// Methods are safe for the worker pools that call them concurrently.
type MockCacheService struct {
	mu               sync.Mutex
	Posts            map[string]*cache.PostMeta
	PostsByPath      map[string]*cache.PostMeta
	HTML             map[string][]byte
	SocialCardHashes map[string]string
	CardDir          string
	Err              error
	CallCount        map[string]int
	Committed        []*cache.PostMeta
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		Posts:            map[string]*cache.PostMeta{},
		PostsByPath:      map[string]*cache.PostMeta{},
		HTML:             map[string][]byte{},
		SocialCardHashes: map[string]string{},
		CallCount:        map[string]int{},
	}
}

// AddPost seeds a record the way a previous build's commit would have.
func (m *MockCacheService) AddPost(meta *cache.PostMeta, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Posts[meta.PostID] = meta
	m.PostsByPath[meta.Path] = meta
	m.HTML[meta.PostID] = body
}

// fail counts the call and reports the injected error, if any. Callers
// hold the mutex.
func (m *MockCacheService) fail(method string) error {
	m.CallCount[method]++
	return m.Err
}

func (m *MockCacheService) PostByPath(path string) (*cache.PostMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("PostByPath"); err != nil {
		return nil, err
	}
	return m.PostsByPath[utils.NormalizePath(path)], nil
}

func (m *MockCacheService) PostByID(postID string) (*cache.PostMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("PostByID"); err != nil {
		return nil, err
	}
	return m.Posts[postID], nil
}

func (m *MockCacheService) HTMLContent(post *cache.PostMeta) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("HTMLContent"); err != nil {
		return nil, err
	}
	return m.HTML[post.PostID], nil
}

func (m *MockCacheService) ListAllPosts() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListAllPosts"); err != nil {
		return nil, err
	}
	return slices.Collect(maps.Keys(m.Posts)), nil
}

func (m *MockCacheService) SocialCardHash(path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SocialCardHash"); err != nil {
		return "", err
	}
	return m.SocialCardHashes[utils.NormalizePath(path)], nil
}

func (m *MockCacheService) SetSocialCardHash(path, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SetSocialCardHash"); err != nil {
		return err
	}
	m.SocialCardHashes[utils.NormalizePath(path)] = hash
	return nil
}

func (m *MockCacheService) SocialCardPath(hash string) string {
	return filepath.Join(m.CardDir, hash+".webp")
}

func (m *MockCacheService) StoreHTML(post *cache.PostMeta, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("StoreHTML"); err != nil {
		return err
	}
	m.HTML[post.PostID] = content
	return nil
}

// BatchCommit records the batch and folds it in, so a second Process in
// the same test sees the records a real commit would have persisted.
func (m *MockCacheService) BatchCommit(posts []*cache.PostMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("BatchCommit"); err != nil {
		return err
	}
	m.Committed = append(m.Committed, posts...)
	for _, p := range posts {
		m.Posts[p.PostID] = p
		m.PostsByPath[p.Path] = p
	}
	return nil
}

func (m *MockCacheService) DeletePost(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeletePost"); err != nil {
		return err
	}
	if post, ok := m.Posts[id]; ok {
		delete(m.PostsByPath, post.Path)
		delete(m.SocialCardHashes, post.Path)
	}
	delete(m.Posts, id)
	delete(m.HTML, id)
	return nil
}

func (m *MockCacheService) Stats() (*cache.CacheStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Stats"); err != nil {
		return nil, err
	}
	return &cache.CacheStats{TotalPosts: len(m.Posts)}, nil
}

// Close never fails, matching how the builder treats cache shutdown.
func (m *MockCacheService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount["Close"]++
	return nil
}
