// Package services wires the build stages together behind small
// interfaces so the pipeline and the dev server share one implementation
// and tests can swap in fakes.
package services

import (
	"context"

	"faro/builder/cache"
	"faro/builder/index"
	"faro/builder/models"
)

// PostResult is what post processing hands the rest of the build: the
// ordered index plus flags the pipeline branches on.
type PostResult struct {
	Index          *index.Index
	Has404         bool
	AnyPostChanged bool
}

// PostService turns the content tree into an index and rendered post pages.
type PostService interface {
	Process(ctx context.Context, force bool) (*PostResult, error)
}

// CacheService is the persistence layer for parsed posts and card state.
type CacheService interface {
	// Reads. A nil record with nil error is a miss.
	PostByPath(path string) (*cache.PostMeta, error)
	PostByID(id string) (*cache.PostMeta, error)
	HTMLContent(post *cache.PostMeta) ([]byte, error)
	ListAllPosts() ([]string, error)

	// Writes.
	StoreHTML(post *cache.PostMeta, content []byte) error
	BatchCommit(posts []*cache.PostMeta) error
	DeletePost(id string) error

	// Social card bookkeeping.
	SocialCardHash(path string) (string, error)
	SetSocialCardHash(path, hash string) error
	SocialCardPath(hash string) string

	Stats() (*cache.CacheStats, error)
	Close() error
}

// AssetService bundles and copies everything under static/.
type AssetService interface {
	Build(ctx context.Context) error
}

// RenderService executes templates and tracks which output files this
// build touched, so the disk sync can drop the rest.
type RenderService interface {
	RenderPost(path string, data models.PageData)
	RenderList(path string, data models.PageData)
	RenderArchive(path string, data models.PageData)
	RenderIndex(path string, data models.PageData)
	Render404(path string, data models.PageData)
	RegisterFile(path string)
	SetAssets(assets map[string]string)
	Assets() map[string]string
	RenderedFiles() map[string]bool
	ClearRenderedFiles()
}
