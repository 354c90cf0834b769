package cache

// Bucket layout inside meta.db.
const (
	BucketPosts      = "posts"       // post ID -> PostMeta record
	BucketPaths      = "paths"       // normalized source path -> post ID
	BucketSocialCard = "social_card" // normalized source path -> front matter hash

	BucketMeta  = "meta"  // schema version, cache ID
	BucketStats = "stats" // build counters, GC bookkeeping
)

// Keys inside the meta and stats buckets.
const (
	KeySchemaVersion = "schema_version"
	KeyCacheID       = "cache_id"
	KeyLastGC        = "last_gc"
	KeyBuildCount    = "build_count"
	KeyBuildsSinceGC = "builds_since_gc"
)

// CategoryHTML is the content store shard rendered bodies live under.
const CategoryHTML = "html"

// AllBuckets lists what ensureSchema has to create.
func AllBuckets() []string {
	return []string{BucketPosts, BucketPaths, BucketSocialCard, BucketMeta, BucketStats}
}
