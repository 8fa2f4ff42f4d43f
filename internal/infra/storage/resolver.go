package storage

import (
	"strings"

	"ai-scene-backend/internal/config"
)

// Resolver maps confirmed object keys to their externally reachable URLs.
// Uploads themselves happen directly between the client and the object store;
// the backend only ever sees the key.
type Resolver struct {
	baseURL string
	bucket  string
}

func NewResolver(cfg config.StorageConfig) *Resolver {
	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return &Resolver{baseURL: base, bucket: cfg.Bucket}
}

// PublicURL returns the public URL for an object key. If the configured base
// does not already address the bucket (path-style or virtual-hosted), the
// bucket segment is inserted.
func (r *Resolver) PublicURL(objectKey string) string {
	key := strings.TrimPrefix(objectKey, "/")
	if r.bucket == "" {
		return r.baseURL + "/" + key
	}
	if strings.HasSuffix(r.baseURL, "/"+r.bucket) || strings.Contains(r.baseURL, "://"+r.bucket+".") {
		return r.baseURL + "/" + key
	}
	return r.baseURL + "/" + r.bucket + "/" + key
}

func (r *Resolver) Bucket() string { return r.bucket }
