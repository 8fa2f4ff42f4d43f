package storage

import (
	"testing"

	"ai-scene-backend/internal/config"
)

func TestResolver_PublicURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.StorageConfig
		key  string
		want string
	}{
		{
			name: "bucket inserted",
			cfg:  config.StorageConfig{PublicBaseURL: "https://oss.example.com", Bucket: "ai-scene"},
			key:  "uploads/clip.mp4",
			want: "https://oss.example.com/ai-scene/uploads/clip.mp4",
		},
		{
			name: "path-style base already addresses the bucket",
			cfg:  config.StorageConfig{PublicBaseURL: "https://oss.example.com/ai-scene", Bucket: "ai-scene"},
			key:  "uploads/clip.mp4",
			want: "https://oss.example.com/ai-scene/uploads/clip.mp4",
		},
		{
			name: "virtual-hosted base already addresses the bucket",
			cfg:  config.StorageConfig{PublicBaseURL: "https://ai-scene.oss.example.com", Bucket: "ai-scene"},
			key:  "uploads/clip.mp4",
			want: "https://ai-scene.oss.example.com/uploads/clip.mp4",
		},
		{
			name: "no bucket configured",
			cfg:  config.StorageConfig{PublicBaseURL: "https://cdn.example.com"},
			key:  "uploads/clip.mp4",
			want: "https://cdn.example.com/uploads/clip.mp4",
		},
		{
			name: "scheme added and slashes normalized",
			cfg:  config.StorageConfig{PublicBaseURL: "oss.example.com/", Bucket: "ai-scene"},
			key:  "/uploads/clip.mp4",
			want: "https://oss.example.com/ai-scene/uploads/clip.mp4",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(tc.cfg)
			if got := r.PublicURL(tc.key); got != tc.want {
				t.Errorf("PublicURL(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}
