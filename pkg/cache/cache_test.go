package cache

import (
	"context"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("artifact-bytes"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get = %v, hit=%v", err, hit)
	}
	if string(data) != "artifact-bytes" {
		t.Errorf("data = %q", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("stale"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestFileCacheDeleteMissing(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := c.Delete(context.Background(), "never-set"); err != nil {
		t.Errorf("Delete of missing key should not error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	a := k.ArtifactKey("dochash", ArtifactKeyOpts{Format: "png", Width: 400, Height: 240, Scale: 1})
	b := k.ArtifactKey("dochash", ArtifactKeyOpts{Format: "png", Width: 400, Height: 240, Scale: 1})
	if a != b {
		t.Error("identical inputs should produce identical keys")
	}

	c := k.ArtifactKey("dochash", ArtifactKeyOpts{Format: "svg", Width: 400, Height: 240, Scale: 1})
	if a == c {
		t.Error("different formats should produce different keys")
	}

	d := k.ArtifactKey("otherhash", ArtifactKeyOpts{Format: "png", Width: 400, Height: 240, Scale: 1})
	if a == d {
		t.Error("different documents should produce different keys")
	}
}

func TestDefaultKeyerSeparatesExplicitSize(t *testing.T) {
	k := NewDefaultKeyer()

	// Same document and dimensions, but an explicit size produces SVG
	// with the requested width/height while the default keeps the
	// viewBox dimensions, so the keys must differ.
	implicit := k.ArtifactKey("dochash", ArtifactKeyOpts{Format: "svg", Width: 400, Height: 240, Scale: 1})
	explicit := k.ArtifactKey("dochash", ArtifactKeyOpts{Format: "svg", Width: 400, Height: 240, Scale: 1, SizeExplicit: true})
	if implicit == explicit {
		t.Error("explicit-size renders must not share a cache key with default-size renders")
	}
}
