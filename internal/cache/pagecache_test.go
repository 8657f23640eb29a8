package cache

import (
	"testing"
	"time"
)

func TestPageCacheRoundTrip(t *testing.T) {
	c := NewPageCache(10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	page := []byte("<html>watch</html>")
	c.Set("watch:f_1", page)

	got, ok := c.Get("watch:f_1")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if string(got) != string(page) {
		t.Errorf("got %q, want %q", got, page)
	}
}

func TestPageCacheRemove(t *testing.T) {
	c := NewPageCache(10, time.Minute)
	c.Set("k", []byte("v"))
	c.Remove("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after Remove")
	}
}

func TestPageCacheEviction(t *testing.T) {
	c := NewPageCache(2, time.Minute)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("c", []byte("3"))

	if c.Len() > 2 {
		t.Errorf("Len = %d, want <= 2", c.Len())
	}
}

func TestPageCacheExpiry(t *testing.T) {
	c := NewPageCache(10, 10*time.Millisecond)
	c.Set("k", []byte("v"))
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}
