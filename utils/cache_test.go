package utils

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupCacheTest(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	SetRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetRedisClient(nil) })
}

func TestCacheDeleteIsExact(t *testing.T) {
	setupCacheTest(t)

	CacheSetBytes("cache:post:detail:1", []byte("one"), time.Minute)
	CacheSetBytes("cache:post:detail:10", []byte("ten"), time.Minute)

	CacheDelete("cache:post:detail:1")

	if _, ok := CacheGetBytes("cache:post:detail:1"); ok {
		t.Fatal("deleted key is still cached")
	}
	if b, ok := CacheGetBytes("cache:post:detail:10"); !ok || string(b) != "ten" {
		t.Fatalf("neighbouring key was swept: present=%v value=%q", ok, b)
	}
}

func TestInvalidateByPrefixSweepsOnlyPrefix(t *testing.T) {
	setupCacheTest(t)

	CacheSetBytes("cache:posts:list:page=1:size=10", []byte("p1"), time.Minute)
	CacheSetBytes("cache:posts:list:page=2:size=10", []byte("p2"), time.Minute)
	CacheSetBytes("cache:user:public:1", []byte("u1"), time.Minute)

	InvalidateByPrefix("cache:posts:list:")

	if _, ok := CacheGetBytes("cache:posts:list:page=1:size=10"); ok {
		t.Fatal("list page 1 still cached")
	}
	if _, ok := CacheGetBytes("cache:posts:list:page=2:size=10"); ok {
		t.Fatal("list page 2 still cached")
	}
	if _, ok := CacheGetBytes("cache:user:public:1"); !ok {
		t.Fatal("unrelated key was swept")
	}
}
