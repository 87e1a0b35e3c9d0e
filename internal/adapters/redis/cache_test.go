package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "reviewpilot/internal/adapters/redis"
	"reviewpilot/internal/domain"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	plan := "pro"
	in := domain.SubscriptionView{HasActiveSubscription: true, Plan: &plan, Status: "active"}
	if err := cache.Set(ctx, "sub:u1", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out domain.SubscriptionView
	ok, err := cache.Get(ctx, "sub:u1", &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !out.HasActiveSubscription || out.Plan == nil || *out.Plan != "pro" {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	if err := cache.Del(ctx, "sub:u1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, err = cache.Get(ctx, "sub:u1", &out)
	if err != nil || ok {
		t.Fatalf("expected miss after delete, ok=%v err=%v", ok, err)
	}
}

func TestCache_MissIsNotAnError(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	var out domain.SubscriptionView
	ok, err := cache.Get(context.Background(), "absent", &out)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}
}

func TestCache_TTLExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	if err := cache.Set(ctx, "k", "v", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Second)

	var out string
	ok, err := cache.Get(ctx, "k", &out)
	if err != nil || ok {
		t.Fatalf("expected expired miss, ok=%v err=%v", ok, err)
	}
}
