package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestIncrWithTTLSetsExpiryOnFirstIncrementOnly(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	count, err := client.IncrWithTTL(ctx, "rl:ip:test:1.2.3.4", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	count, err = client.IncrWithTTL(ctx, "rl:ip:test:1.2.3.4", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected counter 2 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}
}

func TestSetNXMarksOnlyOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	set, err := client.SetNX(ctx, "sp:idempotency:worksuite:evt-1", "1", time.Minute)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if !set {
		t.Fatal("expected first SetNX to win")
	}

	set, err = client.SetNX(ctx, "sp:idempotency:worksuite:evt-1", "1", time.Minute)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if set {
		t.Fatal("expected second SetNX to lose")
	}

	if err := client.Del(ctx, "sp:idempotency:worksuite:evt-1"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	set, err = client.SetNX(ctx, "sp:idempotency:worksuite:evt-1", "1", time.Minute)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if !set {
		t.Fatal("expected SetNX to win again after delete")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "sp:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.IdempotencyKey("scope", ""); got != "sp:idempotency:scope" {
		t.Fatalf("key builder should skip empty parts, got %s", got)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
