package cacheinfra

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, ttl time.Duration) (*sturdycService, *fakeClock) {
	t.Helper()

	service, err := NewSturdycService(Config{
		Capacity:           100,
		NumShards:          2,
		TTL:                ttl,
		EvictionPercentage: 10,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	clock := newFakeClock()
	service.now = clock.Now
	return service, clock
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}

	if cfg.NumShards != 64 {
		t.Errorf("expected NumShards to be 64, got %d", cfg.NumShards)
	}

	if cfg.TTL != time.Minute {
		t.Errorf("expected TTL to be 1 minute, got %v", cfg.TTL)
	}

	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	base := Config{
		Capacity:           1000,
		NumShards:          16,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, wantField: "Capacity"},
		{name: "zero shards", mutate: func(c *Config) { c.NumShards = 0 }, wantField: "NumShards"},
		{name: "zero ttl", mutate: func(c *Config) { c.TTL = 0 }, wantField: "TTL"},
		{name: "eviction too low", mutate: func(c *Config) { c.EvictionPercentage = 0 }, wantField: "EvictionPercentage"},
		{name: "eviction too high", mutate: func(c *Config) { c.EvictionPercentage = 101 }, wantField: "EvictionPercentage"},
		{name: "negative eviction interval", mutate: func(c *Config) { c.EvictionInterval = -time.Second }, wantField: "EvictionInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected no validation error but got: %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, cfgErr.Field)
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	cfg := DefaultConfig()
	if got := len(cfg.ToSturdycOptions()); got != 0 {
		t.Errorf("expected no options for default config, got %d", got)
	}

	cfg.EvictionInterval = time.Second
	if got := len(cfg.ToSturdycOptions()); got != 1 {
		t.Errorf("expected 1 option with eviction interval, got %d", got)
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{
		Field:   "TestField",
		Message: "test message",
	}

	expected := "config error in field TestField: test message"
	if err.Error() != expected {
		t.Errorf("expected error message %q, got %q", expected, err.Error())
	}
}

func TestNewSturdycService_InvalidConfig(t *testing.T) {
	service, err := NewSturdycService(Config{NumShards: 1, TTL: time.Minute, EvictionPercentage: 10})
	if err == nil {
		t.Fatal("expected error but got none")
	}
	if service != nil {
		t.Error("expected service to be nil when error occurs")
	}
	if !strings.Contains(err.Error(), "Capacity") {
		t.Errorf("expected capacity error, got %v", err)
	}
}

func TestSturdycService_SetGetDelete(t *testing.T) {
	service, _ := newTestService(t, time.Minute)
	ctx := context.Background()

	if _, ok, err := service.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := service.Set(ctx, "todo_1", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, ok, err := service.Get(ctx, "todo_1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != "payload" {
		t.Errorf("expected payload, got %q", got)
	}

	if err := service.Delete(ctx, "todo_1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := service.Get(ctx, "todo_1"); ok {
		t.Error("expected miss after delete")
	}
}

func TestSturdycService_SetCopiesValue(t *testing.T) {
	service, _ := newTestService(t, time.Minute)
	ctx := context.Background()

	value := []byte("original")
	if err := service.Set(ctx, "k", value, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	copy(value, "mutated!")

	got, _, _ := service.Get(ctx, "k")
	if string(got) != "original" {
		t.Errorf("cached value was mutated through caller slice: %q", got)
	}
}

func TestSturdycService_PerEntryTTL(t *testing.T) {
	service, clock := newTestService(t, 5*time.Minute)
	ctx := context.Background()

	if err := service.Set(ctx, "short", []byte("a"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := service.Set(ctx, "long", []byte("b"), 3*time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	clock.Advance(59 * time.Second)
	if _, ok, _ := service.Get(ctx, "short"); !ok {
		t.Error("expected short entry to still be present before its TTL")
	}

	clock.Advance(time.Second)
	if _, ok, _ := service.Get(ctx, "short"); ok {
		t.Error("expected short entry to expire at its TTL")
	}
	if _, ok, _ := service.Get(ctx, "long"); !ok {
		t.Error("expected long entry to outlive the short one")
	}
}

func TestSturdycService_TTLClampedToConfig(t *testing.T) {
	service, clock := newTestService(t, time.Minute)
	ctx := context.Background()

	if err := service.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := service.Set(ctx, "zero", []byte("v"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	clock.Advance(time.Minute)
	if _, ok, _ := service.Get(ctx, "k"); ok {
		t.Error("expected ttl above the configured maximum to be clamped")
	}
	if _, ok, _ := service.Get(ctx, "zero"); ok {
		t.Error("expected zero ttl to fall back to the configured maximum")
	}
}

func TestSturdycService_InvalidateKeys(t *testing.T) {
	service, _ := newTestService(t, time.Minute)
	ctx := context.Background()

	for _, key := range []string{"todo_1", "todo_2", "all_todos"} {
		if err := service.Set(ctx, key, []byte(key), time.Minute); err != nil {
			t.Fatalf("set %s failed: %v", key, err)
		}
	}

	if err := service.InvalidateKeys(ctx, []string{"todo_1", "all_todos"}); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	if _, ok, _ := service.Get(ctx, "todo_1"); ok {
		t.Error("expected todo_1 to be invalidated")
	}
	if _, ok, _ := service.Get(ctx, "all_todos"); ok {
		t.Error("expected all_todos to be invalidated")
	}
	if _, ok, _ := service.Get(ctx, "todo_2"); !ok {
		t.Error("expected todo_2 to survive")
	}
	if service.Size() != 1 {
		t.Errorf("expected 1 entry left, got %d", service.Size())
	}
}

func TestSturdycService_ConcurrentAccess(t *testing.T) {
	service, _ := newTestService(t, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "k"
			if i%2 == 0 {
				_ = service.Set(ctx, key, []byte{byte(i)}, time.Minute)
			} else {
				_ = service.Delete(ctx, key)
			}
			_, _, _ = service.Get(ctx, key)
		}(i)
	}
	wg.Wait()
}

func TestSturdycService_GetReturnsCopy(t *testing.T) {
	service, _ := newTestService(t, time.Minute)
	ctx := context.Background()

	if err := service.Set(ctx, "k", []byte("original"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, _, _ := service.Get(ctx, "k")
	copy(got, "mutated!")

	again, _, _ := service.Get(ctx, "k")
	if string(again) != "original" {
		t.Errorf("cached value was mutated through returned slice: %q", again)
	}
}
