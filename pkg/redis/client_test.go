package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/honeycarbs/jobingest/pkg/redis"
)

func TestNewClientRequiresAddress(t *testing.T) {
	client, err := redis.NewClient(context.Background(), redis.Config{})
	if err == nil {
		t.Error("expected error for empty address")
	}
	if client != nil {
		t.Error("expected nil client for invalid config")
	}
}

func TestNewClientConnects(t *testing.T) {
	srv := miniredis.RunT(t)

	for name, cfg := range map[string]redis.Config{
		"address": {Address: srv.Addr()},
		"url":     {URL: "redis://" + srv.Addr() + "/0"},
	} {
		t.Run(name, func(t *testing.T) {
			client, err := redis.NewClient(context.Background(), cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer client.Close()
		})
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := redis.NewClient(context.Background(), redis.Config{URL: "://nope"}); err == nil {
		t.Error("expected parse error")
	}
}
