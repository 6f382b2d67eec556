package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-roster-api/pkg/config"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache", Port: 6380, Password: "pw", DB: 2})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err := NewRedis(ctx, config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}
