//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type RedisCacheSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	url       string
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)
	s.url = url
}

func (s *RedisCacheSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *RedisCacheSuite) newCache(ttl time.Duration) *Redis {
	c, err := NewRedis(context.Background(), s.url, ttl)
	s.Require().NoError(err)
	s.T().Cleanup(func() {
		_ = c.Close()
	})
	return c
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	c := s.newCache(time.Minute)

	_, ok, err := c.Get(ctx, "round-trip")
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(c.Set(ctx, "round-trip", []string{"01.00.00", "09.00.00"}))
	values, ok, err := c.Get(ctx, "round-trip")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal([]string{"01.00.00", "09.00.00"}, values)
}

func (s *RedisCacheSuite) TestEmptyListIsAHit() {
	ctx := context.Background()
	c := s.newCache(time.Minute)

	s.Require().NoError(c.Set(ctx, "empty", nil))
	values, ok, err := c.Get(ctx, "empty")
	s.Require().NoError(err)
	s.True(ok)
	s.Empty(values)
}

func (s *RedisCacheSuite) TestDelete() {
	ctx := context.Background()
	c := s.newCache(0)

	s.Require().NoError(c.Set(ctx, "del-a", []string{"a"}))
	s.Require().NoError(c.Set(ctx, "del-b", []string{"b"}))
	s.Require().NoError(c.Delete(ctx, "del-a", "del-b"))

	_, ok, err := c.Get(ctx, "del-a")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisCacheSuite) TestTTL() {
	ctx := context.Background()
	c := s.newCache(time.Second)

	s.Require().NoError(c.Set(ctx, "ttl", []string{"x"}))
	s.Eventually(func() bool {
		_, ok, err := c.Get(ctx, "ttl")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}
