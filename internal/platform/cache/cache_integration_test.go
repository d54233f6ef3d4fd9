//go:build integration

package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"geoatlas/internal/platform/config"
	platformredis "geoatlas/internal/platform/redis"
	"geoatlas/internal/record"
	"geoatlas/pkg/testutil/containers"
)

type CacheSuite struct {
	suite.Suite
	rc    *containers.RedisContainer
	cache *Cache
}

func TestCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupSuite() {
	s.rc = containers.NewRedisContainer(s.T())
	client, err := platformredis.New(config.Redis{URL: s.rc.Addr, TTL: time.Minute})
	s.Require().NoError(err)
	s.cache = New(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *CacheSuite) SetupTest() {
	s.Require().NoError(s.rc.FlushAll(context.Background()))
}

func (s *CacheSuite) summaries() []record.Summary {
	return []record.Summary{
		{ID: "rec-1", Label: "Site A", Abbrev: "SA", Entity: "DR Bretagne",
			Coordinates: &record.Coordinates{Lat: "48.11", Lng: "-1.68"}},
		{ID: "rec-2", Label: "Site B", Abbrev: "SB", Entity: "DR Bretagne"},
	}
}

func (s *CacheSuite) TestRoundTrip() {
	ctx := context.Background()
	scope := "DR Bretagne|LEVEL_0"

	_, ok := s.cache.Get(ctx, scope)
	s.False(ok)

	s.cache.Set(ctx, scope, s.summaries())

	got, ok := s.cache.Get(ctx, scope)
	s.Require().True(ok)
	s.Equal(s.summaries(), got)
}

func (s *CacheSuite) TestInvalidateDropsEveryScope() {
	ctx := context.Background()
	s.cache.Set(ctx, "DR Bretagne|LEVEL_0", s.summaries())
	s.cache.Set(ctx, "DR Normandie|LEVEL_100", s.summaries())

	s.cache.Invalidate(ctx)

	_, ok := s.cache.Get(ctx, "DR Bretagne|LEVEL_0")
	s.False(ok)
	_, ok = s.cache.Get(ctx, "DR Normandie|LEVEL_100")
	s.False(ok)
}

func (s *CacheSuite) TestCorruptEntryDegradesToMiss() {
	ctx := context.Background()
	scope := "DR Bretagne|LEVEL_0"
	s.Require().NoError(s.rc.Client.Set(ctx, "geoatlas:summaries:"+scope, "not json", time.Minute).Err())

	_, ok := s.cache.Get(ctx, scope)
	s.False(ok)
}

func (s *CacheSuite) TestNilCacheNoOps() {
	ctx := context.Background()
	var nilCache *Cache
	_, ok := nilCache.Get(ctx, "scope")
	s.False(ok)
	nilCache.Set(ctx, "scope", s.summaries())
	nilCache.Invalidate(ctx)
}
