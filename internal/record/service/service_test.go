package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"geoatlas/internal/history"
	"geoatlas/internal/identity"
	"geoatlas/internal/platform/metrics"
	"geoatlas/internal/record"
	"geoatlas/internal/roles"
	dErrors "geoatlas/pkg/domain-errors"
)

type RecordServiceSuite struct {
	suite.Suite
	store   *record.InMemoryStore
	entries *history.InMemoryStore
	service *Service

	admin      identity.Principal
	reader     identity.Principal
	otherAdmin identity.Principal
	superAdmin identity.Principal
}

func TestRecordServiceSuite(t *testing.T) {
	suite.Run(t, new(RecordServiceSuite))
}

func (s *RecordServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWith(prometheus.NewRegistry())
	s.store = record.NewInMemoryStore()
	s.entries = history.NewInMemoryStore()
	writer := history.NewWriter(s.entries, logger, m, nil)
	s.service = New(s.store, writer, roles.DefaultTable(), logger, m, nil)

	s.admin = testPrincipal("admin-1", "DR Bretagne", "LEVEL_100")
	s.reader = testPrincipal("reader-1", "DR Bretagne", "LEVEL_0")
	s.otherAdmin = testPrincipal("admin-2", "DR Normandie", "LEVEL_100")
	s.superAdmin = testPrincipal("root-1", "", roles.SuperAdminRole)
}

func testPrincipal(id, entity, role string) identity.Principal {
	return identity.Principal{
		ID:           id,
		Entity:       entity,
		Habilitation: &identity.Habilitation{PrincipalID: id, Role: role},
	}
}

func (s *RecordServiceSuite) create(p identity.Principal, label, authorization string) record.Record {
	rec, err := s.service.Create(context.Background(), p, record.Metadata{
		Label:         label,
		Authorization: authorization,
	}, []record.Field{
		{Label: "name", Type: record.TypeString, Value: label},
	})
	s.Require().NoError(err)
	return rec
}

func (s *RecordServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("entity is stamped from the principal, not the payload", func() {
		rec, err := s.service.Create(ctx, s.admin, record.Metadata{
			Label:         "Site A",
			Entity:        "DR Normandie",
			Authorization: "LEVEL_0",
		}, nil)
		s.Require().NoError(err)
		s.Equal("DR Bretagne", rec.Metadata.Entity)
		s.Equal("admin-1", rec.Metadata.CreatedBy)
		s.NotEmpty(rec.ID)
	})

	s.Run("super admin without an entity takes the payload entity", func() {
		rec, err := s.service.Create(ctx, s.superAdmin, record.Metadata{
			Label:         "Site B",
			Entity:        "DR Normandie",
			Authorization: "LEVEL_0",
		}, nil)
		s.Require().NoError(err)
		s.Equal("DR Normandie", rec.Metadata.Entity)
	})

	s.Run("low-level principal may not create", func() {
		_, err := s.service.Create(ctx, s.reader, record.Metadata{Label: "Site C"}, nil)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("creation is recorded in history", func() {
		before, err := s.entries.ListByEntity(ctx, "")
		s.Require().NoError(err)

		s.create(s.admin, "Site D", "LEVEL_0")

		after, err := s.entries.ListByEntity(ctx, "")
		s.Require().NoError(err)
		s.Len(after, len(before)+1)
		s.Equal(history.ActionCreate, after[0].Metadata.Type)
		s.Equal("Site D", after[0].Metadata.Label)
	})

	s.Run("invalid payload is rejected before storage", func() {
		_, err := s.service.Create(ctx, s.admin, record.Metadata{Label: "Site E"}, []record.Field{
			{Label: "surface", Type: record.TypeNumber, Value: "not a number"},
		})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
}

func (s *RecordServiceSuite) TestGet() {
	ctx := context.Background()
	rec := s.create(s.admin, "Site A", "LEVEL_0")

	s.Run("reader of the same entity may read", func() {
		got, err := s.service.Get(ctx, s.reader, rec.ID)
		s.Require().NoError(err)
		s.Equal(rec.ID, got.ID)
	})

	s.Run("admin of another entity may not read", func() {
		_, err := s.service.Get(ctx, s.otherAdmin, rec.ID)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("super admin reads across entities", func() {
		_, err := s.service.Get(ctx, s.superAdmin, rec.ID)
		s.NoError(err)
	})

	s.Run("missing record is not found", func() {
		_, err := s.service.Get(ctx, s.admin, "missing")
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func (s *RecordServiceSuite) TestAuthorizationFailsClosed() {
	ctx := context.Background()
	rec := s.create(s.admin, "Site A", "")

	// No authorization role on the record means nobody reads it, not even
	// the super admin.
	_, err := s.service.Get(ctx, s.reader, rec.ID)
	s.True(dErrors.Is(err, dErrors.CodeForbidden))
	_, err = s.service.Get(ctx, s.superAdmin, rec.ID)
	s.True(dErrors.Is(err, dErrors.CodeForbidden))
}

func (s *RecordServiceSuite) TestListAccessible() {
	ctx := context.Background()
	a := s.create(s.admin, "Site A", "LEVEL_0")
	s.create(s.admin, "Site B", "LEVEL_100")
	c := s.create(s.otherAdmin, "Site C", "LEVEL_0")

	s.Run("reader sees own-entity records at their level, in storage order", func() {
		got, err := s.service.ListAccessible(ctx, s.reader, record.Filter{})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(a.ID, got[0].ID)
	})

	s.Run("entity admin sees both own-entity records", func() {
		got, err := s.service.ListAccessible(ctx, s.admin, record.Filter{})
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("super admin sees everything", func() {
		got, err := s.service.ListAccessible(ctx, s.superAdmin, record.Filter{})
		s.Require().NoError(err)
		s.Require().Len(got, 3)
		s.Equal(a.ID, got[0].ID)
		s.Equal(c.ID, got[2].ID)
	})
}

func (s *RecordServiceSuite) TestListSummaries() {
	ctx := context.Background()
	rec, err := s.service.Create(ctx, s.admin, record.Metadata{
		Label:         "Site Nautique",
		Authorization: "LEVEL_0",
	}, []record.Field{
		{Label: "position", Type: record.TypeCoordinates, Value: []string{"48.11", "-1.68"}},
	})
	s.Require().NoError(err)

	got, err := s.service.ListSummaries(ctx, s.reader)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(rec.ID, got[0].ID)
	s.Equal("SN", got[0].Abbrev)
	s.Require().NotNil(got[0].Coordinates)
	s.Equal("48.11", got[0].Coordinates.Lat)
}

func (s *RecordServiceSuite) TestUpdate() {
	ctx := context.Background()
	rec := s.create(s.admin, "Site A", "LEVEL_0")

	s.Run("admin of another entity may not update", func() {
		_, err := s.service.Update(ctx, s.otherAdmin, rec.ID, rec.Metadata, rec.Values)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("reader of the same entity may not update", func() {
		_, err := s.service.Update(ctx, s.reader, rec.ID, rec.Metadata, rec.Values)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("identical payload is a no-op with no history", func() {
		before, err := s.entries.ListByEntity(ctx, "")
		s.Require().NoError(err)

		got, err := s.service.Update(ctx, s.admin, rec.ID, rec.Metadata, rec.Values)
		s.Require().NoError(err)
		s.Equal(rec.Metadata.UpdatedAt, got.Metadata.UpdatedAt)

		after, err := s.entries.ListByEntity(ctx, "")
		s.Require().NoError(err)
		s.Len(after, len(before))
	})

	s.Run("single field change lands in history with its path", func() {
		values := append([]record.Field(nil), rec.Values...)
		values[0].Value = "Site A2"

		got, err := s.service.Update(ctx, s.admin, rec.ID, rec.Metadata, values)
		s.Require().NoError(err)
		s.Equal("Site A2", got.Values[0].Value)
		s.True(got.Metadata.UpdatedAt.After(rec.Metadata.UpdatedAt))

		entries, err := s.entries.ListByEntity(ctx, "DR Bretagne")
		s.Require().NoError(err)
		s.Require().NotEmpty(entries)
		s.Equal(history.ActionUpdate, entries[0].Metadata.Type)
		s.Require().NotEmpty(entries[0].Values)
		s.Equal(rec.ID+".values[0].value", entries[0].Values[0].Value)
	})

	s.Run("entity cannot be changed through update", func() {
		meta := rec.Metadata
		meta.Entity = "DR Normandie"
		got, err := s.service.Update(ctx, s.admin, rec.ID, meta, rec.Values)
		s.Require().NoError(err)
		s.Equal("DR Bretagne", got.Metadata.Entity)
	})

	s.Run("missing record is not found", func() {
		_, err := s.service.Update(ctx, s.admin, "missing", rec.Metadata, rec.Values)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func (s *RecordServiceSuite) TestDelete() {
	ctx := context.Background()
	rec := s.create(s.admin, "Site A", "LEVEL_0")

	s.Run("admin of another entity may not delete", func() {
		err := s.service.Delete(ctx, s.otherAdmin, rec.ID)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("delete removes the record and appends history", func() {
		s.Require().NoError(s.service.Delete(ctx, s.admin, rec.ID))

		_, err := s.service.Get(ctx, s.admin, rec.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))

		entries, err := s.entries.ListByEntity(ctx, "DR Bretagne")
		s.Require().NoError(err)
		s.Require().NotEmpty(entries)
		s.Equal(history.ActionDelete, entries[0].Metadata.Type)
	})

	s.Run("history survives the record", func() {
		entries, err := s.entries.ListByEntity(ctx, "DR Bretagne")
		s.Require().NoError(err)
		s.GreaterOrEqual(len(entries), 2)
	})
}

func (s *RecordServiceSuite) TestQuickEdit() {
	ctx := context.Background()
	existing := s.create(s.admin, "Site A", "LEVEL_0")
	foreign := s.create(s.otherAdmin, "Site X", "LEVEL_0")

	s.Run("empty batch is a no-op", func() {
		applied, err := s.service.QuickEdit(ctx, s.admin, nil)
		s.Require().NoError(err)
		s.Zero(applied)
	})

	s.Run("batch touching a foreign record is rejected in full", func() {
		edited := foreign
		edited.Metadata.Label = "Hijacked"
		_, err := s.service.QuickEdit(ctx, s.admin, []record.Record{edited})
		s.True(dErrors.Is(err, dErrors.CodeForbidden))

		got, err := s.service.Get(ctx, s.otherAdmin, foreign.ID)
		s.Require().NoError(err)
		s.Equal("Site X", got.Metadata.Label)
	})

	s.Run("a reader may not create records through an unknown id", func() {
		smuggled := record.Record{
			ID:       "made-up-id",
			Metadata: record.Metadata{Label: "Smuggled", Authorization: "LEVEL_0"},
			Values:   []record.Field{},
		}
		_, err := s.service.QuickEdit(ctx, s.reader, []record.Record{smuggled})
		s.True(dErrors.Is(err, dErrors.CodeForbidden))

		all, err := s.service.ListAccessible(ctx, s.superAdmin, record.Filter{LabelContains: "Smuggled"})
		s.Require().NoError(err)
		s.Empty(all)
	})

	s.Run("creation metadata on an existing record cannot be rewritten", func() {
		stored, err := s.service.Get(ctx, s.admin, existing.ID)
		s.Require().NoError(err)

		edited := stored
		edited.Metadata.Label = "Site A renamed"
		edited.Metadata.CreatedAt = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
		edited.Metadata.CreatedBy = "impostor"

		applied, err := s.service.QuickEdit(ctx, s.admin, []record.Record{edited})
		s.Require().NoError(err)
		s.EqualValues(1, applied)

		got, err := s.service.Get(ctx, s.admin, existing.ID)
		s.Require().NoError(err)
		s.Equal("Site A renamed", got.Metadata.Label)
		s.True(got.Metadata.CreatedAt.Equal(stored.Metadata.CreatedAt))
		s.Equal(stored.Metadata.CreatedBy, got.Metadata.CreatedBy)
	})

	s.Run("mixed batch updates and creates in one pass", func() {
		edited := existing
		edited.Metadata.Label = "Site A2"
		fresh := record.Record{
			Metadata: record.Metadata{Label: "Site B", Authorization: "LEVEL_0"},
			Values:   []record.Field{},
		}

		applied, err := s.service.QuickEdit(ctx, s.admin, []record.Record{edited, fresh})
		s.Require().NoError(err)
		s.EqualValues(2, applied)

		got, err := s.service.Get(ctx, s.admin, existing.ID)
		s.Require().NoError(err)
		s.Equal("Site A2", got.Metadata.Label)

		all, err := s.service.ListAccessible(ctx, s.admin, record.Filter{LabelContains: "Site B"})
		s.Require().NoError(err)
		s.Require().Len(all, 1)
		s.Equal("DR Bretagne", all[0].Metadata.Entity)
		s.NotEmpty(all[0].ID)
	})
}
