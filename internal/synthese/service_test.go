package synthese

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"geoatlas/internal/identity"
	"geoatlas/internal/record"
	"geoatlas/internal/roles"
	dErrors "geoatlas/pkg/domain-errors"
)

type SyntheseServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	records *record.InMemoryStore
	service *Service

	author identity.Principal
	other  identity.Principal
	root   identity.Principal
}

func TestSyntheseServiceSuite(t *testing.T) {
	suite.Run(t, new(SyntheseServiceSuite))
}

func (s *SyntheseServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = NewInMemoryStore()
	s.records = record.NewInMemoryStore()
	s.service = New(s.store, s.records, roles.DefaultTable(), logger)

	s.author = identity.Principal{
		ID:           "author-1",
		Entity:       "DR Bretagne",
		Habilitation: &identity.Habilitation{PrincipalID: "author-1", Role: "LEVEL_50"},
	}
	s.other = identity.Principal{ID: "reader-1", Entity: "DR Normandie"}
	s.root = identity.Principal{
		ID:           "root-1",
		Habilitation: &identity.Habilitation{PrincipalID: "root-1", Role: roles.SuperAdminRole},
	}

	for _, rec := range []record.Record{
		s.subObject("sub-1", "Pompe", "LEVEL_0"),
		s.subObject("sub-2", "Vanne", "LEVEL_0"),
		s.subObject("sub-3", "Armoire", "LEVEL_100"),
	} {
		s.Require().NoError(s.records.Insert(context.Background(), rec))
	}
}

func (s *SyntheseServiceSuite) subObject(id, label, authorization string) record.Record {
	return record.Record{
		ID: id,
		Metadata: record.Metadata{
			Label:         label,
			Entity:        "DR Bretagne",
			Authorization: authorization,
		},
		Values: []record.Field{
			{Label: "name", Type: record.TypeString, Value: label},
		},
	}
}

func (s *SyntheseServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("composes children with metadata snapshots and lazy value paths", func() {
		syn, err := s.service.Create(ctx, s.author, "REF-1", "Rapport pompes", []string{"sub-1", "sub-2"})
		s.Require().NoError(err)
		s.NotEmpty(syn.ID)
		s.Equal("DR Bretagne", syn.Metadata.Entity)
		s.Equal("author-1", syn.Metadata.Author)
		s.Require().Len(syn.Children, 2)
		s.Equal("sub-1", syn.Children[0].RecordID)
		s.Equal("sub-1.values", syn.Children[0].Path)
		s.Equal("Pompe", syn.Children[0].Metadata.Label)
	})

	s.Run("empty label is rejected", func() {
		_, err := s.service.Create(ctx, s.author, "REF-2", "", []string{"sub-1"})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("missing child is not found", func() {
		_, err := s.service.Create(ctx, s.author, "REF-3", "Rapport", []string{"sub-9"})
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("author must be able to read every child", func() {
		_, err := s.service.Create(ctx, s.author, "REF-4", "Rapport", []string{"sub-1", "sub-3"})
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("author without an entity may not compose", func() {
		free := identity.Principal{ID: "free-1"}
		_, err := s.service.Create(ctx, free, "REF-5", "Rapport", nil)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})
}

func (s *SyntheseServiceSuite) TestList() {
	ctx := context.Background()
	_, err := s.service.Create(ctx, s.author, "REF-1", "Rapport pompes", []string{"sub-1"})
	s.Require().NoError(err)

	s.Run("scoped to the caller's entity", func() {
		out, err := s.service.List(ctx, s.author)
		s.Require().NoError(err)
		s.Len(out, 1)

		out, err = s.service.List(ctx, s.other)
		s.Require().NoError(err)
		s.Empty(out)
	})

	s.Run("super admin sees every entity", func() {
		out, err := s.service.List(ctx, s.root)
		s.Require().NoError(err)
		s.Len(out, 1)
	})
}

func (s *SyntheseServiceSuite) TestResolve() {
	ctx := context.Background()
	syn, err := s.service.Create(ctx, s.author, "REF-1", "Rapport pompes", []string{"sub-1", "sub-2"})
	s.Require().NoError(err)

	s.Run("fetches current child values", func() {
		got, resolved, err := s.service.Resolve(ctx, s.author, syn.ID)
		s.Require().NoError(err)
		s.Equal(syn.ID, got.ID)
		s.Require().Len(resolved, 2)
		s.Equal([]record.Field{{Label: "name", Type: record.TypeString, Value: "Pompe"}}, resolved[0].Values)
		s.False(resolved[0].Missing)
	})

	s.Run("values reflect edits made after composition", func() {
		rec, err := s.records.FindByID(ctx, "sub-1")
		s.Require().NoError(err)
		rec.Values[0].Value = "Pompe 2"
		_, err = s.records.Replace(ctx, rec)
		s.Require().NoError(err)

		_, resolved, err := s.service.Resolve(ctx, s.author, syn.ID)
		s.Require().NoError(err)
		s.Equal("Pompe 2", resolved[0].Values[0].Value)
	})

	s.Run("deleted child comes back marked missing", func() {
		_, err := s.records.Delete(ctx, "sub-2")
		s.Require().NoError(err)

		_, resolved, err := s.service.Resolve(ctx, s.author, syn.ID)
		s.Require().NoError(err)
		s.Require().Len(resolved, 2)
		s.True(resolved[1].Missing)
		s.Empty(resolved[1].Values)
		s.Equal("Vanne", resolved[1].Child.Metadata.Label)
	})

	s.Run("reader of another entity may not resolve", func() {
		_, _, err := s.service.Resolve(ctx, s.other, syn.ID)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("missing synthese is not found", func() {
		_, _, err := s.service.Resolve(ctx, s.author, "missing")
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}
