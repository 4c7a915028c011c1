package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLongTerm(t *testing.T) *LongTermStore {
	t.Helper()
	s, err := OpenLongTermStore(":memory:", nil)
	require.NoError(t, err)
	return s
}

func TestLongTerm_SaveAndRecent(t *testing.T) {
	s := newTestLongTerm(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "s1", "user is interested in thermoelectric materials"))
	require.NoError(t, s.Save(ctx, "s1", "user prefers oxide chemistries"))
	require.NoError(t, s.Save(ctx, "s2", "unrelated session"))

	facts, err := s.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	for _, f := range facts {
		assert.Equal(t, "s1", f.SessionID)
	}
}

func TestLongTerm_RecentHonorsLimit(t *testing.T) {
	s := newTestLongTerm(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, "s1", "fact"))
	}

	facts, err := s.Recent(ctx, "s1", 3)
	require.NoError(t, err)
	assert.Len(t, facts, 3)
}

func TestLongTerm_SearchAcrossSessions(t *testing.T) {
	s := newTestLongTerm(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "s1", "perovskite solar absorbers show promise"))
	require.NoError(t, s.Save(ctx, "s2", "perovskite stability remains a concern"))
	require.NoError(t, s.Save(ctx, "s3", "zeolite catalysts for cracking"))

	facts, err := s.Search(ctx, "perovskite", 10)
	require.NoError(t, err)
	assert.Len(t, facts, 2)

	facts, err = s.Search(ctx, "graphene", 10)
	require.NoError(t, err)
	assert.Empty(t, facts)
}
