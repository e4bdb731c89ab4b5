package academic

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newResolverUnderTest(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver("", zap.NewNop())
	require.NoError(t, err)
	return r
}

func TestLookupAcademicSuffixes(t *testing.T) {
	r := newResolverUnderTest(t)

	tests := []struct {
		email    string
		academic bool
	}{
		{"prof@university.edu", true},
		{"student@cs.university.edu", true},
		{"lecturer@some.ac.uk", true},
		{"phd@monash.edu.au", true},
		{"jane@gmail.com", false},
		{"jane@educated.com", false},
		{"no-at-sign", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			info, err := r.Lookup(context.Background(), tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.academic, info.Academic)
		})
	}
}

func TestLookupResolvesInstitutionName(t *testing.T) {
	r := newResolverUnderTest(t)

	info, err := r.Lookup(context.Background(), "gradstudent@mit.edu")
	require.NoError(t, err)
	assert.True(t, info.Academic)
	assert.Equal(t, "Massachusetts Institute of Technology", info.Institution)
}

func TestLookupWalksSubdomains(t *testing.T) {
	r := newResolverUnderTest(t)

	info, err := r.Lookup(context.Background(), "phd@mail.cs.stanford.edu")
	require.NoError(t, err)
	assert.True(t, info.Academic)
	assert.Equal(t, "Stanford University", info.Institution)
}

func TestLookupCatalogueWithoutAcademicSuffix(t *testing.T) {
	r := newResolverUnderTest(t)

	// ethz.ch has no academic TLD but is in the catalogue.
	info, err := r.Lookup(context.Background(), "researcher@ethz.ch")
	require.NoError(t, err)
	assert.True(t, info.Academic)
	assert.Equal(t, "ETH Zurich", info.Institution)
}

func TestNewResolverLoadsInstitutionsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "institutions.json")
	extra := map[string]string{
		"smallcollege.org": "Small College",
		"MIT.EDU":          "MIT Override",
	}
	data, err := json.Marshal(extra)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, data, 0o644))

	r, err := NewResolver(file, zap.NewNop())
	require.NoError(t, err)

	info, err := r.Lookup(context.Background(), "dean@smallcollege.org")
	require.NoError(t, err)
	assert.True(t, info.Academic)
	assert.Equal(t, "Small College", info.Institution)

	// File entries override the builtin catalogue, keys normalized.
	info, err = r.Lookup(context.Background(), "x@mit.edu")
	require.NoError(t, err)
	assert.Equal(t, "MIT Override", info.Institution)
}

func TestNewResolverRejectsBadFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(file, []byte("not json"), 0o644))

	_, err := NewResolver(file, zap.NewNop())
	assert.Error(t, err)
}
