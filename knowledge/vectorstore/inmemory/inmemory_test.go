//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insighthr/hragent/knowledge/document"
	"github.com/insighthr/hragent/knowledge/vectorstore"
)

func addDoc(t *testing.T, vs *VectorStore, id, scope string, embedding []float64) {
	t.Helper()
	err := vs.Add(context.Background(), &document.Document{
		ID:         id,
		Content:    "content of " + id,
		OwnerScope: scope,
	}, embedding)
	require.NoError(t, err)
}

func TestSearchRanksBySimilarity(t *testing.T) {
	vs := New()
	addDoc(t, vs, "far", document.ScopeCompany, []float64{0, 1})
	addDoc(t, vs, "near", document.ScopeCompany, []float64{1, 0.1})

	result, err := vs.Search(context.Background(), &vectorstore.Query{
		Vector:      []float64{1, 0},
		Limit:       2,
		OwnerScopes: []string{document.ScopeCompany},
	})
	require.NoError(t, err)
	require.Len(t, result.Documents, 2)
	assert.Equal(t, "near", result.Documents[0].Document.ID)
	assert.Greater(t, result.Documents[0].Score, result.Documents[1].Score)
}

func TestSearchOwnerIsolation(t *testing.T) {
	vs := New()
	addDoc(t, vs, "policy", document.ScopeCompany, []float64{1, 0})
	addDoc(t, vs, "alice-salary", "emp-alice", []float64{1, 0})
	addDoc(t, vs, "bob-salary", "emp-bob", []float64{1, 0})

	result, err := vs.Search(context.Background(), &vectorstore.Query{
		Vector:      []float64{1, 0},
		Limit:       10,
		OwnerScopes: []string{document.ScopeCompany, "emp-alice"},
	})
	require.NoError(t, err)

	ids := make([]string, 0, len(result.Documents))
	for _, sd := range result.Documents {
		ids = append(ids, sd.Document.ID)
	}
	assert.ElementsMatch(t, []string{"policy", "alice-salary"}, ids)
}

func TestSearchEmptyScopesMatchesNothing(t *testing.T) {
	vs := New()
	addDoc(t, vs, "policy", document.ScopeCompany, []float64{1, 0})

	result, err := vs.Search(context.Background(), &vectorstore.Query{
		Vector: []float64{1, 0},
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
}

func TestSearchTieBreakByInsertionOrder(t *testing.T) {
	vs := New()
	addDoc(t, vs, "first", document.ScopeCompany, []float64{1, 0})
	addDoc(t, vs, "second", document.ScopeCompany, []float64{1, 0})
	addDoc(t, vs, "third", document.ScopeCompany, []float64{1, 0})

	for i := 0; i < 5; i++ {
		result, err := vs.Search(context.Background(), &vectorstore.Query{
			Vector:      []float64{1, 0},
			Limit:       3,
			OwnerScopes: []string{document.ScopeCompany},
		})
		require.NoError(t, err)
		require.Len(t, result.Documents, 3)
		assert.Equal(t, "first", result.Documents[0].Document.ID)
		assert.Equal(t, "second", result.Documents[1].Document.ID)
		assert.Equal(t, "third", result.Documents[2].Document.ID)
	}
}

func TestSearchMinScore(t *testing.T) {
	vs := New()
	addDoc(t, vs, "aligned", document.ScopeCompany, []float64{1, 0})
	addDoc(t, vs, "orthogonal", document.ScopeCompany, []float64{0, 1})

	result, err := vs.Search(context.Background(), &vectorstore.Query{
		Vector:      []float64{1, 0},
		Limit:       10,
		OwnerScopes: []string{document.ScopeCompany},
		MinScore:    0.5,
	})
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "aligned", result.Documents[0].Document.ID)
}

func TestAddReplacesAndDelete(t *testing.T) {
	vs := New()
	ctx := context.Background()
	addDoc(t, vs, "doc", document.ScopeCompany, []float64{1, 0})
	addDoc(t, vs, "doc", document.ScopeCompany, []float64{0, 1})

	n, err := vs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, vs.Delete(ctx, "doc"))
	assert.ErrorIs(t, vs.Delete(ctx, "doc"), vectorstore.ErrDocumentNotFound)
}
