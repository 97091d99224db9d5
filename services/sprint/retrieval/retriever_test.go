// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phoenixlabs/PhoenixSprint/services/sprint/datatypes"
)

// fakeEmbedder returns a distinct vector per input text.
type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

// fakeSearcher serves canned results keyed by search source and records
// the config each search arrived with. Searches run concurrently, so
// the recording is locked.
type fakeSearcher struct {
	results map[datatypes.SearchSource][]datatypes.Candidate
	errs    map[datatypes.SearchSource]error

	mu   sync.Mutex
	seen map[datatypes.SearchSource]SearchConfig
}

func (f *fakeSearcher) Search(ctx context.Context, vector []float32, cfg SearchConfig) ([]datatypes.Candidate, error) {
	f.mu.Lock()
	if f.seen == nil {
		f.seen = make(map[datatypes.SearchSource]SearchConfig)
	}
	f.seen[cfg.Source] = cfg
	f.mu.Unlock()

	if err := f.errs[cfg.Source]; err != nil {
		return nil, err
	}
	return f.results[cfg.Source], nil
}

func candidate(id string, toolType datatypes.ToolType, similarity float64, source datatypes.SearchSource) datatypes.Candidate {
	return datatypes.Candidate{
		ToolContent: datatypes.ToolContent{
			ID:    id,
			Title: "Tool " + id,
			Type:  toolType,
		},
		Similarity: similarity,
		Source:     source,
	}
}

func testQueries() datatypes.SearchQueries {
	return datatypes.SearchQueries{
		Models:  "decision frameworks for pivoting",
		Biases:  "biases when abandoning a project",
		General: "startup pivot concepts",
	}
}

func TestRetrieve_MergesAllThreeSearches(t *testing.T) {
	searcher := &fakeSearcher{results: map[datatypes.SearchSource][]datatypes.Candidate{
		datatypes.SourceModels: {
			candidate("m1", datatypes.ToolTypeMentalModel, 0.9, datatypes.SourceModels),
			candidate("m2", datatypes.ToolTypeMentalModel, 0.8, datatypes.SourceModels),
		},
		datatypes.SourceBiases: {
			candidate("b1", datatypes.ToolTypeCognitiveBias, 0.7, datatypes.SourceBiases),
		},
		datatypes.SourceGeneral: {
			candidate("g1", datatypes.ToolTypeGeneralConcept, 0.85, datatypes.SourceGeneral),
		},
	}}

	r := NewRetriever(searcher, &fakeEmbedder{}, DefaultRetrieverConfig())
	merged, err := r.Retrieve(context.Background(), testQueries())

	require.NoError(t, err)
	assert.Len(t, merged, 4)
	assert.True(t, sort.SliceIsSorted(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	}))
}

func TestRetrieve_LanguageReachesEverySearch(t *testing.T) {
	searcher := &fakeSearcher{results: map[datatypes.SearchSource][]datatypes.Candidate{
		datatypes.SourceModels: {
			candidate("m1", datatypes.ToolTypeMentalModel, 0.9, datatypes.SourceModels),
			candidate("m2", datatypes.ToolTypeMentalModel, 0.8, datatypes.SourceModels),
		},
		datatypes.SourceBiases: {
			candidate("b1", datatypes.ToolTypeCognitiveBias, 0.7, datatypes.SourceBiases),
		},
	}}

	queries := testQueries()
	queries.Language = "es"

	r := NewRetriever(searcher, &fakeEmbedder{}, DefaultRetrieverConfig())
	_, err := r.Retrieve(context.Background(), queries)
	require.NoError(t, err)

	sources := []datatypes.SearchSource{datatypes.SourceModels, datatypes.SourceBiases, datatypes.SourceGeneral}
	for _, src := range sources {
		cfg, ok := searcher.seen[src]
		require.True(t, ok, "no search recorded for %s", src)
		assert.Equal(t, "es", cfg.Language)
	}
}

func TestRetrieve_DedupKeepsHigherSimilarityAndItsSource(t *testing.T) {
	// The same identity surfaces from two searches with different
	// similarities; the higher one and its source must survive.
	searcher := &fakeSearcher{results: map[datatypes.SearchSource][]datatypes.Candidate{
		datatypes.SourceModels: {
			candidate("dup", datatypes.ToolTypeMentalModel, 0.75, datatypes.SourceModels),
			candidate("m2", datatypes.ToolTypeMentalModel, 0.8, datatypes.SourceModels),
		},
		datatypes.SourceGeneral: {
			candidate("dup", datatypes.ToolTypeMentalModel, 0.85, datatypes.SourceGeneral),
			candidate("g1", datatypes.ToolTypeGeneralConcept, 0.7, datatypes.SourceGeneral),
		},
	}}

	r := NewRetriever(searcher, &fakeEmbedder{}, DefaultRetrieverConfig())
	merged, err := r.Retrieve(context.Background(), testQueries())

	require.NoError(t, err)
	require.Len(t, merged, 3)

	var dup *datatypes.Candidate
	for i := range merged {
		if merged[i].ID == "dup" {
			dup = &merged[i]
		}
	}
	require.NotNil(t, dup)
	assert.Equal(t, 0.85, dup.Similarity)
	assert.Equal(t, datatypes.SourceGeneral, dup.Source)
}

func TestRetrieve_AnySearchFailureFailsAll(t *testing.T) {
	searcher := &fakeSearcher{
		results: map[datatypes.SearchSource][]datatypes.Candidate{
			datatypes.SourceModels: {
				candidate("m1", datatypes.ToolTypeMentalModel, 0.9, datatypes.SourceModels),
			},
		},
		errs: map[datatypes.SearchSource]error{
			datatypes.SourceBiases: errors.New("connection refused"),
		},
	}

	r := NewRetriever(searcher, &fakeEmbedder{}, DefaultRetrieverConfig())
	_, err := r.Retrieve(context.Background(), testQueries())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchFailed)
}

func TestRetrieve_EmbeddingFailureWrapsSearchFailed(t *testing.T) {
	r := NewRetriever(&fakeSearcher{}, &fakeEmbedder{err: errors.New("rate limit")}, DefaultRetrieverConfig())
	_, err := r.Retrieve(context.Background(), testQueries())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchFailed)
}

func TestRetrieve_EmptyMergedSet(t *testing.T) {
	r := NewRetriever(&fakeSearcher{}, &fakeEmbedder{}, DefaultRetrieverConfig())
	_, err := r.Retrieve(context.Background(), testQueries())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCandidatesFound)
}

func TestRetrieve_BelowMinimum(t *testing.T) {
	searcher := &fakeSearcher{results: map[datatypes.SearchSource][]datatypes.Candidate{
		datatypes.SourceModels: {
			candidate("m1", datatypes.ToolTypeMentalModel, 0.9, datatypes.SourceModels),
			candidate("m2", datatypes.ToolTypeMentalModel, 0.8, datatypes.SourceModels),
		},
	}}

	r := NewRetriever(searcher, &fakeEmbedder{}, DefaultRetrieverConfig())
	_, err := r.Retrieve(context.Background(), testQueries())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientCandidates)
	assert.Contains(t, err.Error(), "found 2")
}

func TestValidateRetrieverConfig_CorrectsInvalidValues(t *testing.T) {
	bad := RetrieverConfig{
		Models:  SearchConfig{Limit: -1, Certainty: 1.5},
		Biases:  SearchConfig{Limit: 0, Certainty: 0},
		General: SearchConfig{Limit: 5, Certainty: 0.8, Source: datatypes.SourceGeneral},
	}

	fixed := validateRetrieverConfig(bad)
	defaults := DefaultRetrieverConfig()

	assert.Equal(t, defaults.Models.Limit, fixed.Models.Limit)
	assert.Equal(t, defaults.Models.Certainty, fixed.Models.Certainty)
	assert.Equal(t, defaults.Biases.Certainty, fixed.Biases.Certainty)
	assert.Equal(t, defaults.MinCandidates, fixed.MinCandidates)
	// Valid values survive untouched.
	assert.Equal(t, 5, fixed.General.Limit)
	assert.Equal(t, 0.8, fixed.General.Certainty)
}

func TestDefaultRetrieverConfig_BiasThresholdIsLower(t *testing.T) {
	cfg := DefaultRetrieverConfig()
	assert.Less(t, cfg.Biases.Certainty, cfg.Models.Certainty)
	assert.Less(t, cfg.Biases.Certainty, cfg.General.Certainty)
}
