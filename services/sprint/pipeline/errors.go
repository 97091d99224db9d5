// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// ErrorKind is the closed set of pipeline failure categories. Every
// failure surfacing from Run carries exactly one kind.
type ErrorKind string

const (
	// KindValidation means the raw query failed input validation.
	// Local, immediate, non-retryable.
	KindValidation ErrorKind = "validation"

	// KindAnalysisFailed means the classification call or its response
	// parsing failed.
	KindAnalysisFailed ErrorKind = "analysis_failed"

	// KindNoCandidatesFound means retrieval produced an empty merged
	// set.
	KindNoCandidatesFound ErrorKind = "no_candidates_found"

	// KindInsufficientCandidates means retrieval produced fewer
	// candidates than the configured minimum.
	KindInsufficientCandidates ErrorKind = "insufficient_candidates"

	// KindSearchFailed means the embedding call or a store search
	// failed during retrieval fan-out.
	KindSearchFailed ErrorKind = "search_failed"

	// KindEmptySelection means curation produced zero tools.
	KindEmptySelection ErrorKind = "empty_selection"

	// KindEmptyQuery means the analysis reached the brief stage without
	// query text.
	KindEmptyQuery ErrorKind = "empty_query"

	// KindBriefTooLarge means the serialized brief overflowed the
	// generation input budget.
	KindBriefTooLarge ErrorKind = "brief_too_large"

	// KindBriefGenerationFailed means brief building failed for a
	// reason other than the specific brief conditions above.
	KindBriefGenerationFailed ErrorKind = "brief_generation_failed"

	// KindGenerationFailed means the downstream generation call failed
	// after retries were exhausted.
	KindGenerationFailed ErrorKind = "generation_failed"

	// KindTimedOut means a phase exceeded its timeout and was
	// abandoned.
	KindTimedOut ErrorKind = "timed_out"
)

// =============================================================================
// PIPELINE ERROR
// =============================================================================

// PipelineError is the typed failure surfaced by Run.
//
// It always names the originating phase and carries enough free-form
// context (query, counts, timeout values) to diagnose the failure
// without re-running the request.
type PipelineError struct {
	// Kind categorizes the failure.
	Kind ErrorKind

	// Phase is the pipeline phase that failed.
	Phase string

	// Context holds diagnostic key-value pairs.
	Context map[string]any

	// Cause is the underlying error if any.
	Cause error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed (%s)", e.Phase, e.Kind)
	if len(e.Context) > 0 {
		b.WriteString(" [")
		first := true
		for _, k := range sortedKeys(e.Context) {
			if !first {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
			first = false
		}
		b.WriteString("]")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// newError builds a PipelineError for the given phase and kind.
func newError(kind ErrorKind, phase string, cause error, kv ...any) *PipelineError {
	ctx := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			ctx[key] = kv[i+1]
		}
	}
	return &PipelineError{Kind: kind, Phase: phase, Context: ctx, Cause: cause}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
