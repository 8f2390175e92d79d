package validation

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fyrsmithlabs/lpcassist/internal/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	results   []corpus.SearchResult
	lastQuery string
	lastLimit int
}

func (f *fakeSearcher) SearchScored(_ context.Context, query string, limit int) []corpus.SearchResult {
	f.lastQuery = query
	f.lastLimit = limit
	if len(f.results) > limit {
		return f.results[:limit]
	}
	return f.results
}

func newValidator(t *testing.T, s Searcher, table *IdentifierTable) *Validator {
	t.Helper()
	v, err := New(s, table)
	require.NoError(t, err)
	return v
}

func TestNew_RequiresSearcher(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestValidate_NoResults(t *testing.T) {
	s := &fakeSearcher{}
	result := newValidator(t, s, nil).Validate(context.Background(), "nothing matches")

	assert.Equal(t, 25, s.lastLimit)
	assert.Equal(t, "nothing matches", s.lastQuery)
	assert.Zero(t, result.ConfidenceScore)
	assert.Zero(t, result.ValidationScore)
	assert.Zero(t, result.SourcesConsulted)
	assert.NotNil(t, result.KnownIdentifiers)
	assert.Empty(t, result.KnownIdentifiers)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"efuns_found":[]`)
}

func TestValidate_AllVerified(t *testing.T) {
	s := &fakeSearcher{results: []corpus.SearchResult{
		{Path: "/a.txt", Snippet: "shared_token another_token", Score: 0.5},
		{Path: "/b.txt", Snippet: "shared_token another_token", Score: 0.5},
		{Path: "/c.txt", Snippet: "shared_token another_token", Score: 0.5},
		{Path: "/d.txt", Snippet: "shared_token another_token", Score: 0.5},
	}}
	result := newValidator(t, s, nil).Validate(context.Background(), "q")

	require.Len(t, result.Documents, 4)
	for _, d := range result.Documents {
		assert.Equal(t, Verified, d.Status)
	}
	assert.InDelta(t, 0.8, result.ConfidenceScore, 1e-9)
	assert.InDelta(t, 1.0, result.ValidationScore, 1e-9)
	assert.Equal(t, 4, result.Counts()[Verified])
	assert.False(t, result.LowConfidence(DefaultMinConfidence))
}

func TestValidate_MixedStatuses(t *testing.T) {
	s := &fakeSearcher{results: []corpus.SearchResult{
		{Path: "/a.txt", Snippet: "heart_beat living", Score: 0.4},
		{Path: "/b.txt", Snippet: "heart_beat living", Score: 0.4},
		{Path: "/c.txt", Snippet: "unrelated words", Score: 0.1},
	}}
	result := newValidator(t, s, nil).Validate(context.Background(), "q")

	statuses := []Status{result.Documents[0].Status, result.Documents[1].Status, result.Documents[2].Status}
	assert.Equal(t, []Status{CrossReferenced, CrossReferenced, SingleSource}, statuses)
	assert.InDelta(t, 0.3+0.3/3, result.ConfidenceScore, 1e-9)
	assert.InDelta(t, (0.6*2+0.3)/3, result.ValidationScore, 1e-9)
	assert.Equal(t, 3, result.SourcesConsulted)
}

func TestValidate_ConfidenceCapped(t *testing.T) {
	s := &fakeSearcher{results: []corpus.SearchResult{
		{Path: "/a.c", Snippet: "master_apply", Score: 1.35},
		{Path: "/b.c", Snippet: "master_apply", Score: 1.35},
	}}
	result := newValidator(t, s, nil).Validate(context.Background(), "q")
	assert.Equal(t, 1.0, result.ConfidenceScore)
}

func TestValidate_IdentifiersAndExamples(t *testing.T) {
	table := NewIdentifierTable(map[string][]string{
		"all_efuns.txt": {"call_out", "clone_object", "write"},
	})
	s := &fakeSearcher{results: []corpus.SearchResult{
		{Path: "/ref/mudos/src/efuns_main.c", Line: 10, Score: 0.9,
			Snippet: "void f_call_out() {\n  call_out(ob, fun);\n  write(\"x\");\n}"},
		{Path: "/ref/docs/call_out.txt", Line: 0, Score: 0.8,
			Snippet: "call_out - schedule\nsee also write\nand more"},
		{Path: "/ref/dgd/kfun/short.c", Line: 2, Score: 0.7,
			Snippet: "write(1);\ncall_out(2);"},
		{Path: "/ref/mudlib/std/room.lpc", Line: 4, Score: 0.6,
			Snippet: "inherit ROOM;\nvoid create() {\n  ::create();\n}"},
	}}
	result := newValidator(t, s, table).Validate(context.Background(), "call_out")

	assert.Equal(t, []string{"call_out", "write"}, result.KnownIdentifiers)
	require.Len(t, result.CodeExamples, 2)
	assert.Equal(t, CodeExample{
		Path:    "/ref/mudos/src/efuns_main.c",
		Code:    "void f_call_out() {\n  call_out(ob, fun);\n  write(\"x\");\n}",
		Context: "From MudOS at line 11",
		Driver:  "MudOS",
	}, result.CodeExamples[0])
	assert.Equal(t, UnknownDriver, result.CodeExamples[1].Driver)
}

func TestValidate_WithLimit(t *testing.T) {
	s := &fakeSearcher{}
	v, err := New(s, nil, WithLimit(5))
	require.NoError(t, err)
	v.Validate(context.Background(), "q")
	assert.Equal(t, 5, s.lastLimit)
}

func TestLookupIdentifier(t *testing.T) {
	s := &fakeSearcher{}
	newValidator(t, s, nil).LookupIdentifier(context.Background(), "call_out")
	assert.Equal(t, "call_out efun function", s.lastQuery)
	assert.Equal(t, 10, s.lastLimit)
}

func TestDescribeIdentifier(t *testing.T) {
	s := &fakeSearcher{results: []corpus.SearchResult{
		{Path: "fluffos/src/call_out.c", Line: 3, Snippet: "void f_call_out()", Score: 1.15},
	}}
	table := NewIdentifierTable(map[string][]string{
		"all_efuns.txt":      {"call_out", "write"},
		"merentha_efuns.txt": {"call_out"},
	})
	v := newValidator(t, s, table)

	report := v.DescribeIdentifier(context.Background(), " call_out ")
	assert.Equal(t, "call_out", report.Name)
	assert.True(t, report.Known)
	assert.Equal(t, []string{"all_efuns.txt", "merentha_efuns.txt"}, report.Sources)
	require.Len(t, report.References, 1)
	assert.Equal(t, "call_out efun function", s.lastQuery)

	s.results = nil
	unknown := v.DescribeIdentifier(context.Background(), "frobnicate")
	assert.False(t, unknown.Known)
	assert.Empty(t, unknown.Sources)
	assert.NotNil(t, unknown.References)
}

func TestDriverOf(t *testing.T) {
	tests := map[string]string{
		"/x/MudOS-v22/interpret.c": "MudOS",
		"/x/fluffos/src/vm.c":      "FluffOS",
		"/x/dgd/src/kfun.c":        "DGD",
		"/x/ldmud/src/simulate.c":  "LDMud",
		"/x/custom/driver.c":       UnknownDriver,
	}
	for path, want := range tests {
		assert.Equal(t, want, DriverOf(path), path)
	}
}

func TestValidate_AgainstCorpus(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"all_efuns.txt":            "call_out\nremove_call_out\n",
		"fluffos/src/call_out.c":   "void new_call_out(object_t *ob) {\n  /* schedule call_out */\n}\n",
		"mudos/src/call_out.c":     "void new_call_out(object_t *ob) {\n  /* schedule call_out */\n}\n",
		"doc/efun/remove_call_out": "ignored: no extension\n",
		"doc/efun/call_out.md":     "call_out schedules a delayed function call\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	idx := corpus.New(root)
	_, err := idx.Build(context.Background())
	require.NoError(t, err)

	table := LoadIdentifiers(context.Background(), root, DefaultIdentifierLists, nil)
	result := newValidator(t, idx, table).Validate(context.Background(), "new_call_out schedule")

	require.NotEmpty(t, result.Documents)
	assert.Contains(t, result.KnownIdentifiers, "call_out")
	assert.GreaterOrEqual(t, result.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, result.ConfidenceScore, 1.0)
	assert.LessOrEqual(t, result.ValidationScore, 1.0)

	drivers := map[string]bool{}
	for _, ex := range result.CodeExamples {
		drivers[ex.Driver] = true
	}
	assert.True(t, drivers["FluffOS"])
	assert.True(t, drivers["MudOS"])
}
