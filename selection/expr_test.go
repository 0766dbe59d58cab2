package selection

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

func exprRecord(t *testing.T, names []string, values []string) ntuple.Record {
	t.Helper()
	cols := make([]ntuple.Column, len(names))
	for i, n := range names {
		cols[i] = ntuple.Column{Name: n, Type: ntuple.TypeFloat64}
	}
	s, err := ntuple.NewSchema(cols...)
	require.NoError(t, err)
	rec, err := ntuple.NewRecord(s, values)
	require.NoError(t, err)
	return rec
}

func TestParse_Eval(t *testing.T) {
	rec := exprRecord(t,
		[]string{"met", "nJet", "lepPt", "nBJet"},
		[]string{"120.5", "4", "35", "1"},
	)
	cases := []struct {
		expr string
		want bool
	}{
		{"met > 100", true},
		{"met > 200", false},
		{"met >= 120.5", true},
		{"met < 120.5", false},
		{"met <= 120.5", true},
		{"nJet == 4", true},
		{"nJet != 4", false},
		{"met > 100 && nJet >= 4", true},
		{"met > 100 && nJet >= 5", false},
		{"met > 200 || lepPt > 30", true},
		{"met > 200 || lepPt > 40", false},
		{"!(met > 200)", true},
		{"!(met > 100)", false},
		{"met > 200 || nJet >= 4 && nBJet >= 1", true}, // && binds tighter
		{"(met > 200 || nJet >= 4) && nBJet >= 2", false},
		{"met > 1e2", true},
		{"lepPt > -10", true},
		{"100 < met", true},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			e, err := Parse(c.expr)
			require.NoError(t, err)
			got, err := e.Eval(rec)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	bad := []string{
		"",
		"met >",
		"met 100",
		"met > 100 &&",
		"met & 100",
		"met | 100",
		"met = 100",
		"(met > 100",
		"met > 100)",
		"met > 1.2.3",
		"met # 100",
	}
	for _, expr := range bad {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			assert.Error(t, err)
		})
	}
}

func TestEval_MissingFieldErrors(t *testing.T) {
	rec := exprRecord(t, []string{"met"}, []string{"10"})
	e, err := Parse("ghost > 5")
	require.NoError(t, err)
	_, err = e.Eval(rec)
	assert.Error(t, err)
}

func TestEval_ShortCircuitSkipsMissingField(t *testing.T) {
	rec := exprRecord(t, []string{"met"}, []string{"10"})

	e, err := Parse("met > 100 && ghost > 5")
	require.NoError(t, err)
	got, err := e.Eval(rec)
	require.NoError(t, err)
	assert.False(t, got)

	e, err = Parse("met > 5 || ghost > 5")
	require.NoError(t, err)
	got, err = e.Eval(rec)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestFields(t *testing.T) {
	e, err := Parse("met > 100 && (nJet >= 4 || !(lepPt < 20)) && met < 500")
	require.NoError(t, err)
	got := Fields(e)
	sort.Strings(got)
	assert.Equal(t, []string{"lepPt", "met", "nJet"}, got)
}
