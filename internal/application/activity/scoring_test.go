package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-gen-ai-api/internal/workflow/node"
)

func TestClampScoring(t *testing.T) {
	cases := []struct {
		field string
		in    string
		want  float64
		event bool
	}{
		{field: "maxScore", in: "999", want: 200, event: true},
		{field: "maxScore", in: "10", want: 50, event: true},
		{field: "maxScore", in: "120", want: 120},
		{field: "pointsPerCorrect", in: "30.5", want: 25, event: true},
		{field: "pointsPerCorrect", in: "5", want: 5},
		{field: "pointsPerIncorrect", in: "-50", want: -10, event: true},
		{field: "pointsPerIncorrect", in: "3", want: 0, event: true},
		{field: "bonusForSpeed", in: "-1", want: 0, event: true},
		{field: "bonusForStreak", in: "21", want: 20, event: true},
		{field: "bonusForStreak", in: "1e1", want: 10},
	}
	for _, tc := range cases {
		t.Run(tc.field+"="+tc.in, func(t *testing.T) {
			root, perr := node.ParseNode(`{"` + tc.field + `":` + tc.in + `}`)
			require.Nil(t, perr)

			events := ClampScoring(root)
			got, _ := root.Get(tc.field)
			f, ok := got.Float()
			require.True(t, ok)
			assert.Equal(t, tc.want, f)
			if tc.event {
				require.Len(t, events, 1)
				assert.Equal(t, tc.in, events[0].From)
			} else {
				assert.Empty(t, events)
				assert.Equal(t, tc.in, got.Number.String())
			}
		})
	}
}

func TestClampScoringMatchesSaturation(t *testing.T) {
	for _, r := range ScoringRanges {
		for v := r.Min - 30; v <= r.Max+30; v += 7 {
			root := node.NewMapping()
			root.Set(r.Field, node.NewNumber(jsonInt(v)))
			ClampScoring(root)
			got, _ := root.Get(r.Field)
			f, _ := got.Float()
			assert.Equal(t, float64(min(max(v, r.Min), r.Max)), f, "%s=%d", r.Field, v)
		}
	}
}

func TestClampScoringSkipsNonNumbers(t *testing.T) {
	root, perr := node.ParseNode(`{"maxScore":"lots","pointsPerCorrect":null}`)
	require.Nil(t, perr)
	assert.Empty(t, ClampScoring(root))
	v, _ := root.Get("maxScore")
	assert.Equal(t, "lots", v.Str)
}
