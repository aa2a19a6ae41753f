package compare

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestReportPass(t *testing.T) {
	ok := Sequences([]string{"a"}, []string{"a"})
	bad := Sequences([]string{"a"}, []string{"b"})
	stateOK := States(mustParse(t, `{"x":1}`), mustParse(t, `{"x":1}`))
	stateBad := States(mustParse(t, `{"x":1}`), mustParse(t, `{"x":2}`))

	tests := []struct {
		name   string
		report Report
		pass   bool
	}{
		{"both match", Report{Log: ok, State: stateOK}, true},
		{"log diverges", Report{Log: bad, State: stateOK}, false},
		{"state diverges", Report{Log: ok, State: stateBad}, false},
		{"both diverge", Report{Log: bad, State: stateBad}, false},
		{"log only", Report{Log: ok}, true},
		{"empty report", Report{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.pass, tt.report.Pass())
		})
	}
}

func TestReportRenderMatch(t *testing.T) {
	r := Report{
		Log:   Sequences([]string{"x", "y"}, []string{"x", "y"}),
		State: States(mustParse(t, `{"turn":1}`), mustParse(t, `{"turn":1}`)),
	}

	var buf bytes.Buffer
	r.Render(&buf)
	assert.Equal(t, "action log: match (2 actions)\nfinal state: match\n", buf.String())
}

func TestReportRenderDegenerate(t *testing.T) {
	r := Report{Log: Sequences(nil, []string{"x"})}

	var buf bytes.Buffer
	r.Render(&buf)
	assert.Contains(t, buf.String(), "degenerate")
	assert.Contains(t, buf.String(), "cannot certify determinism")
}

func TestReportRenderDivergence(t *testing.T) {
	a := []string{
		"Turn 1",
		"Alice draws a card",
		"Alice plays Mountain",
		"Alice casts Lightning Bolt",
		"Lightning Bolt deals 3 damage to Bob",
		"Bob draws a card",
		"Bob plays Forest",
		"Turn 2",
	}
	b := make([]string, len(a))
	copy(b, a)
	b[6] = "Bob plays Island"

	stateA := mustParse(t, `{"players":[{"life":20},{"life":12}],"turn":3}`)
	stateB := mustParse(t, `{"players":[{"life":20},{"life":13}],"turn":3,"phase":"end"}`)

	r := Report{Log: Sequences(a, b), State: States(stateA, stateB)}

	var buf bytes.Buffer
	r.Render(&buf)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "divergence_report", buf.Bytes())
}
