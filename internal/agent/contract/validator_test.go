package contract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAnswer() *Answer {
	return &Answer{
		AnswerTitle:         "Fix a frozen desktop",
		OneParagraphSummary: "Power-cycle the machine and check the power supply connections.",
		Steps: []Step{{
			Title:  "Hold the power button",
			Detail: "Hold the physical power button for ten seconds until the machine turns off.",
			OS:     []string{"Windows", "Linux"},
		}},
		Citations: []Citation{
			{URL: "https://support.example.com/frozen", Title: "Official troubleshooting guide"},
			{URL: "https://forum.different.org/thread/42", Title: "Community thread"},
		},
	}
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestValidator_AcceptsValidAnswer(t *testing.T) {
	v := newTestValidator(t)
	require.NoError(t, v.Validate(validAnswer()))
}

func TestValidator_CitationCountBounds(t *testing.T) {
	v := newTestValidator(t)

	mkCitations := func(n int) []Citation {
		cs := make([]Citation, 0, n)
		hosts := []string{"one.com", "two.org", "three.net", "four.io", "five.dev", "six.app"}
		for i := 0; i < n; i++ {
			cs = append(cs, Citation{URL: "https://" + hosts[i], Title: "source"})
		}
		return cs
	}

	for _, tc := range []struct {
		count int
		valid bool
	}{
		{1, false},
		{2, true},
		{5, true},
		{6, false},
	} {
		a := validAnswer()
		a.Citations = mkCitations(tc.count)
		err := v.Validate(a)
		if tc.valid {
			assert.NoError(t, err, "%d citations should validate", tc.count)
		} else {
			assert.Error(t, err, "%d citations should be rejected", tc.count)
		}
	}
}

func TestValidator_RejectsBadDiagram(t *testing.T) {
	v := newTestValidator(t)

	a := validAnswer()
	a.Diagrams = []Diagram{{Caption: "flow", SVG: "<div>not a diagram</div>"}}
	err := v.Validate(a)
	require.Error(t, err)

	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)

	a.Diagrams = []Diagram{{Caption: "flow", SVG: `<svg xmlns="http://www.w3.org/2000/svg"></svg>`}}
	assert.NoError(t, v.Validate(a))
}

func TestValidator_RejectsMissingRequired(t *testing.T) {
	v := newTestValidator(t)

	t.Run("no steps", func(t *testing.T) {
		a := validAnswer()
		a.Steps = nil
		assert.Error(t, v.Validate(a))
	})

	t.Run("empty title", func(t *testing.T) {
		a := validAnswer()
		a.AnswerTitle = ""
		assert.Error(t, v.Validate(a))
	})

	t.Run("step without os", func(t *testing.T) {
		a := validAnswer()
		a.Steps[0].OS = nil
		assert.Error(t, v.Validate(a))
	})

	t.Run("unknown os label", func(t *testing.T) {
		a := validAnswer()
		a.Steps[0].OS = []string{"TempleOS"}
		assert.Error(t, v.Validate(a))
	})
}

func TestValidator_RejectsMalformedCitationURL(t *testing.T) {
	v := newTestValidator(t)
	a := validAnswer()
	a.Citations[0].URL = "not a url at all"
	assert.Error(t, v.Validate(a))
}

func TestValidator_RejectsNonPositiveNumbers(t *testing.T) {
	v := newTestValidator(t)

	t.Run("zero est_minutes", func(t *testing.T) {
		a := validAnswer()
		zero := 0.0
		a.Steps[0].EstMinutes = &zero
		assert.Error(t, v.Validate(a))
	})

	t.Run("zero link_step", func(t *testing.T) {
		a := validAnswer()
		zero := 0
		a.DecisionTree = []DecisionNode{{If: "still broken", Then: "open a ticket", LinkStep: &zero}}
		assert.Error(t, v.Validate(a))
	})
}

func TestValidator_ClampThenValidate(t *testing.T) {
	v := newTestValidator(t)

	a := validAnswer()
	a.AnswerTitle = strings.Repeat("t", 300)
	a.Steps[0].Detail = strings.Repeat("d", 900)

	require.Error(t, v.Validate(a), "oversized fields must fail until clamped")

	Clamp(a)
	require.NoError(t, v.Validate(a), "over-length content must be clamped, not rejected")
	assert.Len(t, a.AnswerTitle, 200)
	assert.Len(t, a.Steps[0].Detail, 800)
}
