package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/planstream/internal/metadata"
)

func ptr(v float64) *float64 { return &v }

var testSnapshot = metadata.Snapshot{
	Projects: []metadata.Project{
		{ID: "100", Name: "Inbox", IsInbox: true},
		{ID: "200", Name: "Work"},
		{ID: "300", Name: "Home"},
	},
	Labels: []metadata.Label{
		{ID: "1", Name: "Errands"},
		{ID: "2", Name: "DeepWork"},
	},
}

func TestNormalizePriorityPrecedence(t *testing.T) {
	cases := []struct {
		name string
		task *float64
		hint int
		req  int
		want int
	}{
		{"task wins", ptr(2), 4, 3, 2},
		{"hint over request", nil, 4, 1, 4},
		{"request only", nil, 0, 3, 3},
		{"none", nil, 0, 0, 0},
		{"rounded", ptr(2.6), 0, 0, 3},
		{"clamped high", ptr(9), 0, 0, 4},
		{"clamped low", ptr(-3), 0, 0, 1},
		{"zero clamps to one", ptr(0), 0, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(
				PlannedTask{Title: "x", Priority: tc.task},
				Request{Priority: tc.req},
				metadata.Snapshot{},
				Hints{Priority: tc.hint},
			)
			assert.Equal(t, tc.want, got.Priority)
		})
	}
}

func TestNormalizeLabelsIdempotent(t *testing.T) {
	in := []string{" errands", "ERRANDS", "deepwork", "a", "b", "c", "d", "e"}
	once := NormalizeLabels(in, testSnapshot)
	assert.Equal(t, []string{"Errands", "DeepWork", "a", "b", "c"}, once)
	assert.Equal(t, once, NormalizeLabels(once, testSnapshot))
	assert.LessOrEqual(t, len(once), MaxLabels)
}

func TestNormalizeLabelsFirstSeenCasing(t *testing.T) {
	got := NormalizeLabels([]string{"Focus", "focus", "FOCUS"}, metadata.Snapshot{})
	assert.Equal(t, []string{"Focus"}, got)
	assert.Nil(t, NormalizeLabels([]string{" ", ""}, testSnapshot))
	assert.Nil(t, NormalizeLabels(nil, testSnapshot))
}

func TestNormalizeLabelPrecedence(t *testing.T) {
	hints := Hints{Labels: []string{"Errands"}}

	got := Normalize(PlannedTask{Title: "x", Labels: []string{"deepwork"}}, Request{Labels: []string{"req"}}, testSnapshot, hints)
	assert.Equal(t, []string{"DeepWork"}, got.Labels)

	got = Normalize(PlannedTask{Title: "x"}, Request{Labels: []string{"req"}}, testSnapshot, hints)
	assert.Equal(t, []string{"req"}, got.Labels)

	got = Normalize(PlannedTask{Title: "x"}, Request{}, testSnapshot, hints)
	assert.Equal(t, []string{"Errands"}, got.Labels)

	got = Normalize(PlannedTask{Title: "x"}, Request{}, testSnapshot, Hints{})
	assert.Nil(t, got.Labels)
}

func TestNormalizeDue(t *testing.T) {
	all := &Due{String: "tomorrow", Date: "2026-10-20", Datetime: "2026-10-20T09:00:00Z"}
	got := Normalize(PlannedTask{Title: "x", Due: all}, Request{Due: "next week"}, metadata.Snapshot{}, Hints{})
	assert.Equal(t, &Due{Datetime: "2026-10-20T09:00:00Z"}, got.Due)

	got = Normalize(PlannedTask{Title: "x", Due: &Due{String: "tomorrow", Date: "2026-10-20"}}, Request{}, metadata.Snapshot{}, Hints{})
	assert.Equal(t, &Due{Date: "2026-10-20"}, got.Due)

	got = Normalize(PlannedTask{Title: "x", Due: &Due{String: "tomorrow"}}, Request{Due: "friday"}, metadata.Snapshot{}, Hints{})
	assert.Equal(t, &Due{String: "tomorrow"}, got.Due)

	got = Normalize(PlannedTask{Title: "x", Due: &Due{}}, Request{Due: "friday"}, metadata.Snapshot{}, Hints{})
	assert.Equal(t, &Due{String: "friday"}, got.Due)

	got = Normalize(PlannedTask{Title: "x"}, Request{}, metadata.Snapshot{}, Hints{})
	assert.Nil(t, got.Due)
}

func TestNormalizeProject(t *testing.T) {
	inferred := &metadata.Project{ID: "300", Name: "Home"}

	got := Normalize(PlannedTask{Title: "x", ProjectID: "200", Project: "Home"}, Request{}, testSnapshot, Hints{Project: inferred})
	require.NotNil(t, got.Project)
	assert.Equal(t, ProjectRef{ID: "200", Name: "Work"}, *got.Project)

	got = Normalize(PlannedTask{Title: "x", ProjectID: "999"}, Request{}, testSnapshot, Hints{})
	assert.Equal(t, &ProjectRef{ID: "999", Name: "999"}, got.Project)

	got = Normalize(PlannedTask{Title: "x", Project: "work"}, Request{}, testSnapshot, Hints{})
	assert.Equal(t, &ProjectRef{ID: "200", Name: "Work"}, got.Project)

	got = Normalize(PlannedTask{Title: "x", Project: "Garden"}, Request{}, testSnapshot, Hints{})
	assert.Equal(t, &ProjectRef{Name: "Garden"}, got.Project)

	got = Normalize(PlannedTask{Title: "x"}, Request{}, testSnapshot, Hints{Project: inferred})
	assert.Equal(t, &ProjectRef{ID: "300", Name: "Home"}, got.Project)

	got = Normalize(PlannedTask{Title: "x"}, Request{}, testSnapshot, Hints{})
	assert.Nil(t, got.Project)
}
