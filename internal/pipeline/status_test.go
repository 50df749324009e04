package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionsFor(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   []Action
	}{
		{
			name:   "not started allows download and refresh",
			status: StatusNotStarted,
			want:   []Action{ActionDownload, ActionRefresh},
		},
		{
			name:   "loading allows nothing",
			status: StatusLoading,
			want:   nil,
		},
		{
			name:   "data loaded allows transform and refresh",
			status: StatusDataLoaded,
			want:   []Action{ActionTransform, ActionRefresh},
		},
		{
			name:   "dbt built allows transform and refresh",
			status: StatusDbtBuilt,
			want:   []Action{ActionTransform, ActionRefresh},
		},
		{
			name:   "unknown status allows nothing",
			status: Status("bogus"),
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActionsFor(tt.status))
		})
	}
}

func TestActionsFor_ReturnsFreshSlice(t *testing.T) {
	first := ActionsFor(StatusNotStarted)
	first[0] = ActionTransform

	second := ActionsFor(StatusNotStarted)
	assert.Equal(t, ActionDownload, second[0])
}

func TestStatus_Allows(t *testing.T) {
	tests := []struct {
		status Status
		action Action
		want   bool
	}{
		{StatusNotStarted, ActionDownload, true},
		{StatusNotStarted, ActionRefresh, true},
		{StatusNotStarted, ActionTransform, false},
		{StatusLoading, ActionDownload, false},
		{StatusLoading, ActionTransform, false},
		{StatusLoading, ActionRefresh, false},
		{StatusDataLoaded, ActionTransform, true},
		{StatusDataLoaded, ActionRefresh, true},
		{StatusDataLoaded, ActionDownload, false},
		{StatusDbtBuilt, ActionTransform, true},
		{StatusDbtBuilt, ActionRefresh, true},
		{StatusDbtBuilt, ActionDownload, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Allows(tt.action))
		})
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusNotStarted, StatusLoading, StatusDataLoaded, StatusDbtBuilt} {
		assert.True(t, s.Valid(), "expected %s to be valid", s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("done").Valid())
}

func TestStatus_Labels(t *testing.T) {
	for _, s := range []Status{StatusNotStarted, StatusLoading, StatusDataLoaded, StatusDbtBuilt} {
		assert.NotEmpty(t, s.Label())
		assert.NotEqual(t, "Unknown", s.Label())
	}
	assert.Equal(t, "Unknown", Status("bogus").Label())
}

func TestStatus_Ready(t *testing.T) {
	assert.True(t, StatusDbtBuilt.Ready())
	assert.False(t, StatusDataLoaded.Ready())
	assert.False(t, StatusLoading.Ready())
	assert.False(t, StatusNotStarted.Ready())
}
