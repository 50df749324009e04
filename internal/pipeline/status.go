// Package pipeline contains the orchestration core: the pipeline status
// model, the storage probe that re-derives status from disk, and the driver
// that sequences the download, load, and transform stages.
package pipeline

// Status is the pipeline's position in its lifecycle. It is re-derived from
// persisted storage at process start and advanced only by the Driver.
type Status string

const (
	// StatusNotStarted means no usable data exists in the warehouse.
	StatusNotStarted Status = "not_started"

	// StatusLoading means a download or load stage is in flight.
	StatusLoading Status = "loading"

	// StatusDataLoaded means raw data is present but transformations have
	// not been built.
	StatusDataLoaded Status = "data_loaded"

	// StatusDbtBuilt means the marts schema exists and the dashboard can
	// serve analytics queries.
	StatusDbtBuilt Status = "dbt_built"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusLoading, StatusDataLoaded, StatusDbtBuilt:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Label returns the human-readable description shown in the UI and CLI.
func (s Status) Label() string {
	switch s {
	case StatusNotStarted:
		return "No data loaded"
	case StatusLoading:
		return "Pipeline running"
	case StatusDataLoaded:
		return "Raw data loaded, models not built"
	case StatusDbtBuilt:
		return "Analytics ready"
	default:
		return "Unknown"
	}
}

// Ready reports whether the dashboard can serve analytics queries.
func (s Status) Ready() bool {
	return s == StatusDbtBuilt
}

// Action is a user-triggerable pipeline operation.
type Action string

const (
	// ActionDownload downloads the dataset and bulk-loads it into the raw
	// schema.
	ActionDownload Action = "download"

	// ActionTransform runs the external transform tool over loaded data.
	ActionTransform Action = "transform"

	// ActionRefresh deletes the warehouse and re-runs download and load.
	// Irreversible.
	ActionRefresh Action = "refresh"
)

// Label returns the human-readable name for an action.
func (a Action) Label() string {
	switch a {
	case ActionDownload:
		return "Download & load data"
	case ActionTransform:
		return "Run transformations"
	case ActionRefresh:
		return "Refresh data"
	default:
		return string(a)
	}
}

// ActionsFor returns the actions legal in the given status, in display
// order. The result is a fresh slice; callers may modify it. This table is
// part of the public contract between the core and any UI.
func ActionsFor(s Status) []Action {
	switch s {
	case StatusNotStarted:
		return []Action{ActionDownload, ActionRefresh}
	case StatusLoading:
		return nil
	case StatusDataLoaded, StatusDbtBuilt:
		return []Action{ActionTransform, ActionRefresh}
	default:
		return nil
	}
}

// Allows reports whether action a is legal in status s.
func (s Status) Allows(a Action) bool {
	for _, allowed := range ActionsFor(s) {
		if allowed == a {
			return true
		}
	}
	return false
}
