package common

import "time"

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"buildType,omitempty"`
}

// StatusResult is the response for status.get.
type StatusResult struct {
	Region             string    `json:"region,omitempty"`
	LastUpdate         time.Time `json:"lastUpdate,omitempty"`
	HasLastUpdate      bool      `json:"hasLastUpdate"`
	Destination        string    `json:"destination,omitempty"`
	UpdateInterval     int64     `json:"updateInterval"`
	Updating           bool      `json:"updating"`
	Searching          bool      `json:"searching"`
	LastAttempt        time.Time `json:"lastAttempt,omitempty"`
	LastError          string    `json:"lastError,omitempty"`
	NeedsConfiguration bool      `json:"needsConfiguration"`
	CanUpdate          bool      `json:"canUpdate"`
}

// TriggerResult is the response for update.trigger. Started is false when
// an update was already running.
type TriggerResult struct {
	Started bool `json:"started"`
}

type RegionParams struct {
	Region string `json:"region"`
}

type IntervalParams struct {
	Seconds int64 `json:"seconds"`
}

type SearchParams struct {
	Roots []string `json:"roots,omitempty"`
}

type PathParams struct {
	Path string `json:"path"`
}

type DestinationResult struct {
	Path string `json:"path"`
}

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

// UpdaterStateNotification is pushed as updater.state.
type UpdaterStateNotification struct {
	Updating    bool      `json:"updating"`
	LastAttempt time.Time `json:"lastAttempt,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
}

// SearchStateNotification is pushed as search.state.
type SearchStateNotification struct {
	Searching bool   `json:"searching"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SettingsChangedNotification is pushed as settings.changed.
type SettingsChangedNotification struct {
	Key        string    `json:"key"`
	Deleted    bool      `json:"deleted,omitempty"`
	LastUpdate time.Time `json:"lastUpdate,omitempty"`
}

// TickNotification is pushed as scheduler.tick.
type TickNotification struct {
	Now time.Time `json:"now"`
}
