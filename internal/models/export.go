package models

import "time"

// AppExport is the canonical export document. ExportedAt is what marks a
// file as an app export rather than a provider export.
type AppExport struct {
	ExportedAt time.Time  `json:"exported_at"`
	Cycles     []Cycle    `json:"cycles"`
	Logs       []DailyLog `json:"logs"`
}
