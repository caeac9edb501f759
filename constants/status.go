package constants

// ItemStatus is the terminal outcome recorded for one work item.
type ItemStatus string

const (
	ItemStatusSucceeded ItemStatus = "SUCCEEDED"
	ItemStatusFailed    ItemStatus = "FAILED"
	ItemStatusSkipped   ItemStatus = "SKIPPED" // already present in prior output
)
