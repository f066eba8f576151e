package constants

// EventStatus is the canonical status for rows in document_events.
type EventStatus string

// Stable values (store these exact strings in DB).
const (
	EventProcessed EventStatus = "PROCESSED" // renamed into the processed dir
	EventFailed    EventStatus = "FAILED"    // routed into the error dir
	EventRequeued  EventStatus = "REQUEUED"  // moved from the error dir back to watch
	EventExhausted EventStatus = "EXHAUSTED" // max attempts reached, left in error dir
)

// AllEventStatuses lists every status in lifecycle order.
var AllEventStatuses = []EventStatus{EventProcessed, EventFailed, EventRequeued, EventExhausted}
