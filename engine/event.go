package engine

// EntityID identifies an Entity within a single Engine. IDs are assigned by
// the engine at registration time and are stable for the lifetime of the
// run (spec.md §3 "Entity").
type EntityID int64

// Event is the immutable message the engine delivers between entities
// (spec.md §3 "Event"). Sequence breaks ties between events that share a
// DeliveryTime, in FIFO order of scheduling.
type Event struct {
	SourceID     EntityID
	DestID       EntityID
	SendTime     float64
	DeliveryTime float64
	Tag          Tag
	Payload      any
	Sequence     uint64
}

// IOPayload is the envelope carried with cross-entity events that move a
// unit of data with an associated size and target service level
// (spec.md §3 "IO payload envelope").
type IOPayload struct {
	Data            any
	ByteSize        int64
	DestID          EntityID
	NetServiceLevel int
}
