package policy

import (
	"math"

	"github.com/krfmo/gridsim-sub001/engine"
	"github.com/krfmo/gridsim-sub001/grid"
	"github.com/krfmo/gridsim-sub001/job"
	"github.com/krfmo/gridsim-sub001/stats"
)

// ARResultCode is the closed set of advance-reservation reply codes
// (spec.md §4.6). Failure-to-fit replies additionally carry a bucketed
// "FAIL_RESOURCE_FULL_IN_<N>_<UNIT>" code built from Bucket.Label.
type ARResultCode string

const (
	ARCreateOK                     ARResultCode = "OK"
	ARCreateFailResourceCantSupport ARResultCode = "FAIL_RESOURCE_CANT_SUPPORT"
	ARError                        ARResultCode = "ERROR"
	ARErrorNotFound                ARResultCode = "ERROR_RESERVATION_NOT_FOUND"
)

// ReservationState is a Reservation's own stored state (spec.md §3),
// distinct from the richer set QueryReservation reports (ACTIVE and
// COMPLETED are derived from COMMITTED plus the current clock, not
// stored separately).
type ReservationState string

const (
	ResPending   ReservationState = "PENDING"
	ResCommitted ReservationState = "COMMITTED"
	ResExpired   ReservationState = "EXPIRED"
	ResCancelled ReservationState = "CANCELLED"
)

// ReservationStatus is the six-valued status spec.md §4.6 "query" reports.
type ReservationStatus string

const (
	QueryPending   ReservationStatus = "PENDING"
	QueryActive    ReservationStatus = "ACTIVE"
	QueryCompleted ReservationStatus = "COMPLETED"
	QueryExpired   ReservationStatus = "EXPIRED"
	QueryCancelled ReservationStatus = "CANCELLED"
	QueryFailed    ReservationStatus = "FAILED" // also used for "reservation id unknown"
)

// Reservation is a single advance-reservation record (spec.md §3
// "Reservation").
type Reservation struct {
	ID        int64
	UserID    engine.EntityID
	StartTime float64
	Duration  float64
	PECount   int
	State     ReservationState
	Jobs      map[string]bool
}

// ARRequest is the payload for TagARCreate / TagARCreateImmediate.
type ARRequest struct {
	TransactionID int64
	UserID        engine.EntityID
	StartTime     float64 // ignored by ImmediateReservation
	Duration      float64
	RequestedPE   int
	UserTimeZone  int

	// PreemptableScheduling is carried on the request, but ARPolicy does
	// not read it: ImmediateReservation always refuses a zero-duration
	// request with FAIL_RESOURCE_CANT_SUPPORT, answers a request that does
	// not fit this instant with a bucketed FAIL_RESOURCE_FULL_IN_* code
	// rather than deferring it, and never evicts running work to make room.
	PreemptableScheduling bool
}

// ARCreateResult is the TagReturnARCreate reply payload, wire-encoded per
// spec.md §4.6 as the length-3 tuple [tag, reservId, expiryTime] on
// success: ExpiryTime is when a still-PENDING reservation lapses if never
// committed (the moment its window starts). TransactionID echoes
// ARRequest.TransactionID so an owner with several outstanding creates to
// the same resource can match this reply to the request that produced it
// (spec.md §4.6 "reply messages ... carry (transactionId, ...)").
type ARCreateResult struct {
	TransactionID int64
	Code          ARResultCode
	ReservationID int64
	ExpiryTime    float64
}

// ARModifyRequest is the TagARModify payload.
type ARModifyRequest struct {
	TransactionID int64
	ReservationID int64
	NewStartTime  float64
	NewDuration   float64
}

// ARModifyResult is the TagReturnARModify reply payload.
type ARModifyResult struct {
	TransactionID int64
	Code          ARResultCode
}

// ARCancelRequest is the TagARCancel payload.
type ARCancelRequest struct {
	TransactionID int64
	ReservationID int64
}

// ARCancelResult is the TagReturnARCancel reply payload.
type ARCancelResult struct {
	TransactionID int64
	Code          ARResultCode
}

// ARCommitResult is the TagReturnARCommit reply payload.
type ARCommitResult struct {
	TransactionID int64
	Code          ARResultCode
}

// ARQueryRequest is the TagARQueryStatus payload.
type ARQueryRequest struct {
	TransactionID int64
	ReservationID int64
}

// ARQueryResult is the TagReturnARQueryStatus reply payload.
type ARQueryResult struct {
	TransactionID int64
	Status        ReservationStatus
}

// TimeSlot is one interval in a busy/free-time query reply (spec.md §4.6
// "listBusyTime" / "listFreeTime", wire-encoded per slot as
// [startTime, duration, peCount]): PE is the PE count occupied during
// [Start, End) for a busy slot, or free during [Start, End) for a free
// slot (Testable Property #7: freeSlot.PE == totalPE - busySlot.PE over
// the same sub-interval).
type TimeSlot struct {
	Start, End float64
	PE         int
}

// ARCapable is the capability set a GridResource exposes in addition to
// AllocationPolicy when its AllocationModel is ADVANCE_RESERVATION
// (spec.md §4.6, §9 capability-set polymorphism).
type ARCapable interface {
	AllocationPolicy
	CreateReservation(ctx *engine.Context, req ARRequest) ARCreateResult
	ImmediateReservation(ctx *engine.Context, req ARRequest) ARCreateResult
	ModifyReservation(ctx *engine.Context, req ARModifyRequest) ARModifyResult
	CancelReservation(ctx *engine.Context, req ARCancelRequest) ARCancelResult
	CommitReservation(ctx *engine.Context, transactionID, reservationID int64, jobs []*job.Job) ARCommitResult
	QueryReservation(req ARQueryRequest) ARQueryResult
	QueryBusyTime(from, to float64) []TimeSlot
	QueryFreeTime(from, to float64) []TimeSlot
	HandleExpiry(reservationID int64)
}

// ARPolicy wraps a space-shared Base with reservation bookkeeping
// (spec.md §3 "AR timeline"). Grounded on the teacher's
// sim/policy/admission.go concrete-struct-plus-factory pattern: NewAR
// mirrors NewAllocationPolicy, adding the reservation layer on top.
type ARPolicy struct {
	*Base

	timeline     *Timeline
	reservations map[int64]*Reservation
	buckets      []Bucket
	horizon      float64
	nextID       int64
}

// NewAR builds an ARPolicy over resource, with buckets as the
// busy-time rounding table (DefaultBuckets if nil) and horizon bounding
// how far into the future NextFreeMoment searches for an open slot.
func NewAR(resource *grid.Characteristics, calendar *grid.Calendar, sink *stats.Sink, buckets []Bucket, horizon float64) *ARPolicy {
	base := newBase(resource, calendar, sink)
	base.strategy = spaceShared{}
	if buckets == nil {
		buckets = DefaultBuckets()
	}
	if horizon <= 0 {
		horizon = 24 * 3600
	}
	return &ARPolicy{
		Base:         base,
		timeline:     NewTimeline(resource.TotalPEs()),
		reservations: make(map[int64]*Reservation),
		buckets:      buckets,
		horizon:      horizon,
	}
}

func (p *ARPolicy) nextReservationID() int64 {
	p.nextID++
	return p.nextID
}

func (p *ARPolicy) failToFit(transactionID int64, start, duration float64, pe int) ARCreateResult {
	next, ok := p.timeline.NextFreeMoment(start, duration, pe, p.horizon)
	wait := next - start
	if !ok {
		// Nothing opens up within the horizon: report the largest bucket.
		wait = math.Inf(1)
	}
	bucket := RoundUp(p.buckets, wait)
	return ARCreateResult{TransactionID: transactionID, Code: ARResultCode("FAIL_RESOURCE_FULL_IN_" + bucket.Label())}
}

// CreateReservation implements spec.md §4.6 "create": admits a future
// [start, start+duration) window as PENDING if it fits, otherwise reports
// a bucketed estimate of how long the caller would have to wait.
func (p *ARPolicy) CreateReservation(ctx *engine.Context, req ARRequest) ARCreateResult {
	if req.RequestedPE <= 0 || req.RequestedPE > p.Resource.TotalPEs() {
		return ARCreateResult{TransactionID: req.TransactionID, Code: ARCreateFailResourceCantSupport}
	}
	if req.StartTime < ctx.Now() || req.Duration <= 0 {
		return ARCreateResult{TransactionID: req.TransactionID, Code: ARError}
	}
	if !p.timeline.CanFit(req.StartTime, req.StartTime+req.Duration, req.RequestedPE) {
		return p.failToFit(req.TransactionID, req.StartTime, req.Duration, req.RequestedPE)
	}
	id := p.nextReservationID()
	res := &Reservation{ID: id, UserID: req.UserID, StartTime: req.StartTime, Duration: req.Duration, PECount: req.RequestedPE, State: ResPending, Jobs: make(map[string]bool)}
	p.reservations[id] = res
	p.timeline.Add(id, res.StartTime, res.StartTime+res.Duration, res.PECount)
	ctx.Schedule(ctx.ID(), res.StartTime-ctx.Now(), engine.TagReservationExpiry, id)
	return ARCreateResult{TransactionID: req.TransactionID, Code: ARCreateOK, ReservationID: id, ExpiryTime: res.StartTime}
}

// ImmediateReservation implements spec.md §4.6 "create (immediate)": the
// window starts now, so there is no separate commit step — either it fits
// this instant or it fails ("fits" is never relaxed by evicting running
// jobs). ExpiryTime is still
// reported as now+duration per spec.md §4.6's reply tuple, even though an
// already-COMMITTED reservation has no PENDING-lapse deadline of its own.
func (p *ARPolicy) ImmediateReservation(ctx *engine.Context, req ARRequest) ARCreateResult {
	if req.RequestedPE <= 0 || req.RequestedPE > p.Resource.TotalPEs() || req.Duration <= 0 {
		return ARCreateResult{TransactionID: req.TransactionID, Code: ARCreateFailResourceCantSupport}
	}
	now := ctx.Now()
	if !p.timeline.CanFit(now, now+req.Duration, req.RequestedPE) {
		return p.failToFit(req.TransactionID, now, req.Duration, req.RequestedPE)
	}
	id := p.nextReservationID()
	res := &Reservation{ID: id, UserID: req.UserID, StartTime: now, Duration: req.Duration, PECount: req.RequestedPE, State: ResCommitted, Jobs: make(map[string]bool)}
	p.reservations[id] = res
	p.timeline.Add(id, res.StartTime, res.StartTime+res.Duration, res.PECount)
	return ARCreateResult{TransactionID: req.TransactionID, Code: ARCreateOK, ReservationID: id, ExpiryTime: now + req.Duration}
}

// ModifyReservation implements spec.md §4.6 "modify": only a still-PENDING
// reservation may move; a COMMITTED one has already started consuming its
// window and cannot be rescheduled.
func (p *ARPolicy) ModifyReservation(ctx *engine.Context, req ARModifyRequest) ARModifyResult {
	res, ok := p.reservations[req.ReservationID]
	if !ok {
		return ARModifyResult{TransactionID: req.TransactionID, Code: ARErrorNotFound}
	}
	if res.State != ResPending {
		return ARModifyResult{TransactionID: req.TransactionID, Code: ARError}
	}
	p.timeline.Remove(res.ID)
	if req.NewStartTime < ctx.Now() || req.NewDuration <= 0 || !p.timeline.CanFit(req.NewStartTime, req.NewStartTime+req.NewDuration, res.PECount) {
		p.timeline.Add(res.ID, res.StartTime, res.StartTime+res.Duration, res.PECount)
		return ARModifyResult{TransactionID: req.TransactionID, Code: ARCreateFailResourceCantSupport}
	}
	res.StartTime = req.NewStartTime
	res.Duration = req.NewDuration
	p.timeline.Add(res.ID, res.StartTime, res.StartTime+res.Duration, res.PECount)
	ctx.Schedule(ctx.ID(), res.StartTime-ctx.Now(), engine.TagReservationExpiry, res.ID)
	return ARModifyResult{TransactionID: req.TransactionID, Code: ARCreateOK}
}

// CancelReservation implements spec.md §4.6 "cancel": drops the
// reservation's timeline footprint and cancels any jobs still committed
// under it.
func (p *ARPolicy) CancelReservation(ctx *engine.Context, req ARCancelRequest) ARCancelResult {
	res, ok := p.reservations[req.ReservationID]
	if !ok {
		return ARCancelResult{TransactionID: req.TransactionID, Code: ARErrorNotFound}
	}
	for jobID := range res.Jobs {
		p.Base.Cancel(ctx, jobID)
	}
	p.timeline.Remove(res.ID)
	res.State = ResCancelled
	return ARCancelResult{TransactionID: req.TransactionID, Code: ARCreateOK}
}

// CommitReservation implements spec.md §4.6 "commit" (both the
// commit-only and commit-with-gridlet variants: jobs is empty for the
// former). Committing a PENDING reservation does not carve out a
// separate dedicated PE pool; the timeline's footprint remains the
// admission-control and query record of record, while attached jobs flow
// through the ordinary space-shared placement path, tagged with the
// reservation id they belong to.
func (p *ARPolicy) CommitReservation(ctx *engine.Context, transactionID, reservationID int64, jobs []*job.Job) ARCommitResult {
	res, ok := p.reservations[reservationID]
	if !ok {
		return ARCommitResult{TransactionID: transactionID, Code: ARErrorNotFound}
	}
	if res.State == ResExpired && ctx.Now() <= res.StartTime && p.timeline.CanFit(res.StartTime, res.StartTime+res.Duration, res.PECount) {
		// The expiry event for ExpiryTime is delivered before a commit
		// arriving at that same instant; a commit no later than ExpiryTime
		// is in time, so the lapse is undone.
		res.State = ResPending
		p.timeline.Add(res.ID, res.StartTime, res.StartTime+res.Duration, res.PECount)
	}
	if res.State != ResPending {
		return ARCommitResult{TransactionID: transactionID, Code: ARError}
	}
	res.State = ResCommitted
	for _, j := range jobs {
		j.ReservationID = res.ID
		res.Jobs[j.ID] = true
		p.Base.Submit(ctx, j, false)
	}
	return ARCommitResult{TransactionID: transactionID, Code: ARCreateOK}
}

// QueryReservation implements spec.md §4.6 "query" without a clock: it
// maps the stored state directly and reports every COMMITTED reservation
// as ACTIVE, even after its window has ended, so it never reports
// COMPLETED. QueryReservationAt distinguishes ACTIVE from COMPLETED.
func (p *ARPolicy) QueryReservation(req ARQueryRequest) ARQueryResult {
	res, ok := p.reservations[req.ReservationID]
	if !ok {
		return ARQueryResult{TransactionID: req.TransactionID, Status: QueryFailed}
	}
	var status ReservationStatus
	switch res.State {
	case ResPending:
		status = QueryPending
	case ResCancelled:
		status = QueryCancelled
	case ResExpired:
		status = QueryExpired
	default:
		status = QueryActive
	}
	return ARQueryResult{TransactionID: req.TransactionID, Status: status}
}

// QueryReservationAt resolves the full six-valued status at simulated
// time t, distinguishing ACTIVE from COMPLETED for a COMMITTED
// reservation.
func (p *ARPolicy) QueryReservationAt(reservationID int64, t float64) ReservationStatus {
	res, ok := p.reservations[reservationID]
	if !ok {
		return QueryFailed
	}
	switch res.State {
	case ResPending:
		return QueryPending
	case ResCancelled:
		return QueryCancelled
	case ResExpired:
		return QueryExpired
	case ResCommitted:
		if t >= res.StartTime+res.Duration {
			return QueryCompleted
		}
		return QueryActive
	default:
		return QueryFailed
	}
}

// HandleExpiry processes a TagReservationExpiry event: a reservation
// still PENDING when its window was due to start never got committed in
// time and lapses.
func (p *ARPolicy) HandleExpiry(reservationID int64) {
	res, ok := p.reservations[reservationID]
	if !ok || res.State != ResPending {
		return
	}
	res.State = ResExpired
	p.timeline.Remove(res.ID)
}

// QueryBusyTime implements spec.md §4.6 "listBusyTime": every maximal
// sub-interval of [from, to) with constant PE occupancy, each slot
// carrying the number of PEs occupied during it (Testable Property #7:
// PE sum per instant equals totalPE across the corresponding busy/free
// slot pair).
func (p *ARPolicy) QueryBusyTime(from, to float64) []TimeSlot {
	return p.timeline.busyTimeSlots(from, to)
}

// QueryFreeTime implements spec.md §4.6 "listFreeTime": the complement of
// QueryBusyTime within [from, to), each slot carrying totalPE minus the
// PE count busy during it.
func (p *ARPolicy) QueryFreeTime(from, to float64) []TimeSlot {
	return p.timeline.freeTimeSlots(from, to)
}

var _ ARCapable = (*ARPolicy)(nil)
