package engine

import "strconv"

// Tag selects the kind of message an Event carries. The full enumeration is
// closed and shared by every component that schedules or receives events
// (spec.md §6 "Tag enumeration").
type Tag int

const (
	// TagInternalNoOp is used for self-addressed wake-ups (Pause) that never
	// cross a package boundary as a meaningful payload; reservation expiry
	// has its own TagReservationExpiry.
	TagInternalNoOp Tag = iota

	// Job lifecycle (spec.md §4.5)
	TagSubmit
	TagSubmitAck
	TagReturn
	TagCancel
	TagCancelAck
	TagPause
	TagPauseAck
	TagResume
	TagResumeAck
	TagStatus
	TagMove

	// Advance reservation lifecycle (spec.md §4.6)
	TagARCreate
	TagARCreateImmediate
	TagARCommitOnly
	TagARCommitWithGridlet
	TagARCancel
	TagARModify
	TagARQueryStatus
	TagARListBusyTime
	TagARListFreeTime

	TagReturnARCreate
	TagReturnARCommit
	TagReturnARCancel
	TagReturnARModify
	TagReturnARQueryStatus
	TagReturnARListBusyTime
	TagReturnARListFreeTime

	// Infrastructure (spec.md §4.3, §4.4, §4.8)
	TagRegisterResource
	TagRegisterResourceAR
	TagResourceList
	TagResourceListAR
	TagRegisterRegionalGIS
	TagRegisterLink
	TagRegisterRouter
	TagRecordStatistics
	TagReturnAccStatisticsByCategory
	TagEndOfSimulation

	// Internal, resource-local bookkeeping. These never leave the
	// resource entity that scheduled them against itself.
	TagJobComplete
	TagReservationExpiry

	// Failure injection (spec.md §4.7)
	TagNodeUnavailable
	TagNodeAvailable
)

var tagNames = map[Tag]string{
	TagInternalNoOp:                   "InternalNoOp",
	TagSubmit:                         "Submit",
	TagSubmitAck:                      "SubmitAck",
	TagReturn:                         "Return",
	TagCancel:                         "Cancel",
	TagCancelAck:                      "CancelAck",
	TagPause:                          "Pause",
	TagPauseAck:                       "PauseAck",
	TagResume:                         "Resume",
	TagResumeAck:                      "ResumeAck",
	TagStatus:                         "Status",
	TagMove:                           "Move",
	TagARCreate:                       "ARCreate",
	TagARCreateImmediate:              "ARCreateImmediate",
	TagARCommitOnly:                   "ARCommitOnly",
	TagARCommitWithGridlet:            "ARCommitWithGridlet",
	TagARCancel:                       "ARCancel",
	TagARModify:                       "ARModify",
	TagARQueryStatus:                  "ARQueryStatus",
	TagARListBusyTime:                 "ARListBusyTime",
	TagARListFreeTime:                 "ARListFreeTime",
	TagReturnARCreate:                 "ReturnARCreate",
	TagReturnARCommit:                 "ReturnARCommit",
	TagReturnARCancel:                 "ReturnARCancel",
	TagReturnARModify:                 "ReturnARModify",
	TagReturnARQueryStatus:            "ReturnARQueryStatus",
	TagReturnARListBusyTime:           "ReturnARListBusyTime",
	TagReturnARListFreeTime:           "ReturnARListFreeTime",
	TagRegisterResource:               "RegisterResource",
	TagRegisterResourceAR:             "RegisterResourceAR",
	TagResourceList:                   "ResourceList",
	TagResourceListAR:                 "ResourceListAR",
	TagRegisterRegionalGIS:            "RegisterRegionalGIS",
	TagRegisterLink:                   "RegisterLink",
	TagRegisterRouter:                 "RegisterRouter",
	TagRecordStatistics:               "RecordStatistics",
	TagReturnAccStatisticsByCategory:  "ReturnAccStatisticsByCategory",
	TagEndOfSimulation:                "EndOfSimulation",
	TagJobComplete:                    "JobComplete",
	TagReservationExpiry:              "ReservationExpiry",
	TagNodeUnavailable:                "NodeUnavailable",
	TagNodeAvailable:                  "NodeAvailable",
}

// String renders a Tag for logging; unknown tags print their numeric value.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "Tag(" + strconv.Itoa(int(t)) + ")"
}
