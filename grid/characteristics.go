package grid

// AllocationModel is the scheduling discipline a resource advertises
// (spec.md §3 "Resource characteristics").
type AllocationModel int

const (
	TimeShared AllocationModel = iota
	SpaceShared
	AdvanceReservation
)

func (m AllocationModel) String() string {
	switch m {
	case TimeShared:
		return "TIME_SHARED"
	case SpaceShared:
		return "SPACE_SHARED"
	case AdvanceReservation:
		return "ADVANCE_RESERVATION"
	default:
		return "UNKNOWN"
	}
}

// Characteristics is the static capability description of a resource
// (spec.md §3 "Resource characteristics"), grouped the way the teacher's
// sim/config.go groups related config fields into one struct per concern.
type Characteristics struct {
	ResourceID       string
	Machines         []*Machine
	AllocationModel  AllocationModel
	CostPerSec       float64
	ResourceTimeZone int // hours, in [-12, 12]
}

// TotalPEs returns the sum of PEs across every machine.
func (c *Characteristics) TotalPEs() int {
	n := 0
	for _, m := range c.Machines {
		n += m.TotalPEs()
	}
	return n
}

// FreePEs returns the sum of FREE PEs across every machine.
func (c *Characteristics) FreePEs() int {
	n := 0
	for _, m := range c.Machines {
		n += m.FreeCount()
	}
	return n
}

// MachineByID looks up a machine by id.
func (c *Characteristics) MachineByID(id MachineID) *Machine {
	for _, m := range c.Machines {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// AllPEs returns every PE across every machine, in machine-registration
// order.
func (c *Characteristics) AllPEs() []*PE {
	var pes []*PE
	for _, m := range c.Machines {
		pes = append(pes, m.PEs...)
	}
	return pes
}
