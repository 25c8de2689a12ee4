package grid

import "strconv"

// Machine is a bag of PEs sharing memory, the unit of failure
// (spec.md §3 "Machine"). Failed iff every contained PE is FAILED.
type Machine struct {
	ID  MachineID
	PEs []*PE
}

// NewMachine creates a machine with numPEs PEs, each rated at mips.
func NewMachine(id MachineID, numPEs int, mips float64) *Machine {
	pes := make([]*PE, numPEs)
	for i := 0; i < numPEs; i++ {
		pes[i] = NewPE(PEID(string(id)+"-pe"+strconv.Itoa(i)), mips)
	}
	return &Machine{ID: id, PEs: pes}
}

// Failed reports whether every PE on the machine is FAILED.
func (m *Machine) Failed() bool {
	for _, pe := range m.PEs {
		if pe.Status != PEFailed {
			return false
		}
	}
	return len(m.PEs) > 0
}

// FreeCount returns the number of FREE PEs on the machine.
func (m *Machine) FreeCount() int {
	n := 0
	for _, pe := range m.PEs {
		if pe.Status == PEFree {
			n++
		}
	}
	return n
}

// SetAllStatus sets every PE on the machine to status, used by failure
// injection transitions (spec.md §4.7).
func (m *Machine) SetAllStatus(status PEStatus) {
	for _, pe := range m.PEs {
		pe.Status = status
	}
}

// TotalPEs returns the PE count on the machine.
func (m *Machine) TotalPEs() int {
	return len(m.PEs)
}
