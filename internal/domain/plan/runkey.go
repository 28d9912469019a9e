package plan

// RunKey is the handle under which the run registry stores a run's log
// buffer. Equality is by ID alone; Set and PlanName are display metadata so
// that a caller addressing a run by id alone (empty Set/PlanName) still
// matches the stored entry.
type RunKey struct {
	ID       uint32
	Set      string
	PlanName string
}

// Equal compares two keys by id only, per spec §4.4/§9.
func (k RunKey) Equal(other RunKey) bool {
	return k.ID == other.ID
}
