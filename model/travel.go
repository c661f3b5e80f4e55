package model

// TravelMatrix is a sparse mapping from an ordered job pair to the drive
// time, in whole minutes, from job i's end location to job j's start
// location. A missing entry means "unknown/infeasible".
type TravelMatrix struct {
	minutes map[[2]string]int
}

// NewTravelMatrix returns an empty matrix ready for Set.
func NewTravelMatrix() *TravelMatrix {
	return &TravelMatrix{minutes: make(map[[2]string]int)}
}

// Set records the drive time from job i to job j.
func (m *TravelMatrix) Set(i, j string, minutes int) {
	m.minutes[[2]string{i, j}] = minutes
}

// Get returns the drive time from i to j and whether it is known.
func (m *TravelMatrix) Get(i, j string) (int, bool) {
	v, ok := m.minutes[[2]string{i, j}]
	return v, ok
}

// Len reports how many pairs have a known travel time.
func (m *TravelMatrix) Len() int { return len(m.minutes) }
