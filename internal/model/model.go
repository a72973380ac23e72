package model

// Days is the number of columns in the weekly grid (Monday = 0).
const Days = 7

// Slot is one class period. Empty strings mean "not set"; a slot with
// neither name nor location is an empty period.
type Slot struct {
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
	Location string `yaml:"location,omitempty" json:"location,omitempty"`
}

// Empty reports whether nothing is scheduled in the slot.
func (s Slot) Empty() bool {
	return s.Name == "" && s.Location == ""
}

// ViewMode selects between the compact single-day view and the expanded
// seven-day view.
type ViewMode int

const (
	ViewDay ViewMode = iota
	ViewWeek
)

// Toggle returns the other view mode.
func (v ViewMode) Toggle() ViewMode {
	if v == ViewDay {
		return ViewWeek
	}
	return ViewDay
}

func (v ViewMode) String() string {
	if v == ViewWeek {
		return "week"
	}
	return "day"
}

// ParseViewMode maps "week" to ViewWeek and anything else to ViewDay.
func ParseViewMode(s string) ViewMode {
	if s == "week" {
		return ViewWeek
	}
	return ViewDay
}

// SnapEdge is the horizontal screen edge the window is docked to.
type SnapEdge int

const (
	SnapNone SnapEdge = iota
	SnapLeft
	SnapRight
)

func (e SnapEdge) String() string {
	switch e {
	case SnapLeft:
		return "left"
	case SnapRight:
		return "right"
	default:
		return "none"
	}
}
