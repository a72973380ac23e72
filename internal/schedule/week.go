package schedule

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"timetable/internal/model"
)

// ErrSlotOutOfRange is returned when a (day, slot) address is outside the grid.
var ErrSlotOutOfRange = errors.New("schedule: slot out of range")

// Week is the 7×N grid of class slots, indexed by day (Monday = 0) and
// slot. The renderer only reads it.
type Week struct {
	slots int
	days  [model.Days][]model.Slot
}

// NewWeek returns an empty grid with n slots per day.
func NewWeek(n int) *Week {
	if n < 1 {
		n = 1
	}
	w := &Week{slots: n}
	for d := range w.days {
		w.days[d] = make([]model.Slot, n)
	}
	return w
}

// Slots is N, the number of periods per day.
func (w *Week) Slots() int {
	return w.slots
}

func (w *Week) Slot(day, slot int) (model.Slot, error) {
	if day < 0 || day >= model.Days || slot < 0 || slot >= w.slots {
		return model.Slot{}, fmt.Errorf("%w: day=%d slot=%d", ErrSlotOutOfRange, day, slot)
	}
	return w.days[day][slot], nil
}

func (w *Week) Set(day, slot int, s model.Slot) error {
	if day < 0 || day >= model.Days || slot < 0 || slot >= w.slots {
		return fmt.Errorf("%w: day=%d slot=%d", ErrSlotOutOfRange, day, slot)
	}
	w.days[day][slot] = s
	return nil
}

// Scheduled counts the non-empty slots of a day.
func (w *Week) Scheduled(day int) int {
	if day < 0 || day >= model.Days {
		return 0
	}
	n := 0
	for _, s := range w.days[day] {
		if !s.Empty() {
			n++
		}
	}
	return n
}

// Rows returns the number of grid rows needed to show every scheduled slot
// of the given days: the index of the last non-empty slot plus one. With no
// days given, the whole week is considered.
func (w *Week) Rows(days ...int) int {
	if len(days) == 0 {
		days = []int{0, 1, 2, 3, 4, 5, 6}
	}
	rows := 0
	for _, d := range days {
		if d < 0 || d >= model.Days {
			continue
		}
		for i := w.slots - 1; i >= rows; i-- {
			if !w.days[d][i].Empty() {
				rows = i + 1
				break
			}
		}
	}
	return rows
}

// Today maps a wall-clock time to a grid day index with Monday = 0.
func Today(now time.Time) int {
	return (int(now.Weekday()) + 6) % 7
}

var dayNames = map[string]int{
	"monday": 0, "mon": 0,
	"tuesday": 1, "tue": 1,
	"wednesday": 2, "wed": 2,
	"thursday": 3, "thu": 3,
	"friday": 4, "fri": 4,
	"saturday": 5, "sat": 5,
	"sunday": 6, "sun": 6,
}

// document is the on-disk YAML shape:
//
//	days:
//	  monday:
//	    - {name: Calculus, location: A101}
//	    - {}
//	  friday:
//	    - {name: Compilers, location: A301}
type document struct {
	Days map[string][]model.Slot `yaml:"days"`
}

// ParseYAML decodes a schedule document into an n-slot grid. Slots beyond n
// are an error rather than silently dropped.
func ParseYAML(data []byte, n int) (*Week, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schedule: parse yaml: %w", err)
	}

	w := NewWeek(n)
	for name, slots := range doc.Days {
		day, ok := dayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("schedule: unknown day %q", name)
		}
		for i, s := range slots {
			if err := w.Set(day, i, s); err != nil {
				return nil, err
			}
		}
	}
	return w, nil
}

// LoadYAML reads and parses a schedule file.
func LoadYAML(path string, n int) (*Week, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schedule: read %s: %w", path, err)
	}
	return ParseYAML(data, n)
}
