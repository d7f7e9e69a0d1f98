package service

import (
	"sort"
	"strings"
	"time"

	"admingate/internal/models"
)

// WindowPresets maps relative duration presets to their length.
var WindowPresets = map[string]time.Duration{
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"24h": 24 * time.Hour,
	"3d":  3 * 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"14d": 14 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// PresetNames returns the known presets ordered by duration.
func PresetNames() []string {
	names := make([]string, 0, len(WindowPresets))
	for name := range WindowPresets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return WindowPresets[names[i]] < WindowPresets[names[j]]
	})
	return names
}

// WindowInput describes when a control starts and ends. Preset and EndsAt
// are mutually exclusive; neither means open-ended.
type WindowInput struct {
	StartsAt *time.Time
	Preset   string
	EndsAt   *time.Time
}

// Window is a resolved control period.
type Window struct {
	StartsAt time.Time
	EndsAt   *time.Time
}

// ResolveWindow computes the concrete window at now.
func ResolveWindow(now time.Time, in WindowInput) (Window, error) {
	start := now.UTC()
	if in.StartsAt != nil {
		start = in.StartsAt.UTC()
	}
	w := Window{StartsAt: start}

	preset := strings.ToLower(strings.TrimSpace(in.Preset))
	if preset != "" && in.EndsAt != nil {
		return Window{}, models.NewValidationError("use either a duration preset or an end time, not both")
	}

	switch {
	case preset != "":
		d, ok := WindowPresets[preset]
		if !ok {
			return Window{}, models.NewValidationError("unknown duration preset " + in.Preset + " (want one of " + strings.Join(PresetNames(), ", ") + ")")
		}
		end := start.Add(d)
		w.EndsAt = &end
	case in.EndsAt != nil:
		end := in.EndsAt.UTC()
		if !end.After(start) {
			return Window{}, models.NewValidationError("end time must be after the start time")
		}
		w.EndsAt = &end
	}
	return w, nil
}

// IsZero reports whether no window field was supplied.
func (in WindowInput) IsZero() bool {
	return in.StartsAt == nil && in.EndsAt == nil && strings.TrimSpace(in.Preset) == ""
}
