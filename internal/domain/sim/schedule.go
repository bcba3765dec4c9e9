package sim

import "time"

type DayPart string

const (
	PartWork    DayPart = "work"
	PartLeisure DayPart = "leisure"
	PartRest    DayPart = "rest"
)

// HourWindow is a half-open [Start, End) range of hours that may wrap
// past midnight, e.g. {22, 6}.
type HourWindow struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

func (w HourWindow) Contains(hour int) bool {
	if w.Start == w.End {
		return false
	}
	if w.Start < w.End {
		return hour >= w.Start && hour < w.End
	}
	return hour >= w.Start || hour < w.End
}

type Schedule struct {
	Work    []HourWindow `yaml:"work" json:"work"`
	Leisure []HourWindow `yaml:"leisure" json:"leisure"`
	Rest    []HourWindow `yaml:"rest" json:"rest"`
}

func (s Schedule) PartAt(hour int) DayPart {
	for _, w := range s.Rest {
		if w.Contains(hour) {
			return PartRest
		}
	}
	for _, w := range s.Work {
		if w.Contains(hour) {
			return PartWork
		}
	}
	for _, w := range s.Leisure {
		if w.Contains(hour) {
			return PartLeisure
		}
	}
	return PartLeisure
}

// DayStartHour is the hour at which the class's rest window ends; night
// shelter activities are bounded to it.
func (s Schedule) DayStartHour() int {
	if len(s.Rest) == 0 {
		return 6
	}
	return s.Rest[0].End
}

// NextDayStart returns the next occurrence of the class's day-start hour
// strictly after now.
func (s Schedule) NextDayStart(now time.Time) time.Time {
	h := s.DayStartHour()
	candidate := time.Date(now.Year(), now.Month(), now.Day(), h, 0, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func defaultSchedules() map[SocialClass]Schedule {
	return map[SocialClass]Schedule{
		ClassLaborer: {
			Work:    []HourWindow{{Start: 5, End: 17}},
			Leisure: []HourWindow{{Start: 17, End: 22}},
			Rest:    []HourWindow{{Start: 22, End: 5}},
		},
		ClassArtisan: {
			Work:    []HourWindow{{Start: 6, End: 18}},
			Leisure: []HourWindow{{Start: 18, End: 23}},
			Rest:    []HourWindow{{Start: 23, End: 6}},
		},
		ClassMerchant: {
			Work:    []HourWindow{{Start: 7, End: 18}},
			Leisure: []HourWindow{{Start: 18, End: 24}},
			Rest:    []HourWindow{{Start: 0, End: 7}},
		},
		ClassPatrician: {
			Work:    []HourWindow{{Start: 9, End: 15}},
			Leisure: []HourWindow{{Start: 15, End: 1}},
			Rest:    []HourWindow{{Start: 1, End: 9}},
		},
		ClassVisitor: {
			Work:    []HourWindow{{Start: 8, End: 16}},
			Leisure: []HourWindow{{Start: 16, End: 23}},
			Rest:    []HourWindow{{Start: 23, End: 8}},
		},
	}
}
