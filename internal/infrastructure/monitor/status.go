package monitor

import "time"

type Status struct {
	Services  map[string]bool `json:"services"`
	LastCheck time.Time       `json:"last_check"`
}

// Healthy reports whether at least one check ran and every check passed.
func (s Status) Healthy() bool {
	if len(s.Services) == 0 {
		return false
	}
	for _, up := range s.Services {
		if !up {
			return false
		}
	}
	return true
}

func (s Status) clone() Status {
	out := Status{LastCheck: s.LastCheck, Services: make(map[string]bool, len(s.Services))}
	for k, v := range s.Services {
		out.Services[k] = v
	}
	return out
}
