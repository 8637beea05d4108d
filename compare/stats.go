package compare

import (
	"time"

	"github.com/Rohanpatel16/projectverify/provider"
)

// ProviderStats counts the verdicts of one provider
type ProviderStats struct {
	Provider        provider.ID   `json:"provider"`
	Valid           int           `json:"valid"`
	Invalid         int           `json:"invalid"`
	Total           int           `json:"total"`
	AverageDuration time.Duration `json:"averageDuration"`
}

// Summary aggregates a set of outcomes. Fastest and Slowest are based on each provider's average duration.
type Summary struct {
	Total           int             `json:"total"`
	Successful      int             `json:"successful"`
	Failed          int             `json:"failed"`
	AverageDuration time.Duration   `json:"averageDuration"`
	Fastest         provider.ID     `json:"fastest,omitempty"`
	Slowest         provider.ID     `json:"slowest,omitempty"`
	Providers       []ProviderStats `json:"providers"`
}

func Stats(outcomes []Outcome) Summary {
	s := Summary{
		Total:     len(outcomes),
		Providers: []ProviderStats{},
	}

	if len(outcomes) == 0 {
		return s
	}

	index := make(map[provider.ID]int)
	durations := make(map[provider.ID]time.Duration)

	var total time.Duration
	for _, o := range outcomes {
		total += o.Duration

		if o.Success() {
			s.Successful++
		} else {
			s.Failed++
		}

		i, ok := index[o.Provider]
		if !ok {
			i = len(s.Providers)
			index[o.Provider] = i
			s.Providers = append(s.Providers, ProviderStats{Provider: o.Provider})
		}

		ps := &s.Providers[i]
		ps.Total++
		if o.Result.IsValid {
			ps.Valid++
		} else {
			ps.Invalid++
		}

		durations[o.Provider] += o.Duration
	}

	s.AverageDuration = total / time.Duration(len(outcomes))

	for i := range s.Providers {
		ps := &s.Providers[i]
		ps.AverageDuration = durations[ps.Provider] / time.Duration(ps.Total)

		if s.Fastest == "" || ps.AverageDuration < s.Providers[index[s.Fastest]].AverageDuration {
			s.Fastest = ps.Provider
		}

		if s.Slowest == "" || ps.AverageDuration > s.Providers[index[s.Slowest]].AverageDuration {
			s.Slowest = ps.Provider
		}
	}

	return s
}
