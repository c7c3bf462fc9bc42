// Package tally derives attendance counts from stored responses.
package tally

import (
	"context"
	"fmt"

	"wedding-rsvp/internal/models"
)

// Tally holds aggregate counts. Attending + Declined always equals Total.
type Tally struct {
	Total     int `json:"total"`
	Attending int `json:"attending"`
	Declined  int `json:"declined"`
}

// Source is the read side of the response store.
type Source interface {
	List(ctx context.Context) ([]models.RSVP, error)
}

// Of counts the given records.
func Of(records []models.RSVP) Tally {
	var t Tally
	for _, r := range records {
		if r.Attending {
			t.Attending++
		} else {
			t.Declined++
		}
	}
	t.Total = t.Attending + t.Declined
	return t
}

// Load reads every record from src and counts them. A read failure is
// returned as is; counts are never defaulted to zero.
func Load(ctx context.Context, src Source) (Tally, []models.RSVP, error) {
	records, err := src.List(ctx)
	if err != nil {
		return Tally{}, nil, fmt.Errorf("failed to load responses: %w", err)
	}
	return Of(records), records, nil
}
