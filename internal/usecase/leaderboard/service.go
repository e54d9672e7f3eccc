package leaderboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/logger"
	"github.com/frontandrew/tollplaza/internal/repository"
)

// Metric names accepted by the leaderboard.
const (
	MetricVehiclesProcessed     = "vehicles_processed"
	MetricTotalChargesCollected = "total_charges_collected"
)

// Entry is one ranked booth.
type Entry struct {
	Rank                  int    `json:"rank"`
	TollID                string `json:"toll_id"`
	TollName              string `json:"toll_name"`
	BoothID               string `json:"booth_id"`
	VehiclesProcessed     int64  `json:"vehicles_processed"`
	TotalChargesCollected int64  `json:"total_charges_collected"`
}

// Service builds booth leaderboards from toll statistics.
type Service struct {
	tollRepo repository.TollRepository
	logger   logger.Logger
}

// NewService creates a leaderboard service.
func NewService(tollRepo repository.TollRepository, logger logger.Logger) *Service {
	return &Service{
		tollRepo: tollRepo,
		logger:   logger,
	}
}

// Get returns every booth across all tolls ranked descending by the
// given metric. Ordering is deterministic: ties break by toll ID, then
// booth ID.
func (s *Service) Get(ctx context.Context, metric string) ([]Entry, error) {
	if metric != MetricVehiclesProcessed && metric != MetricTotalChargesCollected {
		return nil, domain.ErrInvalidMetric
	}

	booths, err := s.tollRepo.ListBoothStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list booth stats: %w", err)
	}

	tollNames, err := s.tollNames(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(booths))
	for _, booth := range booths {
		entries = append(entries, Entry{
			TollID:                booth.TollID,
			TollName:              tollNames[booth.TollID],
			BoothID:               booth.ID,
			VehiclesProcessed:     booth.VehiclesProcessed,
			TotalChargesCollected: booth.TotalChargesCollected,
		})
	}

	value := func(e Entry) int64 {
		if metric == MetricVehiclesProcessed {
			return e.VehiclesProcessed
		}
		return e.TotalChargesCollected
	}

	sort.Slice(entries, func(i, j int) bool {
		if value(entries[i]) != value(entries[j]) {
			return value(entries[i]) > value(entries[j])
		}
		if entries[i].TollID != entries[j].TollID {
			return entries[i].TollID < entries[j].TollID
		}
		return entries[i].BoothID < entries[j].BoothID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}

func (s *Service) tollNames(ctx context.Context) (map[string]string, error) {
	tolls, err := s.tollRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tolls: %w", err)
	}
	names := make(map[string]string, len(tolls))
	for _, toll := range tolls {
		names[toll.ID] = toll.Name
	}
	return names, nil
}
