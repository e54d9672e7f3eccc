package domain

// Toll is a toll plaza on the highway. A toll owns its booths.
type Toll struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`

	// Related data, populated on demand.
	Booths []*TollBooth `json:"booths,omitempty"`
}

// TollBooth is a single gate at a toll plaza. It carries the counters the
// leaderboard is built from. Links back to its parent Toll via TollID.
type TollBooth struct {
	ID                    string `json:"id"`
	TollID                string `json:"toll_id"`
	Name                  string `json:"name"`
	VehiclesProcessed     int64  `json:"vehicles_processed"`
	TotalChargesCollected int64  `json:"total_charges_collected"`
}

// Validate checks toll data.
func (t *Toll) Validate() error {
	if t.ID == "" || t.Name == "" {
		return ErrInvalidTollData
	}
	return nil
}

// Booth returns the booth with the given ID, or nil if the toll has none.
func (t *Toll) Booth(boothID string) *TollBooth {
	for _, b := range t.Booths {
		if b.ID == boothID {
			return b
		}
	}
	return nil
}
