package pricing

import (
	"fmt"
	"time"

	"github.com/frontandrew/tollplaza/internal/domain"
)

// Option describes one purchasable pass type for a vehicle class. Shown
// to drivers at purchase time and attached to denied passage decisions.
type Option struct {
	PassType    domain.PassType `json:"pass_type"`
	Price       int64           `json:"price"`
	Duration    string          `json:"duration"`
	Uses        int             `json:"uses"`
	Description string          `json:"description"`
}

// Service owns the pricing rules. Stateless: prices and durations are
// business constants, not data.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Prices in rupees by vehicle class and pass type.
var prices = map[domain.VehicleType]map[domain.PassType]int64{
	domain.VehicleTypeTwoWheeler: {
		domain.PassTypeSingle:   50,
		domain.PassTypeReturn:   80,
		domain.PassTypeSevenDay: 250,
	},
	domain.VehicleTypeFourWheeler: {
		domain.PassTypeSingle:   100,
		domain.PassTypeReturn:   150,
		domain.PassTypeSevenDay: 500,
	},
}

var descriptions = map[domain.PassType]string{
	domain.PassTypeSingle:   "Single journey pass, valid for 1 use",
	domain.PassTypeReturn:   "Return journey pass, valid for 2 uses",
	domain.PassTypeSevenDay: "Weekly pass, unlimited uses for 7 days",
}

// PriceFor returns the price for a vehicle class and pass type.
func (s *Service) PriceFor(vehicleType domain.VehicleType, passType domain.PassType) (int64, error) {
	if !vehicleType.IsValid() {
		return 0, domain.ErrInvalidVehicleType
	}
	byType, ok := prices[vehicleType]
	if !ok {
		return 0, domain.ErrInvalidVehicleType
	}
	price, ok := byType[passType]
	if !ok {
		return 0, domain.ErrInvalidPassType
	}
	return price, nil
}

// Options returns all pass options for a vehicle class, in canonical
// order.
func (s *Service) Options(vehicleType domain.VehicleType) ([]Option, error) {
	if !vehicleType.IsValid() {
		return nil, domain.ErrInvalidVehicleType
	}

	options := make([]Option, 0, len(domain.AllPassTypes()))
	for _, passType := range domain.AllPassTypes() {
		price, err := s.PriceFor(vehicleType, passType)
		if err != nil {
			return nil, err
		}
		category := passType.Category()
		options = append(options, Option{
			PassType:    passType,
			Price:       price,
			Duration:    FormatDuration(category.Duration),
			Uses:        category.Uses,
			Description: descriptions[passType],
		})
	}

	return options, nil
}

// FormatDuration renders a category duration for humans.
func FormatDuration(d time.Duration) string {
	switch {
	case d == 7*24*time.Hour:
		return "7 days"
	case d == 24*time.Hour:
		return "24 hours"
	case d == time.Hour:
		return "1 hour"
	default:
		return fmt.Sprintf("%.0f hours", d.Hours())
	}
}
