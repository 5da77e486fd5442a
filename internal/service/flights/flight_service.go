package flights

import (
	"context"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"golang.org/x/sync/errgroup"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Search(ctx context.Context, input SearchInput) (*SearchResult, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

type SearchInput struct {
	Origin        string           `json:"origin"`
	Destination   string           `json:"destination"`
	DepartureDate string           `json:"departure_date"`
	ReturnDate    string           `json:"return_date"`
	SeatClass     domain.SeatClass `json:"seat_class"`
	RoundTrip     bool             `json:"round_trip"`
}

type SearchResult struct {
	OutboundFlights []domain.Flight `json:"outbound_flights"`
	ReturnFlights   []domain.Flight `json:"return_flights"`
}

type FlightService struct {
	repo     repository.FlightRepository
	cache    FlightCache
	cacheTTL time.Duration
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache, cacheTTL time.Duration) *FlightService {
	return &FlightService{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// Search matches flights operating on the weekday of the requested
// date with open seats in the requested cabin. Round trips run the
// reversed route for the return date concurrently.
func (s *FlightService) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	outboundDay, err := weekdayOf(input.DepartureDate)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{ReturnFlights: []domain.Flight{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		flights, err := s.repo.Search(gctx, repository.FlightSearchParams{
			DepartureAirport: input.Origin,
			ArrivalAirport:   input.Destination,
			Weekday:          outboundDay,
			SeatClass:        input.SeatClass,
		})
		if err != nil {
			return err
		}
		result.OutboundFlights = flights
		return nil
	})

	if input.RoundTrip && input.ReturnDate != "" {
		returnDay, err := weekdayOf(input.ReturnDate)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			flights, err := s.repo.Search(gctx, repository.FlightSearchParams{
				DepartureAirport: input.Destination,
				ArrivalAirport:   input.Origin,
				Weekday:          returnDay,
				SeatClass:        input.SeatClass,
			})
			if err != nil {
				return err
			}
			result.ReturnFlights = flights
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func weekdayOf(date string) (string, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", err
	}
	return t.Weekday().String(), nil
}

var _ FlightUseCase = (*FlightService)(nil)
