package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
)

// Run starts the HTTP server and blocks until the context is canceled
// or the server fails.
func Run(ctx context.Context, cfg *config.Config, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) error {
	engine := newEngine(cfg, flightSvc, bookingSvc)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newEngine(cfg *config.Config, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	v1 := engine.Group("/api/v1")

	flightHandler := api.NewFlightHandler(flightSvc)
	flightHandler.Register(v1.Group("/flights"))

	bookingGroup := v1.Group("/bookings")
	bookingGroup.Use(api.AuthMiddleware(cfg.Auth.JWTSecret))
	bookingHandler := api.NewBookingHandler(bookingSvc)
	bookingHandler.Register(bookingGroup)

	if cfg.HTTP.SwaggerDir != "" {
		engine.StaticFS("/swagger", http.Dir(cfg.HTTP.SwaggerDir))
	}

	return engine
}
