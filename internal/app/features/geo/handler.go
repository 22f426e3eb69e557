// Package geo proxies the location-aware third-party APIs the mobile client
// needs so their keys stay on the server.
package geo

import (
	"context"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	"github.com/dalemusser/taskquest/internal/app/integrations/places"
	"github.com/dalemusser/taskquest/internal/app/integrations/weather"
	"go.uber.org/zap"
)

// WeatherSource returns current conditions at a coordinate.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (*weather.Current, error)
}

// PlaceSource returns autocomplete predictions.
type PlaceSource interface {
	Autocomplete(ctx context.Context, input string, bias *places.Bias) ([]places.Prediction, error)
}

type Handler struct {
	Weather WeatherSource
	Places  PlaceSource
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
}

func NewHandler(w WeatherSource, p PlaceSource, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Weather: w,
		Places:  p,
		Log:     logger,
		ErrLog:  errLog,
	}
}
