package reminders

import (
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the daily reminder digest. Loc is the zone the digest job
// uses to name days.
type Handler struct {
	DB     *mongo.Database
	Loc    *time.Location
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, loc *time.Location, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		DB:     db,
		Loc:    loc,
		Log:    logger,
		ErrLog: errLog,
	}
}
