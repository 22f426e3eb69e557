package categories

import (
	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the category endpoints.
type Handler struct {
	DB     *mongo.Database
	Blobs  storage.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, blobs storage.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Blobs:  blobs,
		Log:    logger,
		ErrLog: errLog,
	}
}
