package tasks

import (
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	"github.com/dalemusser/taskquest/internal/app/system/limits"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxDocumentBytes caps a single task attachment.
const MaxDocumentBytes = limits.TaskDocument

// Handler serves the task endpoints.
type Handler struct {
	DB         *mongo.Database
	Blobs      storage.Store
	PresignTTL time.Duration
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, blobs storage.Store, presignTTL time.Duration, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Blobs:      blobs,
		PresignTTL: presignTTL,
		Log:        logger,
		ErrLog:     errLog,
	}
}
