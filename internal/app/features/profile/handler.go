// internal/app/features/profile/handler.go
package profile

import (
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	"github.com/dalemusser/taskquest/internal/app/system/auditlog"
	"github.com/dalemusser/taskquest/internal/app/system/limits"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxImageBytes caps profile image uploads.
const MaxImageBytes = limits.ProfileImage

// Handler owns all user profile handlers.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Blobs      storage.Store
	PresignTTL time.Duration
}

// NewHandler constructs a Handler bound to the given Mongo database, blob
// store and logger.
func NewHandler(db *mongo.Database, blobs storage.Store, presignTTL time.Duration, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   auditLog,
		Blobs:      blobs,
		PresignTTL: presignTTL,
	}
}
