// Package suggestions turns a user's task history into suggested new tasks.
// Each task is classified with the NL classifier, the categories are tallied
// and the tally is handed to the text generator as a prompt.
package suggestions

import (
	"context"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	"github.com/dalemusser/taskquest/internal/app/integrations/nlclassify"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	// DefaultMaxTasks is how many recent tasks are classified per request.
	DefaultMaxTasks = 30
	// DefaultConcurrency bounds in-flight classification calls.
	DefaultConcurrency = 4
)

// Classifier labels a piece of text with content categories.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]nlclassify.Category, error)
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Handler struct {
	DB          *mongo.Database
	Classifier  Classifier
	Generator   Generator
	MaxTasks    int
	Concurrency int
	Log         *zap.Logger
	ErrLog      *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, c Classifier, g Generator, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Classifier:  c,
		Generator:   g,
		MaxTasks:    DefaultMaxTasks,
		Concurrency: DefaultConcurrency,
		Log:         logger,
		ErrLog:      errLog,
	}
}
