package appcontext

import (
	"github.com/SeakMengs/AutoCard/internal/config"
	filestorage "github.com/SeakMengs/AutoCard/internal/file_storage"
	"github.com/SeakMengs/AutoCard/internal/repository"
	"github.com/SeakMengs/AutoCard/internal/session"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	Logger *zap.SugaredLogger

	// Repository reads templates and students from the platform API.
	Repository *repository.Repository

	// Compositor renders layouts onto raster canvases and PDF pages.
	Compositor *autocard.Compositor

	// BatchGenerator runs the worker pool behind batch exports.
	BatchGenerator *autocard.BatchGenerator

	Fonts *autocard.FontRegistry

	// Sessions holds open editors until they expire.
	Sessions *session.Store

	// Storage keeps batch artifacts. Nil disables batch uploads.
	Storage filestorage.ArtifactStore
}
