package research

import (
	"records-manager/core/server"

	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the research feature around an existing service.
func NewFeature(svc *Service, cfg server.Config) *Feature {
	return &Feature{service: svc, handler: NewHandler(svc, cfg)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "research"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.service != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service returns the feature's service.
func (f *Feature) Service() *Service {
	return f.service
}
