package menugen

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/app/notify"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

var ErrEmptyConcept = errors.New("menu concept is required")

// SampleMenu is served whenever the generator is unavailable or answers
// with something that is not a menu
func SampleMenu() []domain.MenuItem {
	return []domain.MenuItem{
		{
			ID:          "sample-1",
			Name:        "Taco Cósmico",
			Price:       decimal.RequireFromString("35.00"),
			Category:    "Antojitos",
			Description: "Tortilla de maíz azul con carne al pastor y piña caramelizada",
		},
		{
			ID:          "sample-2",
			Name:        "Quesadilla Espacial",
			Price:       decimal.RequireFromString("65.00"),
			Category:    "Antojitos",
			Description: "Queso Oaxaca fundido con flor de calabaza",
		},
		{
			ID:          "sample-3",
			Name:        "Aguas Frescas Intergalácticas",
			Price:       decimal.RequireFromString("25.00"),
			Category:    "Bebidas",
			Description: "Jamaica, horchata y tamarindo",
		},
	}
}

type Service struct {
	generator interfaces.MenuGenerator
	notifier  interfaces.Notifier
	logger    logger.Logger

	mu   sync.RWMutex
	last []domain.MenuItem
}

func NewService(generator interfaces.MenuGenerator, notifier interfaces.Notifier, logger logger.Logger) *Service {
	return &Service{
		generator: generator,
		notifier:  notifier,
		logger:    logger,
	}
}

// Generate asks the backend for a menu around concept. Any failure falls back
// to SampleMenu; only an empty concept is an error.
func (s *Service) Generate(ctx context.Context, concept string) ([]domain.MenuItem, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return nil, ErrEmptyConcept
	}

	items, err := s.generator.GenerateMenu(ctx, concept)
	switch {
	case err != nil:
		s.logger.Warn("menu_generation_fallback", "Menu generator failed, serving sample menu", "", map[string]interface{}{
			"concept": concept,
			"error":   err.Error(),
		})
		items = SampleMenu()
		s.notifier.Notify(ctx, notify.Transient(domain.LevelWarning, "Menú IA", "Generador no disponible; se muestra un menú de ejemplo"))
	case len(items) == 0:
		s.logger.Warn("menu_generation_empty", "Menu generator returned no items, serving sample menu", "", map[string]interface{}{
			"concept": concept,
		})
		items = SampleMenu()
		s.notifier.Notify(ctx, notify.Transient(domain.LevelWarning, "Menú IA", "Sin resultados; se muestra un menú de ejemplo"))
	default:
		s.logger.Info("menu_generated", "Menu generated", "", map[string]interface{}{
			"concept": concept,
			"items":   len(items),
		})
		s.notifier.Notify(ctx, notify.Transient(domain.LevelSuccess, "Menú IA", "Menú generado"))
	}

	s.mu.Lock()
	s.last = items
	s.mu.Unlock()

	return append([]domain.MenuItem(nil), items...), nil
}

// Last returns the most recently generated menu
func (s *Service) Last() []domain.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.MenuItem(nil), s.last...)
}
