package product

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harborbank/portal/internal/audit"
	"github.com/harborbank/portal/internal/coreapi"
)

// Service proxies savings-product management to the core. Listing is open to
// any signed-in user; mutations are wired behind the admin guard in routes.
type Service struct {
	core     coreapi.Client
	auditLog audit.Repository
	logger   *slog.Logger
}

// NewService builds a product service.
func NewService(core coreapi.Client, auditLog audit.Repository, logger *slog.Logger) *Service {
	return &Service{core: core, auditLog: auditLog, logger: logger}
}

// List returns all savings products.
func (s *Service) List(ctx context.Context, token string) ([]coreapi.Product, error) {
	return s.core.ListProducts(ctx, token)
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, token, id string) (coreapi.Product, error) {
	return s.core.GetProduct(ctx, token, id)
}

func validateInput(input coreapi.ProductInput) error {
	if input.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if input.InterestRate.IsNegative() {
		return fmt.Errorf("interest rate must not be negative")
	}
	if input.TermMonths < 0 {
		return fmt.Errorf("term must not be negative")
	}
	return nil
}

// Create adds a savings product.
func (s *Service) Create(ctx context.Context, token, actorID string, input coreapi.ProductInput) (coreapi.Product, error) {
	if err := validateInput(input); err != nil {
		return coreapi.Product{}, err
	}
	product, err := s.core.CreateProduct(ctx, token, input)
	if err != nil {
		return coreapi.Product{}, err
	}
	s.record(ctx, actorID, product.ID)
	return product, nil
}

// Update modifies a savings product.
func (s *Service) Update(ctx context.Context, token, actorID, id string, input coreapi.ProductInput) (coreapi.Product, error) {
	if err := validateInput(input); err != nil {
		return coreapi.Product{}, err
	}
	product, err := s.core.UpdateProduct(ctx, token, id, input)
	if err != nil {
		return coreapi.Product{}, err
	}
	s.record(ctx, actorID, id)
	return product, nil
}

// Delete removes a savings product.
func (s *Service) Delete(ctx context.Context, token, actorID, id string) error {
	if err := s.core.DeleteProduct(ctx, token, id); err != nil {
		return err
	}
	s.record(ctx, actorID, id)
	return nil
}

func (s *Service) record(ctx context.Context, actorID, target string) {
	if s.auditLog == nil {
		return
	}
	entry := audit.Entry{ActorID: actorID, Role: string(coreapi.RoleAdmin), Action: audit.ActionUpdateProduct, Target: target}
	if err := s.auditLog.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", "action", entry.Action, "error", err)
	}
}
