package handlers

import (
	"context"
	"fmt"

	"catalog-cache/application/commands"
	"catalog-cache/application/commands/bus"
	"catalog-cache/application/services"
	"catalog-cache/domain/core/valueobjects"

	"go.uber.org/zap"
)

// ClearCacheHandler executes the operator clear commands
type ClearCacheHandler struct {
	admin  *services.AdminService
	logger *zap.Logger
}

// NewClearCacheHandler creates a new clear cache handler
func NewClearCacheHandler(admin *services.AdminService, logger *zap.Logger) *ClearCacheHandler {
	return &ClearCacheHandler{
		admin:  admin,
		logger: logger,
	}
}

// Register wires every clear command onto the bus
func (h *ClearCacheHandler) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{&commands.ClearCacheEntryCommand{}, h.clearEntry},
		{&commands.ClearCacheCommand{}, h.clearType},
		{&commands.ClearReviewCommand{}, h.clearReview},
		{&commands.ClearReviewsCommand{}, h.clearReviews},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *ClearCacheHandler) clearEntry(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(*commands.ClearCacheEntryCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", c)
	}
	key, err := cmd.Key()
	if err != nil {
		return err
	}
	cmd.Deleted, err = h.admin.ClearEntry(ctx, key)
	return err
}

func (h *ClearCacheHandler) clearType(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(*commands.ClearCacheCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", c)
	}
	var err error
	cmd.Deleted, err = h.admin.ClearType(ctx, valueobjects.SearchType(cmd.SearchType))
	return err
}

func (h *ClearCacheHandler) clearReview(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(*commands.ClearReviewCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", c)
	}
	var err error
	cmd.Deleted, err = h.admin.ClearReview(ctx, cmd.EntityID)
	return err
}

func (h *ClearCacheHandler) clearReviews(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(*commands.ClearReviewsCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", c)
	}
	var err error
	cmd.Deleted, err = h.admin.ClearReviews(ctx)
	return err
}
