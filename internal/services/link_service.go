package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"subscription-shop/internal/models"
	"subscription-shop/internal/monitoring"
	"subscription-shop/internal/repository"

	"go.uber.org/zap"
)

// LinkService manages the pool of single-use access tokens
type LinkService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewLinkService(repo *repository.Repository, log *zap.Logger) *LinkService {
	return &LinkService{
		repo: repo,
		log:  log.With(zap.String("component", "link_pool")),
		now:  time.Now,
	}
}

// Allocate hands the oldest unused token to a waiting order and marks the
// order delivered in the same transaction. It returns ok=false when the
// pool is empty, leaving the order waiting.
func (s *LinkService) Allocate(ctx context.Context, orderID uint, userID int64) (string, bool, error) {
	var token string
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		token, err = s.allocate(ctx, tx, orderID, userID)
		return err
	})

	switch {
	case errors.Is(err, repository.ErrNotFound):
		monitoring.LinkAllocationsTotal.WithLabelValues("empty").Inc()
		return "", false, nil
	case err != nil:
		monitoring.LinkAllocationsTotal.WithLabelValues("error").Inc()
		return "", false, err
	}

	monitoring.LinkAllocationsTotal.WithLabelValues("allocated").Inc()
	return token, true, nil
}

// allocate claims tokens oldest first until one sticks or the pool is
// empty. A lost claim means another allocator took that token, so every
// retry shrinks the pool and the loop ends.
func (s *LinkService) allocate(ctx context.Context, tx *repository.Repository, orderID uint, userID int64) (string, error) {
	now := s.now().UTC()

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		link, err := tx.OldestAvailableLink(ctx)
		if err != nil {
			return "", err
		}

		claimed, err := tx.ClaimLink(ctx, link.ID, orderID, userID, now)
		if err != nil {
			return "", err
		}
		if !claimed {
			continue
		}

		delivered, err := tx.MarkOrderDelivered(ctx, orderID, link.Token, now)
		if err != nil {
			return "", err
		}
		if !delivered {
			// rolls back the claim
			return "", fmt.Errorf("order %d: %w", orderID, ErrOrderNotWaiting)
		}
		return link.Token, nil
	}
}

// Add inserts tokens one per entry, trimming whitespace and skipping blanks
// and duplicates. It returns how many were inserted.
func (s *LinkService) Add(ctx context.Context, tokens []string) (int, error) {
	added := 0
	for _, raw := range tokens {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		ok, err := s.repo.InsertLink(ctx, token)
		if err != nil {
			return added, fmt.Errorf("failed to add link: %w", err)
		}
		if ok {
			added++
		}
	}

	s.log.Info("links added", zap.Int("added", added), zap.Int("submitted", len(tokens)))
	return added, nil
}

// AddText splits text into lines and adds each as a token
func (s *LinkService) AddText(ctx context.Context, text string) (int, error) {
	return s.Add(ctx, strings.Split(text, "\n"))
}

// Remove deletes an unused token. It returns false for used or unknown ids.
func (s *LinkService) Remove(ctx context.Context, linkID uint) (bool, error) {
	return s.repo.DeleteUnusedLink(ctx, linkID)
}

// Edit replaces an unused token's value
func (s *LinkService) Edit(ctx context.Context, linkID uint, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyLink
	}

	ok, err := s.repo.UpdateUnusedLink(ctx, linkID, token)
	if errors.Is(err, repository.ErrDuplicateToken) {
		return ErrDuplicateLink
	}
	if err != nil {
		return fmt.Errorf("failed to edit link: %w", err)
	}
	if !ok {
		return ErrLinkNotEditable
	}
	return nil
}

// Counts returns available and used token counts
func (s *LinkService) Counts(ctx context.Context) (available, used int64, err error) {
	return s.repo.CountLinks(ctx)
}

// ListAvailable lists unused tokens in allocation order
func (s *LinkService) ListAvailable(ctx context.Context, limit int) ([]*models.Link, error) {
	return s.repo.ListAvailableLinks(ctx, clampLimit(limit))
}

// ListAll lists every token, newest first
func (s *LinkService) ListAll(ctx context.Context, limit int) ([]*models.Link, error) {
	return s.repo.ListLinks(ctx, clampLimit(limit))
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 500:
		return 500
	default:
		return limit
	}
}
