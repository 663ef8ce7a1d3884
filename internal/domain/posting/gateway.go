package posting

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/honeycarbs/jobingest/internal/domain"
)

// Gateway admits normalized postings into the store if their identity key is new.
// The exists check is an optimisation; the store's unique constraint decides races.
type Gateway struct {
	store Store
	newID func() uuid.UUID
}

// NewGateway wraps a Store
func NewGateway(store Store) *Gateway {
	return &Gateway{store: store, newID: uuid.New}
}

// Admit inserts p unless a posting with the same identity key exists.
// It returns the stored posting and whether it was newly inserted.
func (g *Gateway) Admit(ctx context.Context, p domain.Posting) (domain.Posting, bool, error) {
	if p.IdentityKey == "" {
		return domain.Posting{}, false, fmt.Errorf("gateway: posting without identity key")
	}

	exists, err := g.store.ExistsByIdentityKey(ctx, p.IdentityKey)
	if err != nil {
		return domain.Posting{}, false, fmt.Errorf("gateway: exists %q: %w", p.IdentityKey, err)
	}
	if exists {
		return domain.Posting{}, false, nil
	}

	if p.ID == uuid.Nil {
		p.ID = g.newID()
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}

	stored, err := g.store.Insert(ctx, p)
	if errors.Is(err, ErrDuplicate) {
		return domain.Posting{}, false, nil
	}
	if err != nil {
		return domain.Posting{}, false, fmt.Errorf("gateway: insert %q: %w", p.IdentityKey, err)
	}

	return stored, true, nil
}
