package cart

import (
	"context"

	"github.com/foodcourt/api/internal/kv"
	"github.com/foodcourt/api/internal/model"
)

// KVPersister stores a cart as one JSON value in a kv.Store.
type KVPersister struct {
	store kv.Store
	key   string
}

// NewKVPersister persists the cart of userID.
func NewKVPersister(store kv.Store, userID string) *KVPersister {
	return &KVPersister{store: store, key: Key(userID)}
}

// Key is the kv key holding the cart of userID.
func Key(userID string) string {
	return "cart:" + userID
}

func (p *KVPersister) Load(ctx context.Context) ([]model.LineItem, error) {
	items := []model.LineItem{}
	if _, err := p.store.Get(ctx, p.key, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *KVPersister) Save(ctx context.Context, items []model.LineItem) error {
	return p.store.Set(ctx, p.key, items)
}
