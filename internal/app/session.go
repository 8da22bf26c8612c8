// Package app holds per-user application state and the command dispatcher
// that drives the cart and checkout flow.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/foodcourt/api/internal/cart"
	"github.com/foodcourt/api/internal/kv"
	"github.com/foodcourt/api/internal/model"
)

// SessionKey is the kv key holding the session state of userID.
func SessionKey(userID string) string {
	return "session:" + userID
}

// ErrSessionPersist reports that the selected store could not be saved. The
// in-memory selection is left as it was.
var ErrSessionPersist = errors.New("session could not be saved")

// sessionState is the persisted part of a Session.
type sessionState struct {
	UserID  string `json:"user_id"`
	StoreID string `json:"store_id"`
}

// Session is one user's application state: who they are, which store they
// picked and what is in their cart.
type Session struct {
	mu      sync.Mutex
	User    model.User
	storeID string
	Cart    *cart.Cart
	kv      kv.Store
}

// StoreID returns the selected store, or "" when none is selected.
func (s *Session) StoreID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeID
}

// setStore saves the selection and only then applies it. Callers hold s.mu.
func (s *Session) setStore(ctx context.Context, storeID string) error {
	if err := s.kv.Set(ctx, SessionKey(s.User.ID), sessionState{UserID: s.User.ID, StoreID: storeID}); err != nil {
		log.Printf("ERROR: save session %s: %v", s.User.ID, err)
		return fmt.Errorf("%w: %w", ErrSessionPersist, err)
	}
	s.storeID = storeID
	return nil
}

// Sessions is the registry of live sessions keyed by user id.
type Sessions struct {
	mu       sync.Mutex
	kv       kv.Store
	sessions map[string]*Session
}

// NewSessions creates a registry backed by store.
func NewSessions(store kv.Store) *Sessions {
	return &Sessions{kv: store, sessions: make(map[string]*Session)}
}

// Get returns the session of user, restoring the selected store and cart
// from the kv store on first use.
func (r *Sessions) Get(ctx context.Context, user model.User) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[user.ID]; ok {
		s.User = user
		return s, nil
	}

	s := &Session{
		User: user,
		Cart: cart.New(cart.NewKVPersister(r.kv, user.ID)),
		kv:   r.kv,
	}
	var st sessionState
	if _, err := r.kv.Get(ctx, SessionKey(user.ID), &st); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	s.storeID = st.StoreID
	if err := s.Cart.Load(ctx); err != nil {
		return nil, err
	}
	r.sessions[user.ID] = s
	return s, nil
}

// End forgets the session of userID and removes its persisted state.
func (r *Sessions) End(ctx context.Context, userID string) error {
	r.mu.Lock()
	delete(r.sessions, userID)
	r.mu.Unlock()

	if err := r.kv.Remove(ctx, SessionKey(userID)); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	if err := r.kv.Remove(ctx, cart.Key(userID)); err != nil {
		return fmt.Errorf("remove cart: %w", err)
	}
	return nil
}
