package app

// Command is a user action consumed by the Dispatcher.
type Command interface {
	commandName() string
}

// SelectStore picks a store and empties the cart.
type SelectStore struct {
	StoreID string
}

// ChangeStore drops the selected store and empties the cart.
type ChangeStore struct{}

// AddToCart adds Quantity of an item available at the selected store.
// A zero Quantity adds one.
type AddToCart struct {
	ItemID   string
	Quantity int
}

// SetQuantity sets an entry's quantity; zero or less removes it.
type SetQuantity struct {
	ItemID   string
	Quantity int
}

// IncrementItem raises the quantity of an entry already in the cart by one.
type IncrementItem struct {
	ItemID string
}

// DecrementItem lowers the quantity by one, removing the entry at zero.
type DecrementItem struct {
	ItemID string
}

// RemoveFromCart deletes an entry.
type RemoveFromCart struct {
	ItemID string
}

// ClearCart empties the cart and keeps the selected store.
type ClearCart struct{}

// Checkout turns the cart into an order.
type Checkout struct{}

// Logout clears the cart and ends the session.
type Logout struct{}

func (SelectStore) commandName() string    { return "select_store" }
func (ChangeStore) commandName() string    { return "change_store" }
func (AddToCart) commandName() string      { return "add_to_cart" }
func (SetQuantity) commandName() string    { return "set_quantity" }
func (IncrementItem) commandName() string  { return "increment_item" }
func (DecrementItem) commandName() string  { return "decrement_item" }
func (RemoveFromCart) commandName() string { return "remove_from_cart" }
func (ClearCart) commandName() string      { return "clear_cart" }
func (Checkout) commandName() string       { return "checkout" }
func (Logout) commandName() string         { return "logout" }
