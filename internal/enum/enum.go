package enum

// ── Group A: State machines ──

// Order statuses, in their intended order of progression.
const (
	OrderStatusPlaced    = "placed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
)

// OrderStatusFlow is the intended monotonic progression of an order.
var OrderStatusFlow = []string{
	OrderStatusPlaced,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
}

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

// ── Group B: Roles ──

const (
	UserRoleStudent = "student"
	UserRoleAdmin   = "admin"
)

// ValidUserRole reports whether role is a known account role.
func ValidUserRole(role string) bool {
	return role == UserRoleStudent || role == UserRoleAdmin
}

// ── Group C: Record tables ──

const (
	TableOrders     = "orders"
	TableMenuItems  = "menu_items"
	TableStores     = "stores"
	TableStoreItems = "store_items"
	TableUsers      = "users"
)

// Tables lists every table exposed by the record API.
var Tables = []string{
	TableOrders,
	TableMenuItems,
	TableStores,
	TableStoreItems,
	TableUsers,
}

// IsTable reports whether name is a known record table.
func IsTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}

// ── Group D: Configurable labels (no constraint) ──

const (
	CategoryAll = "all"
)

// Event types published on order changes.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
	EventPaymentChanged     = "order.payment_status_changed"
)
