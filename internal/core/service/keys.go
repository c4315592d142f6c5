package service

// Storage keys shared with existing installs. Renaming any of these orphans
// previously persisted data. Every value is a JSON-encoded string.
const (
	cartKey          = "cart_items"
	deliveryInfoKey  = "delivery_info"
	menuCacheKey     = "menu_cache"
	pendingOrdersKey = "pending_orders"
	orderHistoryKey  = "order_history"
)
