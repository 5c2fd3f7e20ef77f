package cache

import "fmt"

// Semantic cache keys. The read side caches query results under these and
// the write workflow deletes them after each mutation.
const (
	// All cached order list views.
	KeyOrders = "orders"

	// A single order detail view: order:{readable_id}
	keyOrderFormat = "order:%s"

	// Cached location list views.
	KeyOrderLocations = "order_locations"
)

func KeyOrder(readableID string) string {
	return fmt.Sprintf(keyOrderFormat, readableID)
}
