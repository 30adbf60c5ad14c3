package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		productsCreatedTotal,
		ordersPlacedTotal,
		orderTransitionsTotal,
		categoryRequestsTotal,
		notificationsPublishedTotal,
	)
}

var (
	productsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "products_created_total",
			Help: "Products created through the seller wizard or the API.",
		},
	)

	ordersPlacedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Successful checkouts.",
		},
	)

	orderTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Order status transitions by resulting status.",
		},
		[]string{"status"},
	)

	categoryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "category_requests_total",
			Help: "Category approval outcomes (requested/approved/rejected/expired).",
		},
		[]string{"outcome"},
	)

	notificationsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "User notifications published to Redis by event name.",
		},
		[]string{"event"},
	)
)

func IncProductCreated() { productsCreatedTotal.Inc() }

func IncOrderPlaced() { ordersPlacedTotal.Inc() }

func IncOrderTransition(status string) { orderTransitionsTotal.WithLabelValues(norm(status)).Inc() }

func IncCategoryRequest(outcome string) { categoryRequestsTotal.WithLabelValues(norm(outcome)).Inc() }

func IncNotificationPublished(event string) {
	notificationsPublishedTotal.WithLabelValues(norm(event)).Inc()
}
