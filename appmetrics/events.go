package appmetrics

// CategoryConfirmations groups every confirmation-queue event.
const CategoryConfirmations = "Confirmations"

// ConfirmationQueuedEventName is emitted each time a request joins the queue.
const ConfirmationQueuedEventName = "Confirmation Queued"

// QueueType tags which UI affordance triggered a request. Metadata only, it
// never changes admission behavior.
type QueueType string

const (
	QueueTypeNavigationHeader QueueType = "navigation_header"
	QueueTypeQueueController  QueueType = "queue_controller"
)

// ConfirmationQueuedProps describes a queued confirmation.
type ConfirmationQueuedProps struct {
	ChainID          uint64
	QueueSize        int
	QueueType        QueueType
	ConfirmationType string
	Referrer         string
}

// NewConfirmationQueued builds the Confirmation Queued metric.
func NewConfirmationQueued(props ConfirmationQueuedProps, environment, locale string) Metric {
	m := Metric{
		EventName: ConfirmationQueuedEventName,
		EventValue: map[string]any{
			"category":          CategoryConfirmations,
			"chain_id":          props.ChainID,
			"queue_size":        props.QueueSize,
			"queue_type":        string(props.QueueType),
			"confirmation_type": props.ConfirmationType,
			"referrer":          props.Referrer,
			"environment_type":  environment,
			"locale":            locale,
		},
		Environment: environment,
		Locale:      locale,
	}
	m.EnsureID()
	m.EnsureTimestamp()
	return m
}
