package confirmations

import "github.com/status-im/sign-queue/sign"

// Snapshot is an immutable view of the pending queue delivered to observers:
// every Unapproved request in creation order plus the id of the single
// decidable request, nil when the queue is empty.
type Snapshot struct {
	Unapproved []sign.Request `json:"unapproved"`
	ActiveID   *uint64        `json:"activeId,omitempty"`
}
