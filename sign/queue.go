package sign

// Direction selects where Navigate moves relative to the current request.
type Direction string

const (
	NavigateBack    Direction = "back"
	NavigateForward Direction = "forward"
)

// Queue derives the global ordering discipline over a registry: which request
// is currently decidable, which are blocked behind it, and bulk rejection. It
// holds no state of its own; everything is recomputed from the registry on
// demand.
type Queue struct {
	registry *PendingRequests
}

// NewQueue creates a queue view over the registry.
func NewQueue(registry *PendingRequests) *Queue {
	return &Queue{registry: registry}
}

// ActiveID returns the id of the single decidable request: the minimum id
// among Unapproved requests. The second return is false when the queue is
// empty.
func (q *Queue) ActiveID() (uint64, bool) {
	ids := q.registry.UnapprovedIDs()
	if len(ids) == 0 {
		return 0, false
	}
	// UnapprovedIDs is in creation order and ids are strictly increasing, so
	// the first entry is the minimum.
	return ids[0], true
}

// IsBlocked reports whether the request is Unapproved but not the active one.
// A blocked request is visible to the user but cannot be approved until every
// earlier request resolves.
func (q *Queue) IsBlocked(id uint64) bool {
	request, err := q.registry.Get(id)
	if err != nil || request.Status != StatusUnapproved {
		return false
	}
	active, ok := q.ActiveID()
	return ok && id != active
}

// RejectAll rejects every request that was Unapproved at the moment of the
// call and returns their ids. The snapshot is taken atomically, so a request
// added while the rejections run stays Unapproved; a snapshotted request that
// resolved in the meantime is skipped.
func (q *Queue) RejectAll() []uint64 {
	snapshot := q.registry.UnapprovedIDs()
	rejected := make([]uint64, 0, len(snapshot))
	for _, id := range snapshot {
		if err := q.registry.Reject(id); err != nil {
			continue
		}
		rejected = append(rejected, id)
	}
	return rejected
}

// Navigate moves one step through sessionIDs, the caller-supplied ordered list
// of request ids viewable in the current session (any status, so already
// decided requests remain reachable). Moves past either boundary, and calls
// with a currentID that is not in the list, return currentID unchanged.
func (q *Queue) Navigate(direction Direction, currentID uint64, sessionIDs []uint64) uint64 {
	for i, id := range sessionIDs {
		if id != currentID {
			continue
		}
		switch direction {
		case NavigateBack:
			if i > 0 {
				return sessionIDs[i-1]
			}
		case NavigateForward:
			if i < len(sessionIDs)-1 {
				return sessionIDs[i+1]
			}
		}
		return currentID
	}
	return currentID
}
