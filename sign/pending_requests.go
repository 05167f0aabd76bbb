package sign

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// PendingRequests is the canonical registry of signing requests. It owns
// every Request value exclusively: callers only ever receive copies, and all
// transitions go through the methods below. Requests are never deleted, so a
// resolved request stays available for lookup as an audit trail.
type PendingRequests struct {
	mu       sync.Mutex
	lastID   uint64
	requests *orderedmap.OrderedMap[uint64, *Request]
}

// NewPendingRequests creates an empty registry.
func NewPendingRequests() *PendingRequests {
	return &PendingRequests{
		requests: orderedmap.New[uint64, *Request](),
	}
}

// AddUnapproved validates raw params for the given kind and, only if they are
// valid, allocates the next id and stores the request as Unapproved. The id
// increment and the insert happen under one lock acquisition, so ids are
// unique and strictly increasing in creation order even under parallel calls.
func (p *PendingRequests) AddUnapproved(kind Kind, raw json.RawMessage, origin string, chainID uint64) (Request, error) {
	payload, err := ValidateParams(kind, raw)
	if err != nil {
		return Request{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastID++
	request := &Request{
		ID:        p.lastID,
		Kind:      kind,
		Origin:    origin,
		ChainID:   chainID,
		Status:    StatusUnapproved,
		CreatedAt: time.Now(),
		Payload:   payload,
	}
	p.requests.Set(request.ID, request)
	log.Info("sign request queued", "id", request.ID, "kind", kind, "origin", origin)
	return *request, nil
}

// Get returns a copy of the request with the given id.
func (p *PendingRequests) Get(id uint64) (Request, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	request, ok := p.requests.Get(id)
	if !ok {
		return Request{}, ErrRequestNotFound
	}
	return *request, nil
}

// GetUnapproved returns the Unapproved subset as a fresh id-ordered mapping in
// insertion order. Mutating the returned map has no effect on the registry.
func (p *PendingRequests) GetUnapproved() *orderedmap.OrderedMap[uint64, Request] {
	p.mu.Lock()
	defer p.mu.Unlock()

	unapproved := orderedmap.New[uint64, Request]()
	for pair := p.requests.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Status == StatusUnapproved {
			unapproved.Set(pair.Key, *pair.Value)
		}
	}
	return unapproved
}

// UnapprovedIDs returns an atomic snapshot of the ids currently Unapproved,
// in creation order.
func (p *PendingRequests) UnapprovedIDs() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	var ids []uint64
	for pair := p.requests.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Status == StatusUnapproved {
			ids = append(ids, pair.Key)
		}
	}
	return ids
}

// Count returns the number of Unapproved requests.
func (p *PendingRequests) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for pair := p.requests.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Status == StatusUnapproved {
			count++
		}
	}
	return count
}

// CountForOrigin returns the number of Unapproved requests created by origin.
func (p *PendingRequests) CountForOrigin(origin string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for pair := p.requests.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Status == StatusUnapproved && pair.Value.Origin == origin {
			count++
		}
	}
	return count
}

// Has reports whether the registry knows the id.
func (p *PendingRequests) Has(id uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.requests.Get(id)
	return ok
}

// Approve transitions an Unapproved request to Approved and returns its
// payload for the external signer. Until MarkSigned or MarkErrored resolves
// it, the request is excluded from every pending view.
func (p *PendingRequests) Approve(id uint64) (Payload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	request, ok := p.requests.Get(id)
	if !ok {
		return nil, ErrRequestNotFound
	}
	if request.Status != StatusUnapproved {
		return nil, invalidStateError(id, request.Status, StatusUnapproved)
	}
	request.Status = StatusApproved
	log.Info("sign request approved", "id", id)
	return request.Payload, nil
}

// MarkSigned transitions an Approved request to Signed and stores the raw
// signature produced by the external signer.
func (p *PendingRequests) MarkSigned(id uint64, signature hexutil.Bytes) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	request, ok := p.requests.Get(id)
	if !ok {
		return ErrRequestNotFound
	}
	if request.Status != StatusApproved {
		return invalidStateError(id, request.Status, StatusApproved)
	}
	request.Status = StatusSigned
	request.RawSignature = signature
	log.Info("sign request signed", "id", id)
	return nil
}

// MarkErrored transitions an Approved request to Errored and records the
// signer failure.
func (p *PendingRequests) MarkErrored(id uint64, signErr error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	request, ok := p.requests.Get(id)
	if !ok {
		return ErrRequestNotFound
	}
	if request.Status != StatusApproved {
		return invalidStateError(id, request.Status, StatusApproved)
	}
	request.Status = StatusErrored
	if signErr != nil {
		request.Err = signErr.Error()
	}
	log.Warn("sign request errored", "id", id, "error", signErr)
	return nil
}

// Reject transitions an Unapproved request to Rejected. A request that is
// mid-signing (Approved) cannot be rejected.
func (p *PendingRequests) Reject(id uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	request, ok := p.requests.Get(id)
	if !ok {
		return ErrRequestNotFound
	}
	if request.Status != StatusUnapproved {
		return invalidStateError(id, request.Status, StatusUnapproved)
	}
	request.Status = StatusRejected
	log.Info("sign request rejected", "id", id)
	return nil
}
