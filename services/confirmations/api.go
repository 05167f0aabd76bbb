package confirmations

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/status-im/sign-queue/appmetrics"
	"github.com/status-im/sign-queue/sign"
)

// CompleteFunc runs the external signer for an approved payload and returns
// the raw signature.
type CompleteFunc func(payload sign.Payload) (hexutil.Bytes, error)

// PublicAPI is the confirmation surface used by the RPC dispatcher (create)
// and the confirmation UI (approve, reject, navigate).
type PublicAPI struct {
	s *Service
}

func NewAPI(s *Service) *PublicAPI {
	return &PublicAPI{s: s}
}

// CreateRequest validates the raw params and queues a new Unapproved request.
// On validation failure no id is allocated and the typed error goes straight
// back to the dapp; nothing is emitted. queueType only tags telemetry, it
// never changes how the request is admitted.
func (api *PublicAPI) CreateRequest(ctx context.Context, kind sign.Kind, params json.RawMessage, origin string, chainID uint64, queueType appmetrics.QueueType) (uint64, error) {
	request, err := api.s.registry.AddUnapproved(kind, params, origin, chainID)
	if err != nil {
		return 0, err
	}

	sign.SendSignRequestAdded(request)
	api.trackQueued(request, queueType)
	api.s.publishSnapshot()
	return request.ID, nil
}

// ApproveActive approves the single decidable request and returns its payload
// for the external signer. Approving any other id fails without mutating
// anything.
func (api *PublicAPI) ApproveActive(id uint64) (sign.Payload, error) {
	active, ok := api.s.queue.ActiveID()
	if !ok || id != active {
		return nil, errors.Wrapf(sign.ErrInvalidState, "request %d is not the active request", id)
	}
	payload, err := api.s.registry.Approve(id)
	if err != nil {
		return nil, err
	}
	api.s.publishSnapshot()
	return payload, nil
}

// RejectRequest rejects an Unapproved request, active or blocked; the user
// may dismiss a queued item without it ever becoming active. The dapp-facing
// resolution for a rejected request is sign.ErrSignReqRejected.
func (api *PublicAPI) RejectRequest(id uint64) error {
	if err := api.s.registry.Reject(id); err != nil {
		return err
	}
	request, err := api.s.registry.Get(id)
	if err == nil {
		sign.SendSignRequestRejected(request)
	}
	api.s.publishSnapshot()
	return nil
}

// RejectAllPending rejects every request pending at the moment of the call
// and returns their ids. Requests created while the bulk reject runs survive.
func (api *PublicAPI) RejectAllPending() []uint64 {
	rejected := api.s.queue.RejectAll()
	for _, id := range rejected {
		if request, err := api.s.registry.Get(id); err == nil {
			sign.SendSignRequestRejected(request)
		}
	}
	api.s.publishSnapshot()
	return rejected
}

// CompleteActive approves the active request, runs the signer and records the
// outcome. The request stays visible as Approved while the signer runs.
func (api *PublicAPI) CompleteActive(id uint64, complete CompleteFunc) (hexutil.Bytes, error) {
	payload, err := api.ApproveActive(id)
	if err != nil {
		return nil, err
	}

	signature, err := complete(payload)
	if err != nil {
		if markErr := api.MarkErrored(id, err); markErr != nil {
			log.Error("failed to mark sign request errored", "id", id, "error", markErr)
		}
		return nil, err
	}
	if err := api.MarkSigned(id, signature); err != nil {
		return nil, err
	}
	return signature, nil
}

// MarkSigned resolves an Approved request with the signature produced by the
// external signer.
func (api *PublicAPI) MarkSigned(id uint64, signature hexutil.Bytes) error {
	if err := api.s.registry.MarkSigned(id, signature); err != nil {
		return err
	}
	if request, err := api.s.registry.Get(id); err == nil {
		sign.SendSignRequestSigned(request, signature.String())
	}
	api.s.publishSnapshot()
	return nil
}

// MarkErrored resolves an Approved request with the signer failure.
func (api *PublicAPI) MarkErrored(id uint64, signErr error) error {
	if err := api.s.registry.MarkErrored(id, signErr); err != nil {
		return err
	}
	if request, err := api.s.registry.Get(id); err == nil {
		sign.SendSignRequestFailed(request, signErr)
	}
	api.s.publishSnapshot()
	return nil
}

// Navigate moves one step through the session's request list. Past-boundary
// moves return currentID unchanged.
func (api *PublicAPI) Navigate(direction sign.Direction, currentID uint64, sessionIDs []uint64) uint64 {
	return api.s.queue.Navigate(direction, currentID, sessionIDs)
}

// ActiveID returns the id of the currently decidable request.
func (api *PublicAPI) ActiveID() (uint64, bool) {
	return api.s.queue.ActiveID()
}

// IsBlocked reports whether the request is pending behind the active one.
func (api *PublicAPI) IsBlocked(id uint64) bool {
	return api.s.queue.IsBlocked(id)
}

// GetRequest returns a copy of any known request, pending or resolved.
func (api *PublicAPI) GetRequest(id uint64) (sign.Request, error) {
	return api.s.registry.Get(id)
}

// PendingRequests returns the current queue snapshot.
func (api *PublicAPI) PendingRequests() Snapshot {
	return api.s.snapshot()
}

func (api *PublicAPI) trackQueued(request sign.Request, queueType appmetrics.QueueType) {
	if api.s.tracker == nil {
		return
	}
	metric := appmetrics.NewConfirmationQueued(appmetrics.ConfirmationQueuedProps{
		ChainID:          request.ChainID,
		QueueSize:        api.s.registry.CountForOrigin(request.Origin),
		QueueType:        queueType,
		ConfirmationType: confirmationType(request.Kind),
		Referrer:         request.Origin,
	}, api.s.config.Environment, api.s.config.Locale)
	if err := api.s.tracker.Track(metric); err != nil {
		log.Warn("failed to track confirmation queued", "id", request.ID, "error", err)
	}
}

// confirmationType maps a request kind to the RPC method name reported in
// telemetry.
func confirmationType(kind sign.Kind) string {
	switch kind {
	case sign.KindPersonalMessage:
		return "personal_sign"
	case sign.KindTypedDataMessage:
		return "eth_signTypedData"
	case sign.KindEthSignMessage:
		return "eth_sign"
	case sign.KindTransaction:
		return "eth_sendTransaction"
	}
	return string(kind)
}
