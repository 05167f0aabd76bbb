package confirmations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/suite"

	"github.com/status-im/sign-queue/appmetrics"
	"github.com/status-im/sign-queue/sign"
	"github.com/status-im/sign-queue/signal"
)

const testAddress = "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"

type fakeTracker struct {
	mu      sync.Mutex
	metrics []appmetrics.Metric
}

func (f *fakeTracker) Track(metric appmetrics.Metric) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics = append(f.metrics, metric)
	return nil
}

func (f *fakeTracker) tracked() []appmetrics.Metric {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]appmetrics.Metric(nil), f.metrics...)
}

type recordedSignal struct {
	Type  string          `json:"type"`
	Event json.RawMessage `json:"event"`
}

type signalRecorder struct {
	mu      sync.Mutex
	signals []recordedSignal
}

func (r *signalRecorder) handle(jsonEvent string) {
	var recorded recordedSignal
	if err := json.Unmarshal([]byte(jsonEvent), &recorded); err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, recorded)
}

func (r *signalRecorder) ofType(typ string) []recordedSignal {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []recordedSignal
	for _, s := range r.signals {
		if s.Type == typ {
			matched = append(matched, s)
		}
	}
	return matched
}

func TestConfirmationsAPISuite(t *testing.T) {
	suite.Run(t, new(ConfirmationsAPISuite))
}

type ConfirmationsAPISuite struct {
	suite.Suite
	service   *Service
	api       *PublicAPI
	tracker   *fakeTracker
	signals   *signalRecorder
	snapshots chan Snapshot
	sub       event.Subscription
}

func (s *ConfirmationsAPISuite) SetupTest() {
	s.tracker = &fakeTracker{}
	s.signals = &signalRecorder{}
	s.service = NewService(s.tracker, Config{Environment: "test", Locale: "en-US"})
	s.api = NewAPI(s.service)
	s.snapshots = make(chan Snapshot, 64)
	s.sub = s.service.SubscribeSnapshots(s.snapshots)
	signal.SetNotificationHandler(s.signals.handle)
}

func (s *ConfirmationsAPISuite) TearDownTest() {
	signal.ResetNotificationHandler()
	s.sub.Unsubscribe()
}

func (s *ConfirmationsAPISuite) createPersonal(origin string) uint64 {
	params := json.RawMessage(fmt.Sprintf(`{"from":%q,"data":"hello"}`, testAddress))
	id, err := s.api.CreateRequest(context.Background(), sign.KindPersonalMessage, params, origin, 1, appmetrics.QueueTypeQueueController)
	s.Require().NoError(err)
	return id
}

func (s *ConfirmationsAPISuite) lastSnapshot() Snapshot {
	var last Snapshot
	received := false
	for {
		select {
		case snapshot := <-s.snapshots:
			last = snapshot
			received = true
		default:
			s.Require().True(received, "no snapshot published")
			return last
		}
	}
}

func (s *ConfirmationsAPISuite) TestCreateQueuesRequest() {
	id := s.createPersonal("https://dapp.example")
	s.Equal(uint64(1), id)

	snapshot := s.lastSnapshot()
	s.Require().Len(snapshot.Unapproved, 1)
	s.Equal(sign.StatusUnapproved, snapshot.Unapproved[0].Status)
	s.Require().NotNil(snapshot.ActiveID)
	s.Equal(id, *snapshot.ActiveID)

	metrics := s.tracker.tracked()
	s.Require().Len(metrics, 1)
	s.Equal(appmetrics.ConfirmationQueuedEventName, metrics[0].EventName)
	s.Equal(appmetrics.CategoryConfirmations, metrics[0].EventValue["category"])
	s.Equal(1, metrics[0].EventValue["queue_size"])
	s.Equal("queue_controller", metrics[0].EventValue["queue_type"])
	s.Equal("personal_sign", metrics[0].EventValue["confirmation_type"])
	s.Equal("https://dapp.example", metrics[0].EventValue["referrer"])
	s.Equal("test", metrics[0].EventValue["environment_type"])
	s.Equal("en-US", metrics[0].EventValue["locale"])

	added := s.signals.ofType(signal.EventSignRequestAdded)
	s.Require().Len(added, 1)
}

func (s *ConfirmationsAPISuite) TestCreateValidationFailureEmitsNothing() {
	params := json.RawMessage(`{"data":"hello"}`)
	_, err := s.api.CreateRequest(context.Background(), sign.KindPersonalMessage, params, "https://dapp.example", 1, appmetrics.QueueTypeQueueController)
	s.Require().Error(err)
	var validationErr *sign.ValidationError
	s.Require().ErrorAs(err, &validationErr)
	s.Equal("Params must include a from field.", validationErr.Error())

	s.Empty(s.tracker.tracked())
	s.Empty(s.signals.ofType(signal.EventSignRequestAdded))
	s.Empty(s.snapshots)
	s.Equal(0, len(s.api.PendingRequests().Unapproved))
}

func (s *ConfirmationsAPISuite) TestCreateSchemaFailure() {
	params := json.RawMessage(fmt.Sprintf(`{"from":%q,"data":{"types":{"EIP712Domain":[]},"primaryType":"Mail","message":{}}}`, testAddress))
	_, err := s.api.CreateRequest(context.Background(), sign.KindTypedDataMessage, params, "https://dapp.example", 1, appmetrics.QueueTypeQueueController)
	s.Require().Error(err)
	var schemaErr *sign.SchemaError
	s.Require().ErrorAs(err, &schemaErr)
	s.Contains(schemaErr.Error(), "EIP-712")
}

func (s *ConfirmationsAPISuite) TestApproveActiveEnforcesGating() {
	first := s.createPersonal("https://dapp.example")
	second := s.createPersonal("https://dapp.example")

	_, err := s.api.ApproveActive(second)
	s.Require().ErrorIs(err, sign.ErrInvalidState)
	blocked, err := s.api.GetRequest(second)
	s.Require().NoError(err)
	s.Equal(sign.StatusUnapproved, blocked.Status)

	payload, err := s.api.ApproveActive(first)
	s.Require().NoError(err)
	message, ok := payload.(sign.MessagePayload)
	s.Require().True(ok)
	s.Equal("0x68656c6c6f", message.Data)

	snapshot := s.lastSnapshot()
	s.Require().NotNil(snapshot.ActiveID)
	s.Equal(second, *snapshot.ActiveID)
}

func (s *ConfirmationsAPISuite) TestApproveActiveEmptyQueue() {
	_, err := s.api.ApproveActive(1)
	s.Require().ErrorIs(err, sign.ErrInvalidState)
}

func (s *ConfirmationsAPISuite) TestRejectBlockedRequest() {
	first := s.createPersonal("https://dapp.example")
	second := s.createPersonal("https://dapp.example")

	s.Require().NoError(s.api.RejectRequest(second))

	rejected, err := s.api.GetRequest(second)
	s.Require().NoError(err)
	s.Equal(sign.StatusRejected, rejected.Status)

	active, ok := s.api.ActiveID()
	s.Require().True(ok)
	s.Equal(first, active)

	s.Require().Len(s.signals.ofType(signal.EventSignRequestRejected), 1)
}

func (s *ConfirmationsAPISuite) TestRejectApprovedRequestFails() {
	id := s.createPersonal("https://dapp.example")
	_, err := s.api.ApproveActive(id)
	s.Require().NoError(err)

	s.Require().ErrorIs(s.api.RejectRequest(id), sign.ErrInvalidState)
}

func (s *ConfirmationsAPISuite) TestRejectAllPending() {
	first := s.createPersonal("https://a.example")
	second := s.createPersonal("https://b.example")

	rejected := s.api.RejectAllPending()
	s.Equal([]uint64{first, second}, rejected)

	snapshot := s.lastSnapshot()
	s.Empty(snapshot.Unapproved)
	s.Nil(snapshot.ActiveID)

	// a request created after the bulk reject is unaffected
	survivor := s.createPersonal("https://c.example")
	active, ok := s.api.ActiveID()
	s.Require().True(ok)
	s.Equal(survivor, active)
}

func (s *ConfirmationsAPISuite) TestCompleteActiveSigns() {
	id := s.createPersonal("https://dapp.example")
	expected := hexutil.Bytes{0xde, 0xad, 0xbe, 0xef}

	signature, err := s.api.CompleteActive(id, func(payload sign.Payload) (hexutil.Bytes, error) {
		message, ok := payload.(sign.MessagePayload)
		s.Require().True(ok)
		s.Equal("0x68656c6c6f", message.Data)
		return expected, nil
	})
	s.Require().NoError(err)
	s.Equal(expected, signature)

	signed, err := s.api.GetRequest(id)
	s.Require().NoError(err)
	s.Equal(sign.StatusSigned, signed.Status)
	s.Equal(expected, signed.RawSignature)

	s.Require().Len(s.signals.ofType(signal.EventSignRequestSigned), 1)
	snapshot := s.lastSnapshot()
	s.Empty(snapshot.Unapproved)
}

func (s *ConfirmationsAPISuite) TestCompleteActiveSignerFails() {
	id := s.createPersonal("https://dapp.example")
	signerErr := errors.New("keystore is locked")

	_, err := s.api.CompleteActive(id, func(sign.Payload) (hexutil.Bytes, error) {
		return nil, signerErr
	})
	s.Require().ErrorIs(err, signerErr)

	errored, err := s.api.GetRequest(id)
	s.Require().NoError(err)
	s.Equal(sign.StatusErrored, errored.Status)
	s.Equal("keystore is locked", errored.Err)

	s.Require().Len(s.signals.ofType(signal.EventSignRequestFailed), 1)
}

func (s *ConfirmationsAPISuite) TestApprovedRequestCannotBeRejectedMidSigning() {
	id := s.createPersonal("https://dapp.example")
	_, err := s.api.ApproveActive(id)
	s.Require().NoError(err)

	s.Require().ErrorIs(s.api.RejectRequest(id), sign.ErrInvalidState)
	s.Empty(s.api.RejectAllPending())

	// only the signer outcome resolves it
	s.Require().NoError(s.api.MarkSigned(id, hexutil.Bytes{0x01}))
}

func (s *ConfirmationsAPISuite) TestQueueSizeIsPerOrigin() {
	s.createPersonal("https://a.example")
	s.createPersonal("https://a.example")
	s.createPersonal("https://b.example")

	metrics := s.tracker.tracked()
	s.Require().Len(metrics, 3)
	s.Equal(1, metrics[0].EventValue["queue_size"])
	s.Equal(2, metrics[1].EventValue["queue_size"])
	s.Equal(1, metrics[2].EventValue["queue_size"])
}

func (s *ConfirmationsAPISuite) TestSimultaneousCreates() {
	var wg sync.WaitGroup
	ids := make(chan uint64, 2)
	for _, origin := range []string{"https://a.example", "https://b.example"} {
		wg.Add(1)
		go func(origin string) {
			defer wg.Done()
			ids <- s.createPersonal(origin)
		}(origin)
	}
	wg.Wait()
	close(ids)

	seen := map[uint64]struct{}{}
	for id := range ids {
		seen[id] = struct{}{}
	}
	s.Require().Len(seen, 2)
	s.Contains(seen, uint64(1))
	s.Contains(seen, uint64(2))

	snapshot := s.api.PendingRequests()
	s.Require().Len(snapshot.Unapproved, 2)
	s.Require().NotNil(snapshot.ActiveID)
	s.Equal(uint64(1), *snapshot.ActiveID)
}

func (s *ConfirmationsAPISuite) TestSnapshotsAreAlwaysConsistent() {
	first := s.createPersonal("https://dapp.example")
	second := s.createPersonal("https://dapp.example")
	s.createPersonal("https://dapp.example")
	s.Require().NoError(s.api.RejectRequest(second))
	_, err := s.api.ApproveActive(first)
	s.Require().NoError(err)

	for {
		select {
		case snapshot := <-s.snapshots:
			if len(snapshot.Unapproved) == 0 {
				s.Nil(snapshot.ActiveID)
				continue
			}
			s.Require().NotNil(snapshot.ActiveID)
			min := snapshot.Unapproved[0].ID
			for _, request := range snapshot.Unapproved {
				s.Equal(sign.StatusUnapproved, request.Status)
				if request.ID < min {
					min = request.ID
				}
			}
			s.Equal(min, *snapshot.ActiveID)
		default:
			return
		}
	}
}

func (s *ConfirmationsAPISuite) TestNavigateSession() {
	first := s.createPersonal("https://dapp.example")
	second := s.createPersonal("https://dapp.example")
	s.Require().NoError(s.api.RejectRequest(first))

	// resolved requests stay navigable within the session
	session := []uint64{first, second}
	s.Equal(second, s.api.Navigate(sign.NavigateForward, first, session))
	s.Equal(first, s.api.Navigate(sign.NavigateBack, second, session))
	s.Equal(first, s.api.Navigate(sign.NavigateBack, first, session))
}

func (s *ConfirmationsAPISuite) TestIsBlocked() {
	first := s.createPersonal("https://dapp.example")
	second := s.createPersonal("https://dapp.example")

	s.False(s.api.IsBlocked(first))
	s.True(s.api.IsBlocked(second))
}
