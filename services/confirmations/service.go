package confirmations

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/p2p"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/status-im/sign-queue/appmetrics"
	"github.com/status-im/sign-queue/sign"
)

// Config carries host metadata attached to telemetry events.
type Config struct {
	Environment string
	Locale      string
}

// Service composes the request registry and the queue discipline behind the
// confirmation API. It is the single place where mutations, telemetry and
// change notifications meet.
type Service struct {
	registry *sign.PendingRequests
	queue    *sign.Queue
	tracker  appmetrics.Tracker
	config   Config
	feed     event.Feed
}

func NewService(tracker appmetrics.Tracker, config Config) *Service {
	registry := sign.NewPendingRequests()
	return &Service{
		registry: registry,
		queue:    sign.NewQueue(registry),
		tracker:  tracker,
		config:   config,
	}
}

func (s *Service) Start() error {
	return nil
}

func (s *Service) Stop() error {
	return nil
}

func (s *Service) APIs() []gethrpc.API {
	return []gethrpc.API{
		{
			Namespace: "confirmations",
			Version:   "0.1.0",
			Service:   NewAPI(s),
		},
	}
}

func (s *Service) Protocols() []p2p.Protocol {
	return nil
}

// SubscribeSnapshots registers ch for queue snapshots. A snapshot is
// published after every mutation and is always internally consistent.
func (s *Service) SubscribeSnapshots(ch chan<- Snapshot) event.Subscription {
	return s.feed.Subscribe(ch)
}

// snapshot builds the current queue view from a single registry read, so a
// concurrent mutation can never produce a half-updated picture.
func (s *Service) snapshot() Snapshot {
	var snapshot Snapshot
	unapproved := s.registry.GetUnapproved()
	for pair := unapproved.Oldest(); pair != nil; pair = pair.Next() {
		snapshot.Unapproved = append(snapshot.Unapproved, pair.Value)
	}
	if len(snapshot.Unapproved) > 0 {
		active := snapshot.Unapproved[0].ID
		snapshot.ActiveID = &active
	}
	return snapshot
}

func (s *Service) publishSnapshot() {
	s.feed.Send(s.snapshot())
}
