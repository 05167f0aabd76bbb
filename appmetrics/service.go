package appmetrics

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

const defaultPollInterval = 10 * time.Second

// Tracker accepts metrics from producers. The confirmations service only
// depends on this interface.
type Tracker interface {
	Track(metric Metric) error
}

// MetricRepository buffers metrics between production and processing.
type MetricRepository interface {
	Poll() ([]Metric, error)
	Add(metric Metric) error
}

// MetricProcessor forwards a batch of metrics to the analytics sink.
type MetricProcessor interface {
	Process(metrics []Metric) error
}

// MemoryMetricRepository keeps pending metrics in memory. Durable telemetry
// buffering is the host's concern, not the queue's.
type MemoryMetricRepository struct {
	mu      sync.Mutex
	pending []Metric
}

func NewMemoryMetricRepository() *MemoryMetricRepository {
	return &MemoryMetricRepository{}
}

func (r *MemoryMetricRepository) Add(metric Metric) error {
	if err := metric.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, metric)
	return nil
}

func (r *MemoryMetricRepository) Poll() ([]Metric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	polled := r.pending
	r.pending = nil
	return polled, nil
}

// MetricService accepts metrics and periodically hands them to the processor.
type MetricService struct {
	repository MetricRepository
	processor  MetricProcessor
	ticker     *time.Ticker
	done       chan bool
	started    bool
	wg         sync.WaitGroup
}

func NewMetricService(repository MetricRepository, processor MetricProcessor, interval time.Duration) *MetricService {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &MetricService{
		repository: repository,
		processor:  processor,
		ticker:     time.NewTicker(interval),
		done:       make(chan bool),
	}
}

func NewDefaultMetricService(processor MetricProcessor) *MetricService {
	return NewMetricService(NewMemoryMetricRepository(), processor, defaultPollInterval)
}

func (s *MetricService) Start() {
	if s.started {
		return
	}
	s.wg.Add(1)
	s.started = true
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.done:
				return
			case <-s.ticker.C:
				s.processMetrics()
			}
		}
	}()
}

func (s *MetricService) Stop() {
	if !s.started {
		return
	}
	s.ticker.Stop()
	s.done <- true
	s.wg.Wait()
	s.started = false
}

// Track validates, stamps and buffers the metric.
func (s *MetricService) Track(metric Metric) error {
	metric.EnsureID()
	metric.EnsureTimestamp()
	return s.repository.Add(metric)
}

func (s *MetricService) processMetrics() {
	metrics, err := s.repository.Poll()
	if err != nil {
		log.Warn("error polling metrics", "error", err)
		return
	}
	if len(metrics) == 0 {
		return
	}
	if err := s.processor.Process(metrics); err != nil {
		log.Warn("error processing metrics", "error", err)
	}
}
