package core

import (
	"sync"
	"time"

	"github.com/spaghettifunk/meshsync/engine/containers"
)

const AVG_COUNT uint8 = 30

// MetricsSnapshot is a copy of the counters at one point in time.
type MetricsSnapshot struct {
	Started      uint64
	Busy         uint64
	Completed    uint64
	Failed       uint64
	MessagesSent uint64
	// Average duration of the last AVG_COUNT finished sends.
	AverageSend time.Duration
	LastSend    time.Duration
}

// SendMetrics is written from the send worker and read from the main thread.
type SendMetrics struct {
	mutex     sync.Mutex
	counters  MetricsSnapshot
	durations *containers.RingQueue[time.Duration]
}

func NewSendMetrics() *SendMetrics {
	return &SendMetrics{
		durations: containers.NewRingQueue[time.Duration](int(AVG_COUNT)),
	}
}

func (m *SendMetrics) RecordStarted() {
	m.mutex.Lock()
	m.counters.Started++
	m.mutex.Unlock()
}

func (m *SendMetrics) RecordBusy() {
	m.mutex.Lock()
	m.counters.Busy++
	m.mutex.Unlock()
}

func (m *SendMetrics) RecordMessage() {
	m.mutex.Lock()
	m.counters.MessagesSent++
	m.mutex.Unlock()
}

// RecordFinished closes a send cycle that took elapsed.
func (m *SendMetrics) RecordFinished(elapsed time.Duration, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err != nil {
		m.counters.Failed++
	} else {
		m.counters.Completed++
	}
	m.durations.Push(elapsed)
	m.counters.LastSend = elapsed

	var sum time.Duration
	m.durations.Each(func(d time.Duration) {
		sum += d
	})
	m.counters.AverageSend = sum / time.Duration(m.durations.Len())
}

func (m *SendMetrics) Snapshot() MetricsSnapshot {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.counters
}
