package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dbkchain/bridge-service/bridge"
	"github.com/dbkchain/bridge-service/config"
	"github.com/dbkchain/bridge-service/entity"
	"github.com/dbkchain/bridge-service/logging"
)

const pollBatchSize = 500

// Monitor periodically resolves the status of every known bridge record and
// keeps an in-memory view of the latest statuses. Statuses only move
// forward, a poll reporting an earlier status than already seen, or any
// status over a terminal one, is treated as stale information and dropped.
type Monitor struct {
	logger   logging.Logger
	cfg      *config.MonitorConfig
	bridgeID string
	records  entity.BridgeRecordsRepo
	resolver *bridge.StatusResolver

	mu       sync.RWMutex
	statuses map[bridge.RecordKey]entity.BridgeStatus
}

func NewMonitor(logger logging.Logger, cfg *config.MonitorConfig, bridgeID string, records entity.BridgeRecordsRepo, resolver *bridge.StatusResolver) *Monitor {
	return &Monitor{
		logger:   logger,
		cfg:      cfg,
		bridgeID: bridgeID,
		records:  records,
		resolver: resolver,
		statuses: make(map[bridge.RecordKey]entity.BridgeStatus),
	}
}

// Start blocks polling until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	for {
		start := time.Now()
		if err := m.Poll(ctx); err != nil {
			m.logger.WithError(err).Error("can't poll bridge record statuses")
		}
		PollDurationHistogram.WithLabelValues(m.bridgeID).Observe(time.Since(start).Seconds())

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			return
		}
	}
}

// Poll resolves all records once and merges the result into the status view.
func (m *Monitor) Poll(ctx context.Context) error {
	var all []*entity.BridgeRecord
	for offset := uint(0); ; offset += pollBatchSize {
		page, err := m.records.FindAll(ctx, pollBatchSize, offset)
		if err != nil {
			return fmt.Errorf("can't list bridge records: %w", err)
		}
		all = append(all, page...)
		if len(page) < pollBatchSize {
			break
		}
	}

	res := m.resolver.ResolveBatch(ctx, all)
	m.merge(res)
	PendingRecordsGauge.WithLabelValues(m.bridgeID).Set(float64(res.PendingCount))
	m.logger.WithFields(logrus.Fields{
		"records": len(all),
		"pending": res.PendingCount,
	}).Info("resolved bridge record statuses")
	return nil
}

func (m *Monitor) merge(res *bridge.BatchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, item := range res.Items {
		next := item.Status
		if next == "" {
			continue
		}
		prev, seen := m.statuses[key]
		if seen && next != prev && (prev.IsTerminal() || next.Before(prev)) {
			StatusRegressionsCounter.WithLabelValues(m.bridgeID).Inc()
			m.logger.WithFields(logrus.Fields{
				"from_chain_id": key.FromChainID,
				"tx_hash":       key.TxHash,
				"previous":      prev,
				"reported":      next,
			}).Warn("bridge status regressed, keeping the previous status")
			continue
		}
		m.statuses[key] = next
	}
}

// Status returns the latest known status for a record and whether any status
// has been observed for it yet.
func (m *Monitor) Status(key bridge.RecordKey) (entity.BridgeStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.statuses[key]
	return status, ok
}

// Statuses returns a snapshot of the current status view.
func (m *Monitor) Statuses() map[bridge.RecordKey]entity.BridgeStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make(map[bridge.RecordKey]entity.BridgeStatus, len(m.statuses))
	for key, status := range m.statuses {
		res[key] = status
	}
	return res
}
