package sse

import (
	"time"

	"github.com/GTDGit/catalog_import/internal/models"
)

// ImportNotifier is the interface the import pipeline uses to emit progress.
type ImportNotifier interface {
	RunStarted(run *models.ImportRun)
	ProductFinished(runID string, report *models.ProductReport)
	RunFinished(run *models.ImportRun)
}

// HubNotifier implements ImportNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) RunStarted(run *models.ImportRun) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(runEvent(EventRunStarted, run))
}

func (n *HubNotifier) ProductFinished(runID string, report *models.ProductReport) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&ImportEvent{
		Event:     EventProductFinished,
		RunID:     runID,
		ProductID: report.ProductID,
		State:     string(report.State),
		Reason:    report.Reason,
		Timestamp: time.Now(),
	})
}

func (n *HubNotifier) RunFinished(run *models.ImportRun) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(runEvent(EventRunFinished, run))
}

func runEvent(eventType EventType, run *models.ImportRun) *ImportEvent {
	ev := &ImportEvent{
		Event:     eventType,
		RunID:     run.ID,
		Status:    string(run.Status),
		Total:     run.Total,
		Succeeded: run.Succeeded,
		Failed:    run.Failed,
		Timestamp: time.Now(),
	}
	if run.Error != nil {
		ev.Reason = *run.Error
	}
	return ev
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (NopNotifier) RunStarted(*models.ImportRun)                  {}
func (NopNotifier) ProductFinished(string, *models.ProductReport) {}
func (NopNotifier) RunFinished(*models.ImportRun)                 {}
