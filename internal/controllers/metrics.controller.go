package controllers

import (
	"net/http"

	"streamwatch/internal/services"

	"github.com/gin-gonic/gin"
)

// GetCurrent returns the last applied snapshot with its severities. Before
// the first successful fetch the snapshot is null.
func (ctl *Controller) GetCurrent(c *gin.Context) {
	state := ctl.poller.State()

	var severity *services.SeverityReport
	if state.LastSnapshot != nil {
		report := ctl.classifier.ClassifySnapshot(*state.LastSnapshot)
		severity = &report
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot":    state.LastSnapshot,
		"process":     state.Process,
		"severity":    severity,
		"last_update": state.LastUpdate,
		"error":       state.Error,
		"running":     state.Running,
	})
}

// GetStatus returns poller health, fetch counters and the threshold table.
func (ctl *Controller) GetStatus(c *gin.Context) {
	state := ctl.poller.State()

	clients := 0
	if ctl.hub != nil {
		clients = ctl.hub.ClientCount()
	}

	c.JSON(http.StatusOK, gin.H{
		"running":          state.Running,
		"last_update":      state.LastUpdate,
		"error":            state.Error,
		"stats":            ctl.poller.Stats(),
		"thresholds":       ctl.classifier.Thresholds(),
		"history_capacity": ctl.poller.History().Capacity(),
		"clients":          clients,
	})
}
