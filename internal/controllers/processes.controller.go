package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetMonitoredProcess reports the aggregated streaming-tool process, if running.
func (ctl *Controller) GetMonitoredProcess(c *gin.Context) {
	state := ctl.poller.State()
	c.JSON(http.StatusOK, gin.H{
		"running":     state.Process != nil,
		"process":     state.Process,
		"last_update": state.LastUpdate,
	})
}
