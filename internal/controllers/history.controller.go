package controllers

import (
	"net/http"
	"time"

	"streamwatch/internal/models"

	"github.com/gin-gonic/gin"
)

// GetMetricHistory returns the buffered series of one channel.
// Query params: channel=cpu|memory|gpu|... (default: cpu), duration=30s|1m (default: whole buffer)
func (ctl *Controller) GetMetricHistory(c *gin.Context) {
	name := c.DefaultQuery("channel", string(models.ChannelCPU))
	channel, ok := models.ParseChannel(name)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel"})
		return
	}

	history := ctl.poller.History()
	durationStr := c.Query("duration")
	if durationStr == "" {
		c.JSON(http.StatusOK, gin.H{
			"channel": channel,
			"data":    history.Points(channel),
		})
		return
	}

	duration, err := time.ParseDuration(durationStr)
	if err != nil || duration <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration format"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"channel":  channel,
		"duration": durationStr,
		"data":     history.Since(channel, duration),
	})
}

// GetAllHistory returns every channel of the buffer.
func (ctl *Controller) GetAllHistory(c *gin.Context) {
	history := ctl.poller.History()
	c.JSON(http.StatusOK, gin.H{
		"capacity": history.Capacity(),
		"data":     history.Snapshot(),
	})
}
