package controllers

import (
	"math"
	"net/http"
	"strconv"

	"streamwatch/internal/models"

	"github.com/gin-gonic/gin"
)

// ListSessions returns every stored session, newest first.
func (ctl *Controller) ListSessions(c *gin.Context) {
	sessions, err := ctl.sessions.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession returns one stored session summary.
func (ctl *Controller) GetSession(c *gin.Context) {
	session, err := ctl.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// CreateSession stores a finished session summary.
func (ctl *Controller) CreateSession(c *gin.Context) {
	var summary models.SessionSummary
	if err := c.ShouldBindJSON(&summary); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session body: " + err.Error()})
		return
	}

	saved, err := ctl.sessions.Save(c.Request.Context(), summary)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// GetSessionMetrics returns the samples recorded during a session.
// Query params: from, to (epoch millis, default: the whole session)
func (ctl *Controller) GetSessionMetrics(c *gin.Context) {
	from, ok := int64Query(c, "from", 0)
	if !ok {
		return
	}
	to, ok := int64Query(c, "to", math.MaxInt64)
	if !ok {
		return
	}
	if to < from {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return
	}

	id := c.Param("id")
	samples, err := ctl.sessions.MetricsRange(c.Request.Context(), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": id,
		"data":       samples,
	})
}

// CompareSessions diffs two sessions.
// Query params: before, after (session IDs)
func (ctl *Controller) CompareSessions(c *gin.Context) {
	before := c.Query("before")
	after := c.Query("after")
	if before == "" || after == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "before and after session IDs are required"})
		return
	}

	result, err := ctl.sessions.Compare(c.Request.Context(), before, after)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSessionError returns the last session request failure, if any.
func (ctl *Controller) GetSessionError(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"error": ctl.sessions.LastError()})
}

// ClearSessionError dismisses the last session request failure.
func (ctl *Controller) ClearSessionError(c *gin.Context) {
	ctl.sessions.ClearError()
	c.Status(http.StatusNoContent)
}

func int64Query(c *gin.Context, key string, def int64) (int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + " timestamp"})
		return 0, false
	}
	return v, true
}
