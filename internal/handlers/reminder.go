package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CheckReminders runs one reminder pass. This endpoint backs the periodic
// external trigger (cron); individual event failures are reported in the
// summary, never as an HTTP error.
func CheckReminders(c *gin.Context) {
	result, err := reminderService.CheckReminders(c.Request.Context())
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to run reminder check", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// TriggerReminders is the authenticated manual wrapper around the reminder
// pass
func TriggerReminders(c *gin.Context) {
	result, err := reminderService.CheckReminders(c.Request.Context())
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to run reminder check", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reminder check completed",
		"result":  result,
	})
}
