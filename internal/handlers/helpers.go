package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"grubgo/internal/services"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
	Data    any    `json:"data,omitempty"`
	Token   string `json:"token,omitempty"`
}

func ok(c *gin.Context, status int, env Envelope) {
	env.Success = true
	c.JSON(status, env)
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Envelope{Success: false, Message: msg})
}

type statusFor struct {
	kind   error
	status int
}

var (
	crudStatuses = []statusFor{
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrForbidden, http.StatusForbidden},
	}
	resendStatuses = []statusFor{
		{services.ErrRateLimited, http.StatusTooManyRequests},
	}
)

// writeError answers with the user-facing message of a flow error, 400 unless
// one of overrides matches, and hides anything unexpected behind a 500.
func writeError(c *gin.Context, tag string, err error, overrides ...statusFor) {
	var fe *services.FlowError
	if !errors.As(err, &fe) {
		log.Printf("[%s][err] %v", tag, err)
		fail(c, http.StatusInternalServerError, "Server Error")
		return
	}
	status := http.StatusBadRequest
	for _, o := range overrides {
		if errors.Is(err, o.kind) {
			status = o.status
			break
		}
	}
	log.Printf("[%s] rejected status=%d: %s", tag, status, fe.Message)
	fail(c, status, fe.Message)
}
