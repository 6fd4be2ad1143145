package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/upf/internal/contract"
	"github.com/alexanderramin/upf/internal/repository"
	"github.com/alexanderramin/upf/internal/service"
)

// Error kinds for failures raised before the core runs.
const (
	stageUpload  = "upload"
	stageHistory = "history"

	kindInvalidRequest  = "INVALID_REQUEST"
	kindPayloadTooLarge = "PAYLOAD_TOO_LARGE"
	kindNotFound        = "NOT_FOUND"
	kindHistoryDisabled = "HISTORY_DISABLED"
)

type errorBody struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// requestError is a failure the handler maps to a fixed status.
type requestError struct {
	status int
	body   errorBody
}

func (e *requestError) Error() string { return e.body.Message }

func badRequest(msg string) *requestError {
	return &requestError{status: http.StatusBadRequest, body: errorBody{Stage: stageUpload, Kind: kindInvalidRequest, Message: msg}}
}

func tooLarge(msg string) *requestError {
	return &requestError{status: http.StatusRequestEntityTooLarge, body: errorBody{Stage: stageUpload, Kind: kindPayloadTooLarge, Message: msg}}
}

// statusFor maps a conversion failure onto an HTTP status. Only input the
// sniffer cannot identify is the caller's fault; every other core failure
// is reported as a server error.
func statusFor(ce *contract.ConversionError) int {
	if ce.Stage == contract.StageSniff && ce.Kind == contract.KindUnrecognizedFormat {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	var re *requestError
	if errors.As(err, &re) {
		c.AbortWithStatusJSON(re.status, errorEnvelope{Error: re.body})
		return
	}
	if ce, ok := contract.AsConversionError(err); ok {
		c.AbortWithStatusJSON(statusFor(ce), errorEnvelope{Error: errorBody{
			Stage:   string(ce.Stage),
			Kind:    string(ce.Kind),
			Message: ce.Message,
		}})
		return
	}
	switch {
	case errors.Is(err, service.ErrHistoryDisabled):
		c.AbortWithStatusJSON(http.StatusNotFound, errorEnvelope{Error: errorBody{
			Stage: stageHistory, Kind: kindHistoryDisabled, Message: err.Error(),
		}})
	case errors.Is(err, repository.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, errorEnvelope{Error: errorBody{
			Stage: stageHistory, Kind: kindNotFound, Message: err.Error(),
		}})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorEnvelope{Error: errorBody{
			Kind: string(contract.KindInternal), Message: err.Error(),
		}})
	}
}
