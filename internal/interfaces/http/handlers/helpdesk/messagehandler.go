package helpdesk

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orris-inc/helpdesk/internal/application/ingestion"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

const defaultMaxMessageBytes = 10 << 20

// SourceUIDHeader lets a pushing MTA name the message in its own spool so the
// outcome can be correlated.
const SourceUIDHeader = "X-Source-UID"

type MessageProcessor interface {
	Process(ctx context.Context, raw ingestion.RawMessage) ingestion.Outcome
}

// MessageHandler accepts raw RFC 5322 messages pushed over HTTP.
type MessageHandler struct {
	processor MessageProcessor
	maxBytes  int64
	logger    logger.Interface
}

func NewMessageHandler(processor MessageProcessor, maxBytes int64, logger logger.Interface) *MessageHandler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxMessageBytes
	}
	return &MessageHandler{processor: processor, maxBytes: maxBytes, logger: logger}
}

// IngestMessage handles POST /api/messages
func (h *MessageHandler) IngestMessage(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "message exceeds size limit")
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read message body")
		return
	}
	if len(data) == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "empty message body")
		return
	}

	uid := c.GetHeader(SourceUIDHeader)
	if uid == "" {
		uid = "http:" + uuid.NewString()
	}

	out := h.processor.Process(c.Request.Context(), ingestion.RawMessage{
		UID:       uid,
		Data:      data,
		FetchedAt: time.Now().UTC(),
	})

	c.JSON(outcomeStatus(out), utils.APIResponse{
		Success: out.Kind != ingestion.OutcomeFailed,
		Data:    out,
	})
}

// outcomeStatus maps an outcome onto an HTTP status. Transient failures ask
// the sender to retry; permanent ones do not.
func outcomeStatus(out ingestion.Outcome) int {
	switch out.Kind {
	case ingestion.OutcomeCreated:
		return http.StatusCreated
	case ingestion.OutcomeAppended, ingestion.OutcomeSkipped:
		return http.StatusOK
	}
	if out.Failure.Transient() {
		return http.StatusServiceUnavailable
	}
	if out.Failure == ingestion.FailureNormalization && out.ParkedID != 0 {
		return http.StatusAccepted
	}
	return http.StatusUnprocessableEntity
}
