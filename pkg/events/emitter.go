package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/querysense/querysense/pkg/models"
)

// Broadcaster is the fan-out contract the emitter publishes through.
// Implemented by ConnectionManager; tests substitute a recorder.
type Broadcaster interface {
	Broadcast(channel string, event []byte)
	BroadcastAll(event []byte)
}

// Emitter publishes typed stage events to the right channels. It is handed
// down explicitly to the orchestrator rather than looked up globally, and
// its clock is injectable so event timestamps are deterministic in tests.
type Emitter struct {
	bus Broadcaster
	now func() time.Time
}

// NewEmitter creates an Emitter. Pass nil for now to use time.Now.
func NewEmitter(bus Broadcaster, now func() time.Time) *Emitter {
	if now == nil {
		now = time.Now
	}
	return &Emitter{bus: bus, now: now}
}

func (e *Emitter) timestamp() string {
	return e.now().Format(time.RFC3339Nano)
}

// emit marshals and broadcasts a payload to one channel. Marshal failures
// are logged and dropped; event delivery is never allowed to fail a request.
func (e *Emitter) emit(channel string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("Failed to marshal event payload", "channel", channel, "error", err)
		return
	}
	e.bus.Broadcast(channel, data)
}

// QueryStart announces a newly created request to its owner.
func (e *Emitter) QueryStart(userID, queryID, question string) {
	e.emit(UserChannel(userID), QueryStartPayload{
		Type:      EventQueryStart,
		QueryID:   queryID,
		Question:  question,
		Timestamp: e.timestamp(),
	})
}

// SQLGenerated announces a successful conversion.
func (e *Emitter) SQLGenerated(userID, queryID, sql, explanation string) {
	e.emit(UserChannel(userID), SQLGeneratedPayload{
		Type:        EventSQLGenerated,
		QueryID:     queryID,
		SQL:         sql,
		Explanation: explanation,
		Timestamp:   e.timestamp(),
	})
}

// QueryExecuting announces that execution has begun.
func (e *Emitter) QueryExecuting(userID, queryID string) {
	e.emit(UserChannel(userID), QueryExecutingPayload{
		Type:      EventQueryExecuting,
		QueryID:   queryID,
		Timestamp: e.timestamp(),
	})
}

// QueryResults delivers rows and timing for a completed execution.
func (e *Emitter) QueryResults(userID, queryID string, results []models.Row, executionTimeMS int64) {
	e.emit(UserChannel(userID), QueryResultsPayload{
		Type:          EventQueryResults,
		QueryID:       queryID,
		Results:       results,
		ExecutionTime: executionTimeMS,
		Timestamp:     e.timestamp(),
	})
}

// QueryInsights delivers generated insight text.
func (e *Emitter) QueryInsights(userID, queryID, insights string) {
	e.emit(UserChannel(userID), QueryInsightsPayload{
		Type:      EventQueryInsights,
		QueryID:   queryID,
		Insights:  insights,
		Timestamp: e.timestamp(),
	})
}

// QueryError announces a fatal pipeline failure.
func (e *Emitter) QueryError(userID, queryID, message string) {
	e.emit(UserChannel(userID), QueryErrorPayload{
		Type:      EventQueryError,
		QueryID:   queryID,
		Error:     message,
		Timestamp: e.timestamp(),
	})
}

// QueryComplete announces completion to the owner and notifies the admin
// channel of the new query.
func (e *Emitter) QueryComplete(userID, queryID string) {
	e.emit(UserChannel(userID), QueryCompletePayload{
		Type:      EventQueryComplete,
		QueryID:   queryID,
		Timestamp: e.timestamp(),
	})
	e.emit(AdminChannel, AdminNewQueryPayload{
		Type:      EventAdminNewQuery,
		UserID:    userID,
		QueryID:   queryID,
		Timestamp: e.timestamp(),
	})
}

// SystemMessage broadcasts an operator message to every connected client.
func (e *Emitter) SystemMessage(message string) {
	data, err := json.Marshal(SystemMessagePayload{
		Type:      EventSystemMessage,
		Message:   message,
		Timestamp: e.timestamp(),
	})
	if err != nil {
		slog.Warn("Failed to marshal system message", "error", err)
		return
	}
	e.bus.BroadcastAll(data)
}
