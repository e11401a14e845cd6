// Package events provides real-time delivery of query pipeline stage events
// over WebSocket. Delivery is fire-and-forget and at-most-once: events are
// never persisted or queued for offline clients, and a client that misses an
// event recovers by reloading state over REST.
package events

// Event types carried in the "type" field of every payload.
const (
	EventQueryStart     = "query:start"
	EventSQLGenerated   = "query:sql-generated"
	EventQueryExecuting = "query:executing"
	EventQueryResults   = "query:results"
	EventQueryInsights  = "query:insights"
	EventQueryError     = "query:error"
	EventQueryComplete  = "query:complete"
	EventAdminNewQuery  = "admin:new-query"
	EventSystemMessage  = "system:message"
)

// AdminChannel is the shared channel admin connections join in addition to
// their own user channel.
const AdminChannel = "admin"

// UserChannel returns the channel name for one user's connections.
// Format: "user:{user_id}"
func UserChannel(userID string) string {
	return "user:" + userID
}

// ClientMessage is the JSON structure for client-to-server messages. The
// protocol is intentionally small: connections are subscribed at admission
// based on their verified identity, so clients only ever ping.
type ClientMessage struct {
	Action string `json:"action"` // "ping"
}
