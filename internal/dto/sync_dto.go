package dto

// SyncEvent is pushed to websocket subscribers of Topic.
type SyncEvent struct {
	Type  string      `json:"type"`
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
}

// SyncCommand is sent by websocket clients.
type SyncCommand struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}
