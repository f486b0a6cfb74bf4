package types

// BroadcastResult is the node's response to a submitted transaction.
type BroadcastResult struct {
	Height int64  `json:"height,string,omitempty"`
	TxHash string `json:"txhash"`
	Code   uint32 `json:"code,omitempty"`
	RawLog string `json:"raw_log,omitempty"`
	Logs   []Log  `json:"logs,omitempty"`
	// Data is the hex encoded transaction result data.
	Data string `json:"data,omitempty"`
}

// IsSuccess returns true iff the transaction was accepted.
func (r *BroadcastResult) IsSuccess() bool {
	return r.Code == 0
}

// Log is the log of a single message within a transaction.
type Log struct {
	MsgIndex int     `json:"msg_index"`
	Log      string  `json:"log"`
	Events   []Event `json:"events,omitempty"`
}

// Event is an event emitted while executing a message.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute is a single key/value pair of an event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// FindEvent returns the first event of the given type in the given message log.
func FindEvent(logs []Log, msgIndex int, typ string) *Event {
	for i := range logs {
		if logs[i].MsgIndex != msgIndex {
			continue
		}
		for j := range logs[i].Events {
			if logs[i].Events[j].Type == typ {
				return &logs[i].Events[j]
			}
		}
	}
	return nil
}

// FindAttribute returns the value of the first attribute with the given key.
func (ev *Event) FindAttribute(key string) (string, bool) {
	for _, attr := range ev.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}
