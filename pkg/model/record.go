package model

import "strings"

// MinRecordLength is the padding threshold of the host store. Records whose
// value is not longer than this are placeholders and never processed.
const MinRecordLength = 100

const (
	// DialogMetadataPrefix starts every dialog metadata key
	DialogMetadataPrefix = "composerData:"
	// MessageRecordPrefix starts every message key
	MessageRecordPrefix = "bubbleId:"
)

// RawRecord is one (key, value) pair of the global record table
type RawRecord struct {
	Key   string
	Size  int
	Value []byte
}

// NewRawRecord creates a RawRecord with Size set from value
func NewRawRecord(key string, value []byte) *RawRecord {
	return &RawRecord{
		Key:   key,
		Size:  len(value),
		Value: value,
	}
}

// Eligible reports whether the record passes the padding threshold
func (r *RawRecord) Eligible() bool {
	return r != nil && r.Size > MinRecordLength
}

// DialogMetadataKey returns the global table key of a dialog's metadata record
func DialogMetadataKey(id DialogID) string {
	return DialogMetadataPrefix + string(id)
}

// MessageKey returns the global table key of a single message record
func MessageKey(dialogID DialogID, messageID MessageID) string {
	return MessageRecordPrefix + string(dialogID) + ":" + string(messageID)
}

// MessageKeyPrefix returns the key prefix shared by all messages of a dialog
func MessageKeyPrefix(dialogID DialogID) string {
	return MessageRecordPrefix + string(dialogID) + ":"
}

// IsMessageKey reports whether key names a message record
func IsMessageKey(key string) bool {
	return strings.HasPrefix(key, MessageRecordPrefix)
}

// ParseMessageKey splits a message key into dialog and message ids
func ParseMessageKey(key string) (DialogID, MessageID, bool) {
	rest, ok := strings.CutPrefix(key, MessageRecordPrefix)
	if !ok {
		return "", "", false
	}
	dialogID, messageID, found := strings.Cut(rest, ":")
	if dialogID == "" {
		return "", "", false
	}
	if !found {
		return DialogID(dialogID), "", true
	}
	return DialogID(dialogID), MessageID(messageID), true
}
