package persistence

import (
	"time"
)

func createEvent(
	eventType IndexEventType,
	operation string,
	collectionName string,
	input any,
	output any,
	err *string,
	startTime time.Time,
) IndexEvent {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}

	collectionNamePtr := &collectionName

	return IndexEvent{
		Type:       eventType,
		Timestamp:  time.Now().UnixMilli(),
		Operation:  operation,
		Collection: collectionNamePtr,
		Input:      input,
		Output:     output,
		Error:      err,
		Duration:   duration,
	}
}
