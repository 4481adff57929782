package config

import "fmt"

type ChannelKeyStruct struct{}

func NewChannelKeyStruct() *ChannelKeyStruct {
	return &ChannelKeyStruct{}
}

// ExamViolationChannel returns the Redis Pub/Sub channel carrying live
// violation events for one exam session. The SSE monitor subscribes here.
func (r *ChannelKeyStruct) ExamViolationChannel(examSessionID string) string {
	return fmt.Sprintf("exam_session:%s:violations", examSessionID)
}

var ChannelKey = NewChannelKeyStruct()
