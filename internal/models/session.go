package models

import "time"

// RequestKind tags one recorded protocol interaction. The numeric values are
// the stable storage encoding.
type RequestKind int

const (
	RequestKindStatus RequestKind = 0
	RequestKindPre    RequestKind = 1
	RequestKindUpload RequestKind = 2
)

func (k RequestKind) String() string {
	switch k {
	case RequestKindStatus:
		return "status"
	case RequestKindPre:
		return "pre-request"
	case RequestKindUpload:
		return "upload"
	default:
		return "unknown"
	}
}

// UploadSession is the persisted correlation between a recording and an
// in-flight protocol exchange. At most one session exists per recording.
type UploadSession struct {
	RecordingID int64
	Location    string
	Time        time.Time
	Tasks       []UploadTask
}

// UploadTask is one entry of a session's append-only protocol log. Entries
// are never mutated after creation and are deleted together with the session.
type UploadTask struct {
	Kind        RequestKind
	HTTPStatus  int
	Message     string
	CausedError bool
	Time        time.Time
}
