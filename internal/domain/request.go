package domain

import (
	"encoding/json"
	"time"
)

// Submission is the record a caller pushes onto the durable ingress queue.
// SubmittedAt is the caller's clock and only feeds the caller's own deadline.
type Submission struct {
	ID          string         `json:"id"`
	Operation   string         `json:"operation"`
	UserID      *int64         `json:"user_id,omitempty"`
	Arguments   map[string]any `json:"arguments"`
	SubmittedAt time.Time      `json:"submission_time"`
}

// ScheduledRequest is a Submission lifted into the scheduler.
type ScheduledRequest struct {
	ID           string
	Operation    string
	UserID       *int64
	Arguments    map[string]any
	SubmittedAt  time.Time
	ArrivalTime  time.Time
	BasePriority int
}

func NewScheduledRequest(s Submission, basePriority int, arrival time.Time) ScheduledRequest {
	args := s.Arguments
	if args == nil {
		args = map[string]any{}
	}
	return ScheduledRequest{
		ID:           s.ID,
		Operation:    s.Operation,
		UserID:       s.UserID,
		Arguments:    args,
		SubmittedAt:  s.SubmittedAt,
		ArrivalTime:  arrival,
		BasePriority: basePriority,
	}
}

// Credentials are the upstream api keys of one account.
type Credentials struct {
	AccessID  string
	SecretKey string
}

func (c Credentials) Empty() bool { return c.AccessID == "" || c.SecretKey == "" }

type ResultStatus string

const (
	StatusOK   ResultStatus = "ok"
	StatusFail ResultStatus = "fail"
)

type FailureKind string

const (
	KindCredentialResolution FailureKind = "credential_resolution_failure"
	KindUpstreamExecution    FailureKind = "upstream_execution_failure"
	KindUnknownOperation     FailureKind = "unknown_operation"
	KindTimeout              FailureKind = "timeout"
)

type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"msg"`
	Code    int         `json:"code,omitempty"`
}

// Result is written exactly once per dispatched request.
type Result struct {
	Status ResultStatus    `json:"status"`
	Data   json.RawMessage `json:"data"`
	Errors []Failure       `json:"errors"`
}

func Success(data json.RawMessage) Result {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return Result{Status: StatusOK, Data: data, Errors: []Failure{}}
}

func Failed(kind FailureKind, msg string, code int) Result {
	return Result{
		Status: StatusFail,
		Data:   json.RawMessage("null"),
		Errors: []Failure{{Kind: kind, Message: msg, Code: code}},
	}
}

func (r Result) OK() bool { return r.Status == StatusOK }

// Kind returns the failure kind of a failed result, or "" on success.
func (r Result) Kind() FailureKind {
	if r.OK() || len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Kind
}
