// Package celery produces messages in the Celery protocol v2 wire format and
// pushes them onto the shared Redis list the worker fleet consumes. The
// encoding is a compatibility contract with an independently versioned worker
// protocol: compatibility, not aesthetics, is the requirement here.
package celery

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Message is a fully specified job message. Once constructed it is immutable
// and has exactly one wire encoding (JSON object keys are emitted sorted).
type Message struct {
	TaskName string
	Args     []any
	// ID is the task id; it doubles as root_id and correlation_id.
	ID        string
	RequestID string
	UserID    string
	// ExtraHeaders carries task-specific correlation fields. They are merged
	// into the headers last so they can shadow generic defaults.
	ExtraHeaders map[string]any
	Queue        string
	ReplyTo      string
	DeliveryTag  string
}

// Encode serializes msg into the exact byte format the workers expect:
// a JSON envelope whose body is the base64 of the JSON-encoded
// [args, kwargs, embed] triple. Any serialization failure aborts the dispatch;
// there is no partial encoding.
func Encode(msg Message) ([]byte, error) {
	args := msg.Args
	if args == nil {
		args = []any{}
	}

	// The workers require the embed keys to exist even when unused.
	embed := map[string]any{
		"callbacks": nil,
		"errbacks":  nil,
		"chain":     nil,
		"chord":     nil,
	}
	body := []any{args, map[string]any{}, embed}
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode task body for %s: %w", msg.TaskName, err)
	}
	bodyB64 := base64.StdEncoding.EncodeToString(bodyJSON)

	// lang is fixed to "py": the workers only accept messages tagged with
	// their own protocol language.
	headers := map[string]any{
		"lang":       "py",
		"task":       msg.TaskName,
		"id":         msg.ID,
		"root_id":    msg.ID,
		"parent_id":  nil,
		"group":      nil,
		"retries":    0,
		"timelimit":  []any{nil, nil},
		"argsrepr":   fmt.Sprintf("%v", args),
		"kwargsrepr": "{}",
		"request_id": msg.RequestID,
	}
	if msg.UserID != "" {
		headers["user_id"] = msg.UserID
	}
	for k, v := range msg.ExtraHeaders {
		if k == "" || v == nil {
			continue
		}
		headers[k] = v
	}

	properties := map[string]any{
		"correlation_id": msg.ID,
		"reply_to":       msg.ReplyTo,
		"delivery_mode":  2,
		"delivery_tag":   msg.DeliveryTag,
		"priority":       0,
		"body_encoding":  "base64",
		"delivery_info": map[string]any{
			"exchange":    "",
			"routing_key": msg.Queue,
		},
	}

	envelope := map[string]any{
		"body":             bodyB64,
		"content-encoding": "utf-8",
		"content-type":     "application/json",
		"headers":          headers,
		"properties":       properties,
	}
	out, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode task envelope for %s: %w", msg.TaskName, err)
	}
	return out, nil
}
