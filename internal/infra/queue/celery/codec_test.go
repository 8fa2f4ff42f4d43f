package celery

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func baseMessage() Message {
	return Message{
		TaskName:     TaskAnalyzeVideo,
		Args:         []any{"p-1", "a-1", "https://cdn/clip.mp4"},
		ID:           "11111111-1111-4111-8111-111111111111",
		RequestID:    "req-1",
		UserID:       "42",
		ExtraHeaders: map[string]any{"project_id": "p-1", "asset_id": "a-1"},
		Queue:        "celery",
		ReplyTo:      "22222222-2222-4222-8222-222222222222",
		DeliveryTag:  "33333333-3333-4333-8333-333333333333",
	}
}

func decodeEnvelope(t *testing.T, payload []byte) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("envelope is not valid JSON: %v", err)
	}
	return env
}

func TestEncode_BodyRoundTrip(t *testing.T) {
	payload, err := Encode(baseMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := decodeEnvelope(t, payload)

	raw, err := base64.StdEncoding.DecodeString(env["body"].(string))
	if err != nil {
		t.Fatalf("body is not valid base64: %v", err)
	}
	var body []any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decoded body is not valid JSON: %v", err)
	}
	if len(body) != 3 {
		t.Fatalf("expected 3-element body, got %d", len(body))
	}

	args, ok := body[0].([]any)
	if !ok || len(args) != 3 {
		t.Fatalf("expected 3 positional args, got %#v", body[0])
	}
	if args[0] != "p-1" || args[1] != "a-1" || args[2] != "https://cdn/clip.mp4" {
		t.Errorf("args round-trip mismatch: %#v", args)
	}

	kwargs, ok := body[1].(map[string]any)
	if !ok || len(kwargs) != 0 {
		t.Errorf("expected empty kwargs mapping, got %#v", body[1])
	}

	embed, ok := body[2].(map[string]any)
	if !ok {
		t.Fatalf("expected embed mapping, got %#v", body[2])
	}
	for _, key := range []string{"callbacks", "errbacks", "chain", "chord"} {
		v, present := embed[key]
		if !present {
			t.Errorf("embed is missing required key %q", key)
		}
		if v != nil {
			t.Errorf("embed key %q should be null, got %#v", key, v)
		}
	}
}

func TestEncode_HeaderCompleteness(t *testing.T) {
	payload, err := Encode(baseMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := decodeEnvelope(t, payload)

	if env["content-encoding"] != "utf-8" {
		t.Errorf("content-encoding = %v", env["content-encoding"])
	}
	if env["content-type"] != "application/json" {
		t.Errorf("content-type = %v", env["content-type"])
	}

	headers, ok := env["headers"].(map[string]any)
	if !ok {
		t.Fatal("headers missing")
	}
	for _, key := range []string{"lang", "task", "id", "root_id", "parent_id", "group", "retries", "timelimit", "argsrepr", "kwargsrepr", "request_id"} {
		if _, present := headers[key]; !present {
			t.Errorf("headers missing required key %q", key)
		}
	}
	if headers["lang"] != "py" {
		t.Errorf("lang = %v, want py", headers["lang"])
	}
	if headers["task"] != TaskAnalyzeVideo {
		t.Errorf("task = %v", headers["task"])
	}
	if headers["id"] != headers["root_id"] {
		t.Errorf("root_id %v should equal id %v", headers["root_id"], headers["id"])
	}
	if headers["parent_id"] != nil || headers["group"] != nil {
		t.Errorf("parent_id/group should be null")
	}
	if headers["retries"] != float64(0) {
		t.Errorf("retries = %v", headers["retries"])
	}
	tl, ok := headers["timelimit"].([]any)
	if !ok || len(tl) != 2 || tl[0] != nil || tl[1] != nil {
		t.Errorf("timelimit = %#v, want [null, null]", headers["timelimit"])
	}
	if headers["kwargsrepr"] != "{}" {
		t.Errorf("kwargsrepr = %v", headers["kwargsrepr"])
	}
	if headers["request_id"] != "req-1" {
		t.Errorf("request_id = %v", headers["request_id"])
	}
	if headers["user_id"] != "42" {
		t.Errorf("user_id = %v", headers["user_id"])
	}
	// task correlation fields merged last
	if headers["project_id"] != "p-1" || headers["asset_id"] != "a-1" {
		t.Errorf("task headers not merged: %#v", headers)
	}
}

func TestEncode_Properties(t *testing.T) {
	msg := baseMessage()
	payload, err := Encode(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := decodeEnvelope(t, payload)

	props, ok := env["properties"].(map[string]any)
	if !ok {
		t.Fatal("properties missing")
	}
	if props["correlation_id"] != msg.ID {
		t.Errorf("correlation_id = %v, want %v", props["correlation_id"], msg.ID)
	}
	if props["reply_to"] != msg.ReplyTo {
		t.Errorf("reply_to = %v", props["reply_to"])
	}
	if props["delivery_mode"] != float64(2) {
		t.Errorf("delivery_mode = %v, want 2", props["delivery_mode"])
	}
	if props["delivery_tag"] != msg.DeliveryTag {
		t.Errorf("delivery_tag = %v", props["delivery_tag"])
	}
	if props["priority"] != float64(0) {
		t.Errorf("priority = %v, want 0", props["priority"])
	}
	if props["body_encoding"] != "base64" {
		t.Errorf("body_encoding = %v", props["body_encoding"])
	}
	di, ok := props["delivery_info"].(map[string]any)
	if !ok {
		t.Fatal("delivery_info missing")
	}
	if di["exchange"] != "" {
		t.Errorf("exchange = %v, want empty", di["exchange"])
	}
	if di["routing_key"] != "celery" {
		t.Errorf("routing_key = %v, want queue name", di["routing_key"])
	}
}

func TestEncode_Deterministic(t *testing.T) {
	msg := baseMessage()
	a, err := Encode(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Encode(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(a) != string(b) {
		t.Error("encoding the same message twice produced different bytes")
	}
}

func TestEncode_OmitsUserIDWhenAbsent(t *testing.T) {
	msg := baseMessage()
	msg.UserID = ""
	payload, err := Encode(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	headers := decodeEnvelope(t, payload)["headers"].(map[string]any)
	if _, present := headers["user_id"]; present {
		t.Error("user_id should be omitted when no user is known")
	}
}

func TestEncode_UnserializableArgFails(t *testing.T) {
	msg := baseMessage()
	msg.Args = []any{make(chan int)}
	if _, err := Encode(msg); err == nil {
		t.Fatal("expected an error for an unserializable argument")
	}
}

func TestTaskArgOrder(t *testing.T) {
	analyze := AnalyzeAssetTask{ProjectID: "p", AssetID: "a", VideoURL: "v"}
	got := analyze.Args()
	if got[0] != "p" || got[1] != "a" || got[2] != "v" {
		t.Errorf("analyze args out of order: %#v", got)
	}

	render := RenderPipelineTask{ProjectID: "p", Script: "s", Assets: []RenderAsset{{ID: "a"}}}
	args := render.Args()
	if len(args) != 4 {
		t.Fatalf("render should pass 4 args, got %d", len(args))
	}
	if args[3] != nil {
		t.Errorf("empty bgm url should encode as null, got %#v", args[3])
	}

	script := GenerateScriptTask{ProjectID: "p"}
	if js, err := json.Marshal(script.Args()); err != nil {
		t.Fatalf("empty house info must stay serializable: %v", err)
	} else if string(js) != `["p",null,[]]` && string(js) != `["p",null,null]` {
		t.Errorf("unexpected script args encoding: %s", js)
	}
}
