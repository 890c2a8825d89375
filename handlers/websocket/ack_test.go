package websocket

import (
	"errors"
	"testing"

	"cardstudio/interaction"

	"github.com/google/go-cmp/cmp"
)

func TestExtractAck(t *testing.T) {
	var got []any
	callback := func(args []any, _ error) { got = args }

	ack, args := extractAck([]any{"card", callback})
	if ack == nil {
		t.Fatal("extractAck() found no callback")
	}
	if diff := cmp.Diff([]any{"card"}, args); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}

	ack(errorPayload(errors.New("boom")))
	want := []any{map[string]any{"status": "error", "error": "boom"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ack args (-want +got):\n%s", diff)
	}

	if ack, args := extractAck([]any{"card"}); ack != nil || len(args) != 1 {
		t.Errorf("extractAck() without callback = (%v, %v)", ack != nil, args)
	}
	if ack, args := extractAck([]any{"card", func(...any) {}}); ack != nil || len(args) != 2 {
		t.Errorf("extractAck() took a non-ack func: (%v, %v)", ack != nil, args)
	}
	if ack, _ := extractAck(nil); ack != nil {
		t.Error("extractAck(nil) found a callback")
	}
}

func TestRespondWithAck(t *testing.T) {
	out := &recorder{}
	var acked []any
	ack, _ := extractAck([]any{func(args []any, _ error) { acked = args }})

	payload := map[string]any{"status": "ok"}
	respondWithAck(out, ack, "join-card-ack", payload)
	if diff := cmp.Diff([]any{payload}, acked); diff != "" {
		t.Errorf("ack args (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{payload}, out.of("join-card-ack")); diff != "" {
		t.Errorf("emitted (-want +got):\n%s", diff)
	}

	respondWithAck(out, nil, "", payload)
	if got := len(out.events); got != 1 {
		t.Errorf("respondWithAck() without event emitted; %d events", got)
	}
}

func TestDecodeArgs(t *testing.T) {
	var down PointerDown
	err := decodeArgs([]any{map[string]any{
		"target":    map[string]any{"kind": "decoration", "id": "d1"},
		"action":    "rotate",
		"pointer":   map[string]any{"x": 3.5, "y": 4},
		"cardWidth": 800,
		"pivot":     map[string]any{"x": 1, "y": 2},
	}}, &down)
	if err != nil {
		t.Fatalf("decodeArgs() failed: %v", err)
	}

	want := PointerDown{
		Target:    interaction.Target{Kind: interaction.TargetDecoration, DecorationID: "d1"},
		Action:    interaction.ActionRotate,
		Pointer:   interaction.Point{X: 3.5, Y: 4},
		CardWidth: 800,
		Pivot:     &interaction.Point{X: 1, Y: 2},
	}
	if diff := cmp.Diff(want, down); diff != "" {
		t.Errorf("decoded (-want +got):\n%s", diff)
	}

	if err := decodeArgs(nil, &down); err == nil {
		t.Error("decodeArgs(nil) succeeded")
	}
	if err := decodeArgs([]any{"not an object"}, &down); err == nil {
		t.Error("decodeArgs(string) succeeded")
	}
}
