package builtin

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
)

func TestUserInteractionRequestThenHandleResponse(t *testing.T) {
	thoughts := thought.NewStore()
	ui := NewUserInteraction(thoughts)
	spec := ui.Tool()

	parent := thought.New(thought.KindStrategy, term.Atom("clarify"), uuid.Nil, uuid.Nil)
	thoughts.Add(parent)

	request, err := spec.Handler(context.Background(), map[string]interface{}{"prompt": "which city?"}, parent, "agent-1")
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if request.Status != thought.StatusWaiting {
		t.Fatalf("request status = %v, want WAITING", request.Status)
	}
	// The handler itself does not persist the request; the executor
	// does after running the tool call, so a direct caller (this test)
	// must add it to exercise HandleResponse/Cancel/GetPending against
	// the store they all share.
	thoughts.Add(request)

	pending := ui.GetPending()
	if len(pending) != 1 || pending[0].ID != request.ID {
		t.Fatalf("GetPending = %+v, want [request]", pending)
	}

	response, ok := ui.HandleResponse(request.ID, "paris")
	if !ok {
		t.Fatal("expected HandleResponse to correlate the known request")
	}
	if response.Kind != thought.KindInput || response.Content.String() != "paris" {
		t.Errorf("response = %+v, want an INPUT thought with content paris", response)
	}
	if response.Metadata.AnsweredPromptID != request.ID {
		t.Errorf("answered_prompt_id = %v, want %v", response.Metadata.AnsweredPromptID, request.ID)
	}

	got, _ := thoughts.Get(request.ID)
	if got.Status != thought.StatusDone {
		t.Fatalf("request status = %v, want DONE after response", got.Status)
	}
	if got.Metadata.ResponseThoughtID != response.ID {
		t.Errorf("response_thought_id = %v, want %v", got.Metadata.ResponseThoughtID, response.ID)
	}
}

func TestUserInteractionHandleResponseUnknownRequestNoOps(t *testing.T) {
	thoughts := thought.NewStore()
	ui := NewUserInteraction(thoughts)

	_, ok := ui.HandleResponse(uuid.New(), "anything")
	if ok {
		t.Fatal("expected HandleResponse to report false for an unknown request id")
	}
}

func TestUserInteractionCancelFailsRequest(t *testing.T) {
	thoughts := thought.NewStore()
	ui := NewUserInteraction(thoughts)
	spec := ui.Tool()

	parent := thought.New(thought.KindStrategy, term.Atom("clarify"), uuid.Nil, uuid.Nil)
	thoughts.Add(parent)
	request, _ := spec.Handler(context.Background(), map[string]interface{}{"prompt": "which city?"}, parent, "")
	thoughts.Add(request)

	ui.Cancel(request.ID, "user gave up")

	got, _ := thoughts.Get(request.ID)
	if got.Status != thought.StatusFailed {
		t.Fatalf("status = %v, want FAILED after cancel", got.Status)
	}
	if len(ui.GetPending()) != 0 {
		t.Error("expected no pending requests after cancel")
	}
}
