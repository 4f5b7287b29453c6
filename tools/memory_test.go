package tools_test

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/recallhq/recall-go-sdk/core"
	"github.com/recallhq/recall-go-sdk/memory"
	"github.com/recallhq/recall-go-sdk/memory/embedder/mock"
	"github.com/recallhq/recall-go-sdk/memory/store/hybrid"
	"github.com/recallhq/recall-go-sdk/tools"
)

func newManager(t *testing.T) *memory.Manager {
	t.Helper()
	logger := log.New(io.Discard)
	store, err := hybrid.Open(filepath.Join(t.TempDir(), "mem.db"), logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return memory.NewManager(store, mock.New(64), core.Default(), logger)
}

func findCapability(t *testing.T, caps []core.Capability, name string) core.Capability {
	t.Helper()
	for _, c := range caps {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("capability %s not defined", name)
	return core.Capability{}
}

func TestRememberRecallForget(t *testing.T) {
	mgr := newManager(t)
	caps := tools.MemoryCapabilities(mgr)
	ctx := context.Background()

	remember := findCapability(t, caps, "remember")
	out, err := remember.Handler(ctx, &core.CallParams{Input: map[string]interface{}{
		"content": "the production database lives in eu-west-1",
		"kind":    "fragment",
	}})
	if err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	stored := out.(map[string]interface{})
	if stored["stored"] != true {
		t.Fatalf("remember did not store: %v", stored)
	}
	id, ok := stored["id"].(string)
	if !ok || id == "" {
		t.Fatalf("remember returned no id: %v", stored)
	}

	recall := findCapability(t, caps, "recall")
	out, err = recall.Handler(ctx, &core.CallParams{Input: map[string]interface{}{
		"query": "where is the production database",
	}})
	if err != nil {
		t.Fatalf("recall failed: %v", err)
	}
	memories := out.(map[string]interface{})["memories"].(string)
	if !strings.Contains(memories, "eu-west-1") {
		t.Errorf("recall output %q is missing the stored memory", memories)
	}

	forget := findCapability(t, caps, "forget")
	if _, err := forget.Handler(ctx, &core.CallParams{Input: map[string]interface{}{"id": id}}); err != nil {
		t.Fatalf("forget failed: %v", err)
	}
	if _, err := mgr.Store().GetByID(ctx, id); err == nil {
		t.Error("entry survived forget")
	}
}

func TestRememberReportsDuplicateSummaries(t *testing.T) {
	mgr := newManager(t)
	remember := findCapability(t, tools.MemoryCapabilities(mgr), "remember")
	ctx := context.Background()

	input := map[string]interface{}{
		"content": "the customer renewed their contract for another year",
		"kind":    "conversation-summary",
	}
	if _, err := remember.Handler(ctx, &core.CallParams{Input: input}); err != nil {
		t.Fatalf("first remember failed: %v", err)
	}

	out, err := remember.Handler(ctx, &core.CallParams{Input: input})
	if err != nil {
		t.Fatalf("second remember failed: %v", err)
	}
	result := out.(map[string]interface{})
	if result["stored"] != false {
		t.Fatalf("duplicate summary was stored: %v", result)
	}
	dups, ok := result["duplicates"].([]string)
	if !ok || len(dups) == 0 {
		t.Fatalf("duplicates not reported: %v", result)
	}
}

func TestRememberRejectsMissingContent(t *testing.T) {
	mgr := newManager(t)
	remember := findCapability(t, tools.MemoryCapabilities(mgr), "remember")

	if _, err := remember.Handler(context.Background(), &core.CallParams{Input: map[string]interface{}{}}); err == nil {
		t.Fatal("expected missing content to be rejected")
	}
}

func TestRecallRejectsBadBudget(t *testing.T) {
	mgr := newManager(t)
	recall := findCapability(t, tools.MemoryCapabilities(mgr), "recall")

	_, err := recall.Handler(context.Background(), &core.CallParams{Input: map[string]interface{}{
		"query":  "anything",
		"budget": "lots",
	}})
	if err == nil {
		t.Fatal("expected non-numeric budget to be rejected")
	}
}
