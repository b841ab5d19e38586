package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/shopspring/decimal"
)

type fakeChatModel struct {
	content string
	err     error
	calls   int
	inputs  [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.calls++
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.content}, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New([]Item{
		{Name: "A4 paper", UnitPrice: decimal.RequireFromString("0.05")},
		{Name: "Pens", UnitPrice: decimal.RequireFromString("0.10")},
		{Name: "Crepe paper", UnitPrice: decimal.RequireFromString("0.05")},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func newTestMatcher(t *testing.T, fake *fakeChatModel) *Matcher {
	t.Helper()
	m, err := NewMatcher(context.Background(), testCatalog(t), fake, "match prompt")
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}
	return m
}

func TestMapExactAndCaseInsensitiveSkipModel(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{}
	m := newTestMatcher(t, fake)

	got := m.Map(context.Background(), []string{"A4 paper", " pens "})
	if fake.calls != 0 {
		t.Fatalf("expected no model call, got %d", fake.calls)
	}
	if got[0].Name != "A4 paper" || got[0].Method != MatchExact {
		t.Fatalf("unexpected first resolution: %#v", got[0])
	}
	if got[1].Name != "Pens" || got[1].Method != MatchCaseInsensitive {
		t.Fatalf("unexpected second resolution: %#v", got[1])
	}
	if got[1].Term != " pens " {
		t.Fatalf("term must be kept verbatim, got %q", got[1].Term)
	}
}

func TestMapEmptyTermsSkipsModel(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{}
	m := newTestMatcher(t, fake)

	got := m.Map(context.Background(), nil)
	if len(got) != 0 {
		t.Fatalf("expected empty mapping, got %#v", got)
	}
	if fake.calls != 0 {
		t.Fatalf("expected no model call, got %d", fake.calls)
	}
}

func TestMapUsesModelForUnknownTerms(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{
		content: "Sure!\n```json\n{\"printer paper\": \"A4 paper\", \"streamers\": \"crepe paper\"}\n```",
	}
	m := newTestMatcher(t, fake)

	got := m.Map(context.Background(), []string{"printer paper", "Pens", "streamers"})
	if fake.calls != 1 {
		t.Fatalf("expected one model call, got %d", fake.calls)
	}
	if !got[0].Resolved || got[0].Name != "A4 paper" || got[0].Method != MatchModel {
		t.Fatalf("unexpected printer paper resolution: %#v", got[0])
	}
	if got[1].Method != MatchExact {
		t.Fatalf("unexpected pens resolution: %#v", got[1])
	}
	if got[2].Name != "Crepe paper" {
		t.Fatalf("model answer must be normalised to the canonical name, got %#v", got[2])
	}

	user := fake.inputs[0][len(fake.inputs[0])-1].Content
	if !strings.Contains(user, "printer paper") || !strings.Contains(user, "streamers") {
		t.Fatalf("unexpected model input: %s", user)
	}
}

func TestMapRejectsNamesOutsideCatalog(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{content: `{"balloons": "Party balloons", "glue": "Product Not Found"}`}
	m := newTestMatcher(t, fake)

	got := m.Map(context.Background(), []string{"balloons", "glue"})
	for _, r := range got {
		if r.Resolved {
			t.Fatalf("expected %q unresolved, got %#v", r.Term, r)
		}
		if r.Display() != NotFound {
			t.Fatalf("unexpected display: %s", r.Display())
		}
	}
}

func TestMapFailSoftOnModelError(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{err: errors.New("upstream timeout")}
	m := newTestMatcher(t, fake)

	got := m.Map(context.Background(), []string{"printer paper", "A4 paper"})
	if got[0].Resolved {
		t.Fatalf("expected unresolved on model error, got %#v", got[0])
	}
	if !got[1].Resolved {
		t.Fatal("deterministic match must survive a model error")
	}
}

func TestMapFailSoftOnGarbage(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{content: "I could not find anything, sorry."}
	m := newTestMatcher(t, fake)

	got := m.Map(context.Background(), []string{"printer paper"})
	if got[0].Resolved {
		t.Fatalf("expected unresolved on garbage, got %#v", got[0])
	}
}

func TestMapDuplicateTermsResolveIndependently(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{content: `{"printer paper": "A4 paper"}`}
	m := newTestMatcher(t, fake)

	got := m.Map(context.Background(), []string{"printer paper", "printer paper"})
	if len(got) != 2 {
		t.Fatalf("expected two resolutions, got %d", len(got))
	}
	for _, r := range got {
		if r.Name != "A4 paper" {
			t.Fatalf("unexpected resolution: %#v", r)
		}
	}
}

func TestFirstJSONObject(t *testing.T) {
	t.Parallel()

	obj, err := FirstJSONObject(`noise {broken {"a": "b"} tail {"c": "d"}`)
	if err != nil {
		t.Fatalf("FirstJSONObject() error = %v", err)
	}
	if obj["a"] != "b" {
		t.Fatalf("unexpected object: %#v", obj)
	}

	if _, err := FirstJSONObject("no braces here"); !errors.Is(err, ErrNoJSONObject) {
		t.Fatalf("expected ErrNoJSONObject, got %v", err)
	}
}
