package estack

import (
	"errors"
	"strings"
	"testing"

	"github.com/ymniquet/equimage/pkg/epix"
)

const sampleSession = `
clamp: final
operations:
  - kind: colorbalance
    red: 1.2
  - kind: stretch
    curve: gamma
    amount: 0.5
    channels: v
  - kind: negative
    label: invert for inspection
`

func TestSessionFromYaml(t *testing.T) {
	session, err := SessionFromYaml([]byte(sampleSession))
	if err != nil {
		t.Fatal(err)
	}
	if len(session.Operations) != 3 {
		t.Fatalf("got %d operations, want 3", len(session.Operations))
	}
	if session.Clamp != "final" {
		t.Errorf("clamp %q", session.Clamp)
	}

	empty, err := SessionFromYaml([]byte("operations: []"))
	if err != nil {
		t.Fatal(err)
	}
	if empty.Clamp != string(ClampFinal) {
		t.Errorf("default clamp %q, want final", empty.Clamp)
	}
}

func TestSessionBuildStackReplays(t *testing.T) {
	session, err := SessionFromYaml([]byte(sampleSession))
	if err != nil {
		t.Fatal(err)
	}

	base := flatBuffer(t, 4, 4, 0.25)
	stack, err := session.BuildStack(base)
	if err != nil {
		t.Fatal(err)
	}
	if stack.Cursor() != 3 {
		t.Fatalf("cursor %d, want 3", stack.Cursor())
	}

	entries := stack.ExportLog()
	if entries[2].Label != "invert for inspection" {
		t.Errorf("custom label lost: %q", entries[2].Label)
	}

	// Replaying the same session again must give the same pixels.
	again, err := session.BuildStack(base)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := stack.Current()
	b, _ := again.Current()
	if !a.EqualWithin(b, 0) {
		t.Error("two replays of the same session disagree")
	}
}

func TestOpSpecDefaults(t *testing.T) {
	// An omitted channel factor means "leave that channel alone".
	op, err := OpSpec{Kind: "colorbalance", Red: 2}.Build(4, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	in := flatBuffer(t, 4, 4, 0.2)
	out, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if v := out.Get(0, 0, 0); !almost(v, 0.4) {
		t.Errorf("red %f, want 0.4", v)
	}
	if v := out.Get(0, 0, 1); !almost(v, 0.2) {
		t.Errorf("green %f, want default-untouched 0.2", v)
	}
}

func TestOpSpecUnknownKind(t *testing.T) {
	if _, err := (OpSpec{Kind: "warp"}).Build(4, 4, nil); err == nil {
		t.Fatal("unknown kind built successfully")
	}
}

func TestOpSpecMask(t *testing.T) {
	spec := OpSpec{Kind: "negative", Mask: MaskSpec{Border: 1}}
	op, err := spec.Build(6, 6, nil)
	if err != nil {
		t.Fatal(err)
	}
	if op.Mask == nil {
		t.Fatal("mask spec produced no mask")
	}
	if w := op.Mask.Weight(0, 0); w != 0 {
		t.Errorf("border weight %f, want 0", w)
	}
	if w := op.Mask.Weight(3, 3); w != 1 {
		t.Errorf("interior weight %f, want 1", w)
	}
}

func TestOpSpecRejectsInvalidMaskGeometry(t *testing.T) {
	cases := []struct {
		name string
		mask MaskSpec
	}{
		{"negative radius", MaskSpec{Radius: -5}},
		{"negative radius inverted", MaskSpec{Radius: -5, Invert: true}},
		{"negative border", MaskSpec{Border: -1}},
		{"invert without a shape", MaskSpec{Invert: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := OpSpec{Kind: "negative", Mask: tc.mask}
			if _, err := spec.Build(8, 8, nil); !errors.Is(err, epix.ErrInvalidParameters) {
				t.Errorf("got %v, want ErrInvalidParameters", err)
			}
		})
	}
}

func TestSessionYamlRoundTrip(t *testing.T) {
	session, err := SessionFromYaml([]byte(sampleSession))
	if err != nil {
		t.Fatal(err)
	}
	out := session.AsYaml()
	if !strings.Contains(out, "colorbalance") {
		t.Errorf("serialized session missing op kind:\n%s", out)
	}

	back, err := SessionFromYaml([]byte(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Operations) != len(session.Operations) {
		t.Errorf("round trip lost operations: %d -> %d", len(session.Operations), len(back.Operations))
	}
}

func TestStackLogExportsAsSessionYaml(t *testing.T) {
	s, _ := FromBase(flatBuffer(t, 2, 2, 0.5))
	s.Append(balanceOp(t, 1.2))

	out := s.AsYaml()
	if !strings.Contains(out, "colorbalance") || !strings.Contains(out, "clamp") {
		t.Errorf("log yaml incomplete:\n%s", out)
	}

	text := s.AsText()
	if !strings.Contains(text, "color balance") {
		t.Errorf("log text missing label:\n%s", text)
	}
}
