package events

import "testing"

type stubEvent string

func (s stubEvent) EventType() string { return string(s) }

func TestRecorderCollectsInOrder(t *testing.T) {
	rec := &Recorder{}
	rec.Emit(stubEvent("loans.minted"))
	rec.Emit(stubEvent("loans.borrowed"))

	types := rec.Types()
	if len(types) != 2 || types[0] != "loans.minted" || types[1] != "loans.borrowed" {
		t.Fatalf("types = %v, want [loans.minted loans.borrowed]", types)
	}

	rec.Reset()
	if len(rec.Events) != 0 {
		t.Fatalf("events after reset = %v, want empty", rec.Events)
	}
}

func TestNoopEmitterAcceptsNil(t *testing.T) {
	NoopEmitter{}.Emit(nil)
}
