package plan

import (
	"errors"
	"testing"
)

func TestLookup_ReturnsCopy(t *testing.T) {
	tpl, err := Lookup("weight_loss_short")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	want := tpl.Days[1][SlotMorning]
	wantPrecaution := tpl.Precautions[0]

	tpl.Days[1][SlotMorning] = "changed"
	tpl.Days[2] = nil
	tpl.Precautions[0] = "changed"

	again, err := Lookup("weight_loss_short")
	if err != nil {
		t.Fatalf("lookup again: %v", err)
	}
	if got := again.Days[1][SlotMorning]; got != want {
		t.Errorf("day 1 morning = %q, want %q", got, want)
	}
	if again.Days[2] == nil {
		t.Error("day 2 was removed from the catalogue")
	}
	if again.Precautions[0] != wantPrecaution {
		t.Errorf("precaution = %q, want %q", again.Precautions[0], wantPrecaution)
	}

	s, err := Generate("weight_loss_short", mustDate(t, "2025-03-03"), "10:00-11:00")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := s.Days[0].Slots[SlotMorning].Activity; got != want {
		t.Errorf("generated activity = %q, want %q", got, want)
	}
}

func TestTemplates_ReturnsCopies(t *testing.T) {
	all := Templates()
	if len(all) == 0 {
		t.Fatal("no templates")
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("templates not ordered by id: %s before %s", all[i-1].ID, all[i].ID)
		}
	}

	id := all[0].ID
	want := all[0].Days[1][SlotLunch]
	all[0].Days[1][SlotLunch] = "changed"

	tpl, err := Lookup(id)
	if err != nil {
		t.Fatalf("lookup %s: %v", id, err)
	}
	if got := tpl.Days[1][SlotLunch]; got != want {
		t.Errorf("%s day 1 lunch = %q, want %q", id, got, want)
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, err := Lookup("juice_cleanse"); !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}
