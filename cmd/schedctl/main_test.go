package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlanList(t *testing.T) {
	out, err := run(t, "plan", "list")
	if err != nil {
		t.Fatalf("plan list: %v", err)
	}
	for _, tpl := range plan.Templates() {
		if !strings.Contains(out, tpl.ID) {
			t.Errorf("plan list output missing %s:\n%s", tpl.ID, out)
		}
	}
}

func TestPlanPreview_Table(t *testing.T) {
	out, err := run(t, "plan", "preview", "weight_loss_short", "--start", "2025-03-03")
	if err != nil {
		t.Fatalf("plan preview: %v", err)
	}
	if !strings.Contains(out, "Rest days: 2025-03-09") {
		t.Errorf("expected Sunday rest day in output:\n%s", out)
	}
	if !strings.Contains(out, "2025-03-10") || !strings.Contains(out, "monday") {
		t.Errorf("expected day 7 on Monday 2025-03-10:\n%s", out)
	}
}

func TestPlanPreview_JSON(t *testing.T) {
	out, err := run(t, "plan", "preview", "weight_loss_short", "--start", "2025-03-03", "--therapy-time", "14:00-15:00", "--json")
	if err != nil {
		t.Fatalf("plan preview: %v", err)
	}
	var sched plan.Schedule
	if err := json.Unmarshal([]byte(out), &sched); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(sched.Days) != 7 || sched.Info.EndDate != "2025-03-10" {
		t.Fatalf("unexpected schedule: %d days, end %s", len(sched.Days), sched.Info.EndDate)
	}
	if got := sched.Days[0].Slots[plan.SlotTherapy].Time; got != "14:00" {
		t.Errorf("therapy time = %q, want 14:00", got)
	}
}

func TestPlanPreview_Errors(t *testing.T) {
	cases := [][]string{
		{"plan", "preview", "no_such_plan"},
		{"plan", "preview", "weight_loss_short", "--start", "03/03/2025"},
		{"plan", "preview", "weight_loss_short", "--therapy-time", "late"},
		{"plan", "preview"},
	}
	for _, args := range cases {
		if _, err := run(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}
