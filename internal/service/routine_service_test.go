package service

import (
	"testing"
	"time"
)

func TestRoutineServiceValidation(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "routine@example.com")
	svc := NewRoutineService(gdb)

	if _, err := svc.Create(user.ID, RoutineStepInput{Title: "晨间拉伸", TimeOfDay: "25:00"}); err == nil {
		t.Fatal("expected error for invalid time of day")
	}
	if _, err := svc.Create(user.ID, RoutineStepInput{Title: "", TimeOfDay: "07:00"}); err == nil {
		t.Fatal("expected error for empty title")
	}

	step, err := svc.Create(user.ID, RoutineStepInput{Title: "晨间拉伸", TimeOfDay: "07:00", SortOrder: 2})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if step.TimeOfDay != "07:00" {
		t.Fatalf("unexpected time of day: %s", step.TimeOfDay)
	}

	// TimeOfDay 可以留空
	if _, err := svc.Create(user.ID, RoutineStepInput{Title: "随时喝水", SortOrder: 1}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	steps, err := svc.List(user.ID)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	// 按 sort_order 升序
	if steps[0].Title != "随时喝水" {
		t.Fatalf("expected sort order to win, got %s first", steps[0].Title)
	}
}

func TestRoutineServiceToggleAndCompletionsOn(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "routine-toggle@example.com")
	svc := NewRoutineService(gdb)

	step, err := svc.Create(user.ID, RoutineStepInput{Title: "冷水洗脸", TimeOfDay: "06:30"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	day := time.Date(2026, 8, 27, 9, 0, 0, 0, time.Local)

	completed, err := svc.Toggle(user.ID, step.ID, day)
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if !completed {
		t.Fatal("first toggle must complete")
	}

	ids, err := svc.CompletionsOn(user.ID, day)
	if err != nil {
		t.Fatalf("CompletionsOn returned error: %v", err)
	}
	if len(ids) != 1 || ids[0] != step.ID {
		t.Fatalf("unexpected completions: %v", ids)
	}

	// 其他日期为空
	ids, err = svc.CompletionsOn(user.ID, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("CompletionsOn returned error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no completions, got %v", ids)
	}

	completed, err = svc.Toggle(user.ID, step.ID, day)
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if completed {
		t.Fatal("second toggle must clear")
	}

	ids, err = svc.CompletionsOn(user.ID, day)
	if err != nil {
		t.Fatalf("CompletionsOn returned error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected cleared day, got %v", ids)
	}
}
