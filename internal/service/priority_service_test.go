package service

import (
	"testing"
	"time"

	"github.com/focuslog/internal/db"
)

func TestPriorityServicePrioritizeAll(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "priority@example.com")
	taskSvc := NewTaskService(gdb)
	svc := NewPriorityService(gdb)

	now := time.Now()
	overdue := now.Add(-2 * time.Hour)
	farAway := now.Add(30 * 24 * time.Hour)

	urgent, err := taskSvc.Create(user.ID, TaskInput{Title: "救火", Priority: "urgent", DueDate: &overdue})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	idle, err := taskSvc.Create(user.ID, TaskInput{Title: "有空再说", Priority: "low", DueDate: &farAway})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	done, err := taskSvc.Create(user.ID, TaskInput{Title: "已完成"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := taskSvc.Toggle(user.ID, done.ID, now); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	scored, err := svc.PrioritizeAll(user.ID, now)
	if err != nil {
		t.Fatalf("PrioritizeAll returned error: %v", err)
	}

	// 已完成任务不参与评分
	if len(scored) != 2 {
		t.Fatalf("expected 2 scored tasks, got %d", len(scored))
	}

	// 过期的 urgent 任务必须排第一且推荐立即执行
	if scored[0].Task.ID != urgent.ID {
		t.Fatalf("expected urgent task first, got task %d", scored[0].Task.ID)
	}
	if scored[0].RecommendedAction != db.ActionDoNow {
		t.Fatalf("expected do_now, got %s", scored[0].RecommendedAction)
	}
	if scored[1].Task.ID != idle.ID {
		t.Fatalf("expected idle task second, got task %d", scored[1].Task.ID)
	}
	if scored[1].RecommendedAction == db.ActionDoNow {
		t.Fatal("low priority remote task must not be do_now")
	}
	if scored[0].Score <= scored[1].Score {
		t.Fatalf("scores must be descending: %f vs %f", scored[0].Score, scored[1].Score)
	}

	// 分数回写到任务行作展示缓存
	reloaded, err := taskSvc.Get(user.ID, urgent.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if reloaded.RecommendedAction != db.ActionDoNow || reloaded.PriorityScore == 0 {
		t.Fatalf("expected cached score on task row, got %+v", reloaded)
	}
}

func TestPriorityServiceEisenhower(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "matrix@example.com")
	taskSvc := NewTaskService(gdb)
	svc := NewPriorityService(gdb)

	now := time.Now()
	soon := now.Add(12 * time.Hour)
	later := now.Add(10 * 24 * time.Hour)

	doNow, err := taskSvc.Create(user.ID, TaskInput{Title: "重要且紧急", Priority: "high", DueDate: &soon})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	schedule, err := taskSvc.Create(user.ID, TaskInput{Title: "重要不紧急", Priority: "urgent", DueDate: &later})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	delegate, err := taskSvc.Create(user.ID, TaskInput{Title: "紧急不重要", Priority: "low", DueDate: &soon})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	eliminate, err := taskSvc.Create(user.ID, TaskInput{Title: "既不重要也不紧急", Priority: "low"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	matrix, err := svc.Eisenhower(user.ID, now)
	if err != nil {
		t.Fatalf("Eisenhower returned error: %v", err)
	}

	assertBucket := func(name string, bucket []db.Task, want uint) {
		t.Helper()
		if len(bucket) != 1 || bucket[0].ID != want {
			t.Fatalf("%s: expected exactly task %d, got %+v", name, want, bucket)
		}
	}
	assertBucket("do_now", matrix.DoNow, doNow.ID)
	assertBucket("schedule", matrix.Schedule, schedule.ID)
	assertBucket("delegate", matrix.Delegate, delegate.ID)
	assertBucket("eliminate", matrix.Eliminate, eliminate.ID)
}

func TestPriorityServiceBatchUpdate(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedUser(t, gdb, "batch@example.com")
	other := seedUser(t, gdb, "batch-other@example.com")
	taskSvc := NewTaskService(gdb)
	svc := NewPriorityService(gdb)

	mine, err := taskSvc.Create(user.ID, TaskInput{Title: "我的任务"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	foreign, err := taskSvc.Create(other.ID, TaskInput{Title: "别人的任务"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	result, err := svc.BatchUpdatePriority(user.ID, []BatchPriorityItem{
		{TaskID: mine.ID, Priority: "urgent"},
		{TaskID: foreign.ID, Priority: "low"},
		{TaskID: mine.ID, Priority: "extreme"},
		{TaskID: 99999, Priority: "low"},
	})
	if err != nil {
		t.Fatalf("BatchUpdatePriority returned error: %v", err)
	}

	// 坏项不影响好项，已提交的不回滚
	if result.SuccessfulUpdates != 1 {
		t.Fatalf("expected 1 successful update, got %d", result.SuccessfulUpdates)
	}
	if len(result.Results) != 4 {
		t.Fatalf("expected 4 item results, got %d", len(result.Results))
	}
	if !result.Results[0].Success {
		t.Fatalf("expected first item to succeed: %+v", result.Results[0])
	}
	for _, item := range result.Results[1:] {
		if item.Success || item.Error == "" {
			t.Fatalf("expected failure with message, got %+v", item)
		}
	}

	reloaded, err := taskSvc.Get(user.ID, mine.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if reloaded.Priority != db.TaskPriorityUrgent {
		t.Fatalf("expected priority urgent, got %s", reloaded.Priority)
	}

	// 他人任务未被触碰
	untouched, err := taskSvc.Get(other.ID, foreign.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if untouched.Priority != db.TaskPriorityMedium {
		t.Fatalf("foreign task priority must be unchanged, got %s", untouched.Priority)
	}
}

func TestScoreTaskThresholds(t *testing.T) {
	now := time.Now()
	overdue := now.Add(-time.Hour)

	// 过期 + urgent + 新建任务：0.45*1.0 + 0.35*1.0 + 0.20*0.7 = 0.94
	task := db.Task{Priority: db.TaskPriorityUrgent, DueDate: &overdue}
	task.CreatedAt = now.Add(-time.Hour)
	score, action := scoreTask(task, 0, now)
	if action != db.ActionDoNow {
		t.Fatalf("expected do_now, got %s (score %f)", action, score)
	}

	// 无截止 + low + 搁置两周以上：0.45*0.2 + 0.35*0.2 + 0.20*0.3 = 0.22
	stale := db.Task{Priority: db.TaskPriorityLow}
	stale.CreatedAt = now.Add(-30 * 24 * time.Hour)
	score, action = scoreTask(stale, 0, now)
	if action != db.ActionEliminate {
		t.Fatalf("expected eliminate, got %s (score %f)", action, score)
	}
}

func TestDeadlineFactorBands(t *testing.T) {
	now := time.Now()

	cases := []struct {
		due  *time.Time
		want float64
	}{
		{nil, 0.2},
		{ptr(now.Add(-time.Minute)), 1.0},
		{ptr(now.Add(12 * time.Hour)), 0.9},
		{ptr(now.Add(48 * time.Hour)), 0.7},
		{ptr(now.Add(100 * time.Hour)), 0.5},
		{ptr(now.Add(200 * time.Hour)), 0.3},
	}

	for i, tc := range cases {
		if got := deadlineFactor(tc.due, now); got != tc.want {
			t.Fatalf("case %d: expected %f, got %f", i, tc.want, got)
		}
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
