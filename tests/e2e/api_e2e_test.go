package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/focuslog/internal/config"
	"github.com/focuslog/internal/db"
	"github.com/focuslog/internal/handler"
	"github.com/focuslog/internal/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type e2eSuite struct {
	gdb     *gorm.DB
	handler http.Handler
	anon    *localClient
	alice   *localClient
	bob     *localClient
	baseURL string
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(h http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: h, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

func TestE2E_API(t *testing.T) {
	suite := newE2ESuite(t)

	t.Run("unauthorized access", suite.testUnauthorized)
	t.Run("signup and session", suite.testSignup)
	t.Run("tasks", suite.testTasks)
	t.Run("smart prioritization", suite.testPrioritization)
	t.Run("habits", suite.testHabits)
	t.Run("goals", suite.testGoals)
	t.Run("teams", suite.testTeams)
	t.Run("accountability", suite.testAccountability)
	t.Run("notifications and analytics", suite.testNotificationsAndAnalytics)
	t.Run("markdown preview", suite.testMarkdownPreview)
	t.Run("password reset", suite.testPasswordReset)
	t.Run("logout", suite.testLogout)
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	api := handler.NewAPI(gdb, zap.NewNop(), t.TempDir(), "/static/uploads")
	cfg := config.AppConfig{
		SessionSecret: "e2e-session-secret",
		AllowedOrigin: "http://example.test",
		UploadDir:     t.TempDir(),
		UploadURLPath: "/static/uploads",
	}
	engine := router.SetupRouter(api, zap.NewNop(), cfg, nil)

	return &e2eSuite{
		gdb:     gdb,
		handler: engine,
		anon:    newLocalClient(engine, false),
		alice:   newLocalClient(engine, true),
		bob:     newLocalClient(engine, true),
		baseURL: "http://example.test",
	}
}

func (s *e2eSuite) testUnauthorized(t *testing.T) {
	resp := s.request(t, s.anon, http.MethodGet, "/api/tasks", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	decodeJSON(t, resp, &envelope)
	if envelope.Success || envelope.Error == "" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}

	// 未登录写入也被拒绝，且不产生任何数据
	resp = s.requestJSON(t, s.anon, http.MethodPost, "/api/tasks", map[string]interface{}{"title": "偷偷创建"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on write, got %d", resp.StatusCode)
	}
	var count int64
	if err := s.gdb.Model(&db.Task{}).Count(&count).Error; err != nil {
		t.Fatalf("count tasks failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("unauthorized request must not create rows, found %d", count)
	}
}

func (s *e2eSuite) testSignup(t *testing.T) {
	resp := s.requestJSON(t, s.alice, http.MethodPost, "/api/auth/signup", map[string]interface{}{
		"email":        "alice@example.com",
		"password":     "alice-secret",
		"display_name": "Alice",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signup expected 200, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}

	resp = s.requestJSON(t, s.bob, http.MethodPost, "/api/auth/signup", map[string]interface{}{
		"email":    "bob@example.com",
		"password": "bob-secret-1",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bob signup expected 200, got %d", resp.StatusCode)
	}

	// 重复邮箱
	resp = s.requestJSON(t, s.anon, http.MethodPost, "/api/auth/signup", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "whatever-12",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup expected 409, got %d", resp.StatusCode)
	}

	// 会话生效
	resp = s.request(t, s.alice, http.MethodGet, "/api/tasks", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authorized list expected 200, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testTasks(t *testing.T) {
	resp := s.requestJSON(t, s.alice, http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":    "准备发布",
		"priority": "high",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create task expected 200, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}
	var created struct {
		Task struct {
			ID uint `json:"ID"`
		} `json:"task"`
	}
	decodeJSON(t, resp, &created)
	if created.Task.ID == 0 {
		t.Fatal("create task returned empty id")
	}
	taskID := created.Task.ID

	// 校验失败：缺标题
	resp = s.requestJSON(t, s.alice, http.MethodPost, "/api/tasks", map[string]interface{}{"description": "没有标题"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing title expected 400, got %d", resp.StatusCode)
	}

	// bob 看不到 alice 的任务
	resp = s.request(t, s.bob, http.MethodGet, "/api/tasks/"+idStr(taskID), nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign task expected 404, got %d", resp.StatusCode)
	}

	resp = s.request(t, s.alice, http.MethodPost, "/api/tasks/toggle/"+idStr(taskID), nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle expected 200, got %d", resp.StatusCode)
	}

	resp = s.request(t, s.alice, http.MethodGet, "/api/tasks?completed=true", nil)
	defer resp.Body.Close()
	var listed struct {
		Tasks []struct {
			ID        uint `json:"ID"`
			Completed bool `json:"Completed"`
		} `json:"tasks"`
	}
	decodeJSON(t, resp, &listed)
	if len(listed.Tasks) != 1 || listed.Tasks[0].ID != taskID || !listed.Tasks[0].Completed {
		t.Fatalf("unexpected completed list: %+v", listed.Tasks)
	}

	// 依赖边
	resp = s.requestJSON(t, s.alice, http.MethodPost, "/api/tasks", map[string]interface{}{"title": "写发布说明"})
	defer resp.Body.Close()
	var second struct {
		Task struct {
			ID uint `json:"ID"`
		} `json:"task"`
	}
	decodeJSON(t, resp, &second)

	depPath := "/api/tasks/" + idStr(second.Task.ID) + "/dependencies"
	resp = s.requestJSON(t, s.alice, http.MethodPost, depPath, map[string]interface{}{"dependency_id": taskID})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add dependency expected 200, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}

	resp = s.requestJSON(t, s.alice, http.MethodPost, depPath, map[string]interface{}{"dependency_id": taskID})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate dependency expected 409, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testPrioritization(t *testing.T) {
	due := time.Now().Add(-time.Hour).Format(time.RFC3339)
	resp := s.requestJSON(t, s.alice, http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":    "已经过期的急事",
		"priority": "urgent",
		"due_date": due,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create task expected 200, got %d", resp.StatusCode)
	}

	resp = s.request(t, s.alice, http.MethodGet, "/api/tasks/prioritize", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("prioritize expected 200, got %d", resp.StatusCode)
	}
	var scored struct {
		Tasks []struct {
			Score             float64 `json:"score"`
			RecommendedAction string  `json:"recommended_action"`
		} `json:"tasks"`
	}
	decodeJSON(t, resp, &scored)
	if len(scored.Tasks) == 0 {
		t.Fatal("expected scored tasks")
	}
	if scored.Tasks[0].RecommendedAction != "do_now" {
		t.Fatalf("expected overdue urgent task first as do_now, got %+v", scored.Tasks[0])
	}
	for i := 1; i < len(scored.Tasks); i++ {
		if scored.Tasks[i].Score > scored.Tasks[i-1].Score {
			t.Fatal("scores must be descending")
		}
	}

	resp = s.request(t, s.alice, http.MethodGet, "/api/tasks/eisenhower", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("eisenhower expected 200, got %d", resp.StatusCode)
	}
	var matrix struct {
		Matrix struct {
			DoNow []json.RawMessage `json:"do_now"`
		} `json:"matrix"`
	}
	decodeJSON(t, resp, &matrix)
	if len(matrix.Matrix.DoNow) == 0 {
		t.Fatal("expected the urgent overdue task in do_now")
	}

	// 批量更新：一个好项一个坏项
	resp = s.requestJSON(t, s.alice, http.MethodPost, "/api/tasks/prioritize", map[string]interface{}{
		"items": []map[string]interface{}{
			{"task_id": 1, "priority": "low"},
			{"task_id": 99999, "priority": "low"},
		},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("batch update expected 200, got %d", resp.StatusCode)
	}
	var batch struct {
		SuccessfulUpdates int `json:"successfulUpdates"`
		Results           []struct {
			Success bool `json:"success"`
		} `json:"results"`
	}
	decodeJSON(t, resp, &batch)
	if batch.SuccessfulUpdates != 1 || len(batch.Results) != 2 {
		t.Fatalf("unexpected batch result: %+v", batch)
	}
}

func (s *e2eSuite) testHabits(t *testing.T) {
	resp := s.requestJSON(t, s.alice, http.MethodPost, "/api/habits", map[string]interface{}{
		"name": "晨跑",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create habit expected 200, got %d", resp.StatusCode)
	}
	var created struct {
		Habit struct {
			ID uint `json:"ID"`
		} `json:"habit"`
	}
	decodeJSON(t, resp, &created)
	habitID := created.Habit.ID

	togglePath := "/api/habits/toggle/" + idStr(habitID) + "?date=2026-08-20"
	resp = s.request(t, s.alice, http.MethodPost, togglePath, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle habit expected 200, got %d", resp.StatusCode)
	}
	var toggled struct {
		Completed bool `json:"completed"`
	}
	decodeJSON(t, resp, &toggled)
	if !toggled.Completed {
		t.Fatal("first toggle must complete the day")
	}

	resp = s.request(t, s.alice, http.MethodPost, togglePath, nil)
	defer resp.Body.Close()
	decodeJSON(t, resp, &toggled)
	if toggled.Completed {
		t.Fatal("second toggle must clear the day")
	}

	// 非法日期
	resp = s.request(t, s.alice, http.MethodPost, "/api/habits/toggle/"+idStr(habitID)+"?date=20-08-2026", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad date expected 400, got %d", resp.StatusCode)
	}

	resp = s.request(t, s.alice, http.MethodGet, "/api/habits/"+idStr(habitID)+"/stats", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("habit stats expected 200, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testGoals(t *testing.T) {
	resp := s.requestJSON(t, s.alice, http.MethodPost, "/api/goals", map[string]interface{}{
		"title":    "完成年度目标",
		"progress": 20,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create goal expected 200, got %d", resp.StatusCode)
	}
	var created struct {
		Goal struct {
			ID uint `json:"ID"`
		} `json:"goal"`
	}
	decodeJSON(t, resp, &created)
	goalID := created.Goal.ID

	resp = s.requestJSON(t, s.alice, http.MethodPost, "/api/goals/"+idStr(goalID)+"/milestones", map[string]interface{}{
		"title": "第一阶段",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add milestone expected 200, got %d", resp.StatusCode)
	}
	var milestone struct {
		Milestone struct {
			ID uint `json:"ID"`
		} `json:"milestone"`
	}
	decodeJSON(t, resp, &milestone)

	resp = s.requestJSON(t, s.alice, http.MethodPut, "/api/goals/milestones/"+idStr(milestone.Milestone.ID), map[string]interface{}{
		"completed": true,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update milestone expected 200, got %d", resp.StatusCode)
	}

	// progress 超界
	resp = s.requestJSON(t, s.alice, http.MethodPut, "/api/goals/"+idStr(goalID), map[string]interface{}{
		"title":    "完成年度目标",
		"progress": 120,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("progress 120 expected 400, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testTeams(t *testing.T) {
	resp := s.requestJSON(t, s.alice, http.MethodPost, "/api/teams", map[string]interface{}{
		"name": "发布小组",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create team expected 200, got %d", resp.StatusCode)
	}
	var created struct {
		Team struct {
			ID uint `json:"ID"`
		} `json:"team"`
	}
	decodeJSON(t, resp, &created)
	teamID := created.Team.ID

	// bob 尚未入队，看不到团队
	resp = s.request(t, s.bob, http.MethodGet, "/api/teams/"+idStr(teamID), nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("non-member expected 404, got %d", resp.StatusCode)
	}

	resp = s.requestJSON(t, s.alice, http.MethodPost, "/api/teams/"+idStr(teamID)+"/members", map[string]interface{}{
		"email": "bob@example.com",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add member expected 200, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}

	// 普通成员建项目是 403
	resp = s.requestJSON(t, s.bob, http.MethodPost, "/api/teams/"+idStr(teamID)+"/projects", map[string]interface{}{
		"name": "偷偷立项",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("member create project expected 403, got %d", resp.StatusCode)
	}

	resp = s.requestJSON(t, s.alice, http.MethodPost, "/api/teams/"+idStr(teamID)+"/projects", map[string]interface{}{
		"name": "发布准备",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create project expected 200, got %d", resp.StatusCode)
	}
	var project struct {
		Project struct {
			ID uint `json:"ID"`
		} `json:"project"`
	}
	decodeJSON(t, resp, &project)

	// 任何成员都能建项目任务
	resp = s.requestJSON(t, s.bob, http.MethodPost, "/api/projects/"+idStr(project.Project.ID)+"/tasks", map[string]interface{}{
		"title": "清点检查单",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create project task expected 200, got %d", resp.StatusCode)
	}
	var task struct {
		Task struct {
			ID     uint   `json:"ID"`
			Status string `json:"Status"`
		} `json:"task"`
	}
	decodeJSON(t, resp, &task)
	if task.Task.Status != "todo" {
		t.Fatalf("expected default status todo, got %s", task.Task.Status)
	}

	resp = s.requestJSON(t, s.bob, http.MethodPut, "/api/projects/tasks/"+idStr(task.Task.ID), map[string]interface{}{
		"status": "in_progress",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update project task expected 200, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testAccountability(t *testing.T) {
	resp := s.requestJSON(t, s.alice, http.MethodPost, "/api/accountability", map[string]interface{}{
		"email":   "bob@example.com",
		"message": "互相监督",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send request expected 200, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}

	resp = s.request(t, s.bob, http.MethodGet, "/api/accountability", nil)
	defer resp.Body.Close()
	var overview struct {
		Incoming []struct {
			ID uint `json:"ID"`
		} `json:"incoming_requests"`
	}
	decodeJSON(t, resp, &overview)
	if len(overview.Incoming) != 1 {
		t.Fatalf("expected 1 incoming request, got %+v", overview.Incoming)
	}
	requestID := overview.Incoming[0].ID

	respondPath := "/api/accountability/" + idStr(requestID) + "/respond"
	resp = s.requestJSON(t, s.bob, http.MethodPost, respondPath, map[string]interface{}{"action": "accept"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept expected 200, got %d", resp.StatusCode)
	}

	// 终态后的二次响应报冲突
	resp = s.requestJSON(t, s.bob, http.MethodPost, respondPath, map[string]interface{}{"action": "reject"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second respond expected 409, got %d", resp.StatusCode)
	}

	resp = s.request(t, s.alice, http.MethodGet, "/api/accountability", nil)
	defer resp.Body.Close()
	var mine struct {
		Partnerships []struct {
			ID     uint   `json:"ID"`
			Status string `json:"Status"`
		} `json:"partnerships"`
	}
	decodeJSON(t, resp, &mine)
	if len(mine.Partnerships) != 1 || mine.Partnerships[0].Status != "active" {
		t.Fatalf("expected active partnership, got %+v", mine.Partnerships)
	}

	resp = s.requestJSON(t, s.alice, http.MethodPut, "/api/accountability/partnerships/"+idStr(mine.Partnerships[0].ID), map[string]interface{}{
		"status": "paused",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pause partnership expected 200, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testNotificationsAndAnalytics(t *testing.T) {
	// bob 在前面的步骤里收到了团队与伙伴通知
	resp := s.request(t, s.bob, http.MethodGet, "/api/notifications?unread=true", nil)
	defer resp.Body.Close()
	var listed struct {
		Notifications []struct {
			ID uint `json:"ID"`
		} `json:"notifications"`
	}
	decodeJSON(t, resp, &listed)
	if len(listed.Notifications) == 0 {
		t.Fatal("expected unread notifications for bob")
	}

	resp = s.request(t, s.bob, http.MethodPost, "/api/notifications/read-all", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("read-all expected 200, got %d", resp.StatusCode)
	}

	resp = s.request(t, s.bob, http.MethodGet, "/api/notifications?unread=true", nil)
	defer resp.Body.Close()
	decodeJSON(t, resp, &listed)
	if len(listed.Notifications) != 0 {
		t.Fatalf("expected empty unread list, got %d", len(listed.Notifications))
	}

	resp = s.request(t, s.alice, http.MethodGet, "/api/analytics", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analytics expected 200, got %d", resp.StatusCode)
	}
	var analytics struct {
		Analytics struct {
			Days []struct {
				Date string `json:"date"`
			} `json:"days"`
		} `json:"analytics"`
	}
	decodeJSON(t, resp, &analytics)
	if len(analytics.Analytics.Days) == 0 {
		t.Fatal("expected day buckets in analytics")
	}

	// alice 完成过任务，first_task 应已解锁
	resp = s.request(t, s.alice, http.MethodGet, "/api/achievements", nil)
	defer resp.Body.Close()
	var achievements struct {
		Achievements []struct {
			Code string `json:"Code"`
		} `json:"achievements"`
	}
	decodeJSON(t, resp, &achievements)
	found := false
	for _, a := range achievements.Achievements {
		if a.Code == "first_task" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected first_task achievement, got %+v", achievements.Achievements)
	}
}

func (s *e2eSuite) testMarkdownPreview(t *testing.T) {
	resp := s.requestJSON(t, s.alice, http.MethodPost, "/api/markdown/preview", map[string]interface{}{
		"source": "# 预览\n\n<script>alert(1)</script>",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview expected 200, got %d", resp.StatusCode)
	}
	var preview struct {
		HTML string `json:"html"`
	}
	decodeJSON(t, resp, &preview)
	if !strings.Contains(preview.HTML, "<h1") {
		t.Fatalf("expected rendered heading, got %s", preview.HTML)
	}
	if strings.Contains(preview.HTML, "<script") {
		t.Fatalf("script must be sanitized: %s", preview.HTML)
	}
}

func (s *e2eSuite) testPasswordReset(t *testing.T) {
	// 未注册邮箱与已注册邮箱响应一致
	for _, email := range []string{"alice@example.com", "ghost@example.com"} {
		resp := s.requestJSON(t, s.anon, http.MethodPost, "/api/auth/forgot-password", map[string]interface{}{
			"email": email,
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("forgot-password expected 200 for %s, got %d", email, resp.StatusCode)
		}
		body := readBody(t, resp)
		if strings.Contains(body, "token") {
			t.Fatalf("token must not leak in response: %s", body)
		}
	}

	// 伪造令牌被拒绝
	resp := s.requestJSON(t, s.anon, http.MethodPost, "/api/auth/reset-password", map[string]interface{}{
		"token":    "forged-token",
		"password": "new-password-1",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("forged token expected 400, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testLogout(t *testing.T) {
	resp := s.request(t, s.bob, http.MethodPost, "/api/auth/logout", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout expected 200, got %d", resp.StatusCode)
	}

	resp = s.request(t, s.bob, http.MethodGet, "/api/tasks", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}

	// 重新登录恢复会话
	resp = s.requestJSON(t, s.bob, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":    "bob@example.com",
		"password": "bob-secret-1",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login expected 200, got %d", resp.StatusCode)
	}
	resp = s.request(t, s.bob, http.MethodGet, "/api/tasks", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after login, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) request(t *testing.T, client *localClient, method, path string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("failed to build request %s %s: %v", method, path, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func (s *e2eSuite) requestJSON(t *testing.T, client *localClient, method, path string, payload map[string]interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req, err := http.NewRequest(method, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to build request %s %s: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	body := readBody(t, resp)
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		t.Fatalf("failed to decode json: %v\nbody=%s", err, body)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(data)
}

func idStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
