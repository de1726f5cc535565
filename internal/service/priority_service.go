package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/focuslog/internal/db"
	"gorm.io/gorm"
)

// 加权系数与阈值。分数只是源字段的函数，行上的缓存从不作为真值使用。
const (
	weightDeadline   = 0.45
	weightPriority   = 0.35
	weightLikelihood = 0.20

	thresholdDoNow    = 0.75
	thresholdSchedule = 0.5
	thresholdDelegate = 0.3
)

// PriorityService 负责智能优先级评分与艾森豪威尔矩阵。
// 每次请求都对调用者的未完成任务全量重算，结果写回任务行仅作展示缓存。
type PriorityService struct {
	db *gorm.DB
}

// ScoredTask 是评分结果条目
type ScoredTask struct {
	Task              db.Task `json:"task"`
	Score             float64 `json:"score"`
	RecommendedAction string  `json:"recommended_action"`
}

// EisenhowerMatrix 按四象限分桶
type EisenhowerMatrix struct {
	DoNow     []db.Task `json:"do_now"`
	Schedule  []db.Task `json:"schedule"`
	Delegate  []db.Task `json:"delegate"`
	Eliminate []db.Task `json:"eliminate"`
}

// BatchPriorityItem 是批量更新中的一项
type BatchPriorityItem struct {
	TaskID   uint   `json:"task_id"`
	Priority string `json:"priority"`
}

// BatchItemResult 记录单项结果
type BatchItemResult struct {
	TaskID  uint   `json:"task_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchPriorityResult 汇总批量更新结果
type BatchPriorityResult struct {
	SuccessfulUpdates int               `json:"successfulUpdates"`
	Results           []BatchItemResult `json:"results"`
}

// NewPriorityService 构造 PriorityService
func NewPriorityService(gdb *gorm.DB) *PriorityService {
	return &PriorityService{db: gdb}
}

// PrioritizeAll 对调用者的全部未完成任务评分并按分数降序返回。
// 分数相同保持加载顺序。
func (s *PriorityService) PrioritizeAll(userID uint, now time.Time) ([]ScoredTask, error) {
	var tasks []db.Task
	if err := s.db.Where("user_id = ? AND completed = ?", userID, false).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("load open tasks: %w", err)
	}

	ratios := subtaskRatios(tasks)

	scored := make([]ScoredTask, 0, len(tasks))
	for i := range tasks {
		score, action := scoreTask(tasks[i], ratios[tasks[i].ID], now)
		tasks[i].PriorityScore = score
		tasks[i].RecommendedAction = action

		if err := s.db.Model(&db.Task{}).Where("id = ? AND user_id = ?", tasks[i].ID, userID).
			Updates(map[string]interface{}{
				"priority_score":     score,
				"recommended_action": action,
			}).Error; err != nil {
			return nil, fmt.Errorf("cache priority score: %w", err)
		}

		scored = append(scored, ScoredTask{Task: tasks[i], Score: score, RecommendedAction: action})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored, nil
}

// Eisenhower 把未完成任务分入四象限。
// 重要 = 声明优先级 high/urgent；紧急 = 已过期或 48 小时内到期。
func (s *PriorityService) Eisenhower(userID uint, now time.Time) (*EisenhowerMatrix, error) {
	var tasks []db.Task
	if err := s.db.Where("user_id = ? AND completed = ?", userID, false).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("load open tasks: %w", err)
	}

	matrix := &EisenhowerMatrix{
		DoNow:     []db.Task{},
		Schedule:  []db.Task{},
		Delegate:  []db.Task{},
		Eliminate: []db.Task{},
	}

	for _, task := range tasks {
		important := task.Priority == db.TaskPriorityHigh || task.Priority == db.TaskPriorityUrgent
		urgent := task.DueDate != nil && task.DueDate.Before(now.Add(48*time.Hour))

		switch {
		case urgent && important:
			matrix.DoNow = append(matrix.DoNow, task)
		case important:
			matrix.Schedule = append(matrix.Schedule, task)
		case urgent:
			matrix.Delegate = append(matrix.Delegate, task)
		default:
			matrix.Eliminate = append(matrix.Eliminate, task)
		}
	}

	return matrix, nil
}

// BatchUpdatePriority 逐项更新声明优先级。
// 每项独立提交：坏项记入失败列表，已提交的项不会回滚。
func (s *PriorityService) BatchUpdatePriority(userID uint, items []BatchPriorityItem) (*BatchPriorityResult, error) {
	result := &BatchPriorityResult{Results: make([]BatchItemResult, 0, len(items))}

	for _, item := range items {
		priority := strings.ToLower(strings.TrimSpace(item.Priority))
		if !validTaskPriority(priority) {
			result.Results = append(result.Results, BatchItemResult{
				TaskID: item.TaskID,
				Error:  "priority must be one of low/medium/high/urgent",
			})
			continue
		}

		update := s.db.Model(&db.Task{}).
			Where("id = ? AND user_id = ?", item.TaskID, userID).
			Update("priority", priority)
		if update.Error != nil {
			return nil, fmt.Errorf("update task priority: %w", update.Error)
		}
		if update.RowsAffected == 0 {
			result.Results = append(result.Results, BatchItemResult{
				TaskID: item.TaskID,
				Error:  "task not found",
			})
			continue
		}

		result.SuccessfulUpdates++
		result.Results = append(result.Results, BatchItemResult{TaskID: item.TaskID, Success: true})
	}

	return result, nil
}

// scoreTask 计算单个任务的加权分数与推荐动作。
func scoreTask(task db.Task, subtaskRatio float64, now time.Time) (float64, string) {
	score := weightDeadline*deadlineFactor(task.DueDate, now) +
		weightPriority*priorityFactor(task.Priority) +
		weightLikelihood*likelihoodFactor(task, subtaskRatio, now)

	switch {
	case score >= thresholdDoNow:
		return score, db.ActionDoNow
	case score >= thresholdSchedule:
		return score, db.ActionSchedule
	case score >= thresholdDelegate:
		return score, db.ActionDelegate
	default:
		return score, db.ActionEliminate
	}
}

func deadlineFactor(due *time.Time, now time.Time) float64 {
	if due == nil {
		return 0.2
	}
	remaining := due.Sub(now)
	switch {
	case remaining <= 0:
		return 1.0
	case remaining <= 24*time.Hour:
		return 0.9
	case remaining <= 72*time.Hour:
		return 0.7
	case remaining <= 168*time.Hour:
		return 0.5
	default:
		return 0.3
	}
}

func priorityFactor(priority string) float64 {
	switch priority {
	case db.TaskPriorityUrgent:
		return 1.0
	case db.TaskPriorityHigh:
		return 0.8
	case db.TaskPriorityMedium:
		return 0.5
	default:
		return 0.2
	}
}

// likelihoodFactor 估计任务被完成的可能性：新任务和子任务进展快的任务更可能被推进，
// 长期搁置的任务概率下降。
func likelihoodFactor(task db.Task, subtaskRatio float64, now time.Time) float64 {
	likelihood := 0.5

	age := now.Sub(task.CreatedAt)
	switch {
	case age <= 72*time.Hour:
		likelihood += 0.2
	case age > 14*24*time.Hour:
		likelihood -= 0.2
	}

	if subtaskRatio > 0 {
		likelihood += 0.3 * subtaskRatio
	}

	if likelihood < 0 {
		return 0
	}
	if likelihood > 1 {
		return 1
	}
	return likelihood
}

// subtaskRatios 统计每个父任务已完成子任务的占比。
// 只看本次加载的未完成任务集合加上其已完成的兄弟不在内，够用且保持单趟。
func subtaskRatios(tasks []db.Task) map[uint]float64 {
	total := make(map[uint]int)
	done := make(map[uint]int)

	for _, task := range tasks {
		if task.ParentID == nil {
			continue
		}
		total[*task.ParentID]++
		if task.Completed {
			done[*task.ParentID]++
		}
	}

	ratios := make(map[uint]float64, len(total))
	for parentID, count := range total {
		if count > 0 {
			ratios[parentID] = float64(done[parentID]) / float64(count)
		}
	}
	return ratios
}
