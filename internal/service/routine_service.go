package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/focuslog/internal/apperr"
	"github.com/focuslog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// RoutineService 负责例程步骤及其每日完成，打卡约束与习惯一致。
type RoutineService struct {
	db *gorm.DB
}

// RoutineStepInput 定义创建/更新例程步骤时可配置字段
type RoutineStepInput struct {
	Title     string
	TimeOfDay string
	SortOrder int
}

// NewRoutineService 构造 RoutineService
func NewRoutineService(gdb *gorm.DB) *RoutineService {
	return &RoutineService{db: gdb}
}

// List 返回调用者的例程步骤，按排序与时间排列
func (s *RoutineService) List(userID uint) ([]db.RoutineStep, error) {
	var steps []db.RoutineStep
	if err := s.db.Where("user_id = ?", userID).
		Order("sort_order ASC").Order("time_of_day ASC").
		Find(&steps).Error; err != nil {
		return nil, fmt.Errorf("list routine steps: %w", err)
	}
	return steps, nil
}

// Get 返回调用者名下的单个步骤
func (s *RoutineService) Get(userID, id uint) (*db.RoutineStep, error) {
	var step db.RoutineStep
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&step).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("routine step not found")
		}
		return nil, fmt.Errorf("get routine step: %w", err)
	}
	return &step, nil
}

// Create 新建例程步骤
func (s *RoutineService) Create(userID uint, input RoutineStepInput) (*db.RoutineStep, error) {
	if err := validateRoutineStepInput(input); err != nil {
		return nil, err
	}

	step := db.RoutineStep{
		UserID:    userID,
		Title:     strings.TrimSpace(input.Title),
		TimeOfDay: strings.TrimSpace(input.TimeOfDay),
		SortOrder: input.SortOrder,
	}

	if err := s.db.Create(&step).Error; err != nil {
		return nil, fmt.Errorf("create routine step: %w", err)
	}
	return &step, nil
}

// Update 更新例程步骤
func (s *RoutineService) Update(userID, id uint, input RoutineStepInput) (*db.RoutineStep, error) {
	if err := validateRoutineStepInput(input); err != nil {
		return nil, err
	}

	existing, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.TimeOfDay = strings.TrimSpace(input.TimeOfDay)
	existing.SortOrder = input.SortOrder

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update routine step: %w", err)
	}
	return existing, nil
}

// Delete 删除步骤并显式清除其完成记录
func (s *RoutineService) Delete(userID, id uint) error {
	if _, err := s.Get(userID, id); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("routine_step_id = ?", id).Delete(&db.RoutineCompletion{}).Error; err != nil {
			return fmt.Errorf("delete routine completions: %w", err)
		}
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&db.RoutineStep{}).Error; err != nil {
			return fmt.Errorf("delete routine step: %w", err)
		}
		return nil
	})
}

// Toggle 切换指定日期的完成状态，语义与习惯打卡一致
func (s *RoutineService) Toggle(userID, stepID uint, day time.Time) (bool, error) {
	if _, err := s.Get(userID, stepID); err != nil {
		return false, err
	}

	date := normalizeToDate(day)
	completed := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		record := db.RoutineCompletion{RoutineStepID: stepID, CompletionDate: date}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "routine_step_id"}, {Name: "completion_date"}},
			DoNothing: true,
		}).Create(&record)
		if insert.Error != nil {
			return fmt.Errorf("insert routine completion: %w", insert.Error)
		}

		if insert.RowsAffected == 1 {
			completed = true
			return nil
		}

		if err := tx.Where("routine_step_id = ? AND completion_date = ?", stepID, date).
			Delete(&db.RoutineCompletion{}).Error; err != nil {
			return fmt.Errorf("delete routine completion: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return completed, nil
}

// CompletionsOn 返回某日已完成的步骤 ID 集合
func (s *RoutineService) CompletionsOn(userID uint, day time.Time) ([]uint, error) {
	var ids []uint
	if err := s.db.Model(&db.RoutineCompletion{}).
		Joins("JOIN routine_steps ON routine_steps.id = routine_completions.routine_step_id").
		Where("routine_steps.user_id = ? AND routine_completions.completion_date = ?", userID, normalizeToDate(day)).
		Pluck("routine_completions.routine_step_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list routine completions: %w", err)
	}
	return ids, nil
}

func validateRoutineStepInput(input RoutineStepInput) error {
	var fields []string
	if strings.TrimSpace(input.Title) == "" {
		fields = append(fields, "title is required")
	}
	if tod := strings.TrimSpace(input.TimeOfDay); tod != "" && !timeOfDayPattern.MatchString(tod) {
		fields = append(fields, "time_of_day must be HH:MM")
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid routine payload", fields...)
	}
	return nil
}
