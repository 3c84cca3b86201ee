package maintenance

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/opscheck/internal/errs"
	"github.com/opscheck/internal/models"
)

// Service manages maintenance intervention records.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Add(date time.Time, description, performedBy string) (*models.MaintenanceIntervention, error) {
	if date.IsZero() {
		return nil, errs.Validation("date", "a date is required")
	}
	if strings.TrimSpace(description) == "" {
		return nil, errs.Validation("description", "must not be empty")
	}
	if strings.TrimSpace(performedBy) == "" {
		return nil, errs.Validation("performed_by", "must not be empty")
	}

	intervention := &models.MaintenanceIntervention{
		Date:        date,
		Description: description,
		PerformedBy: performedBy,
	}
	if err := s.db.Create(intervention).Error; err != nil {
		return nil, errs.Storage("create intervention", err)
	}
	return intervention, nil
}

// List returns interventions newest first, optionally bounded to a range.
func (s *Service) List(from, to *time.Time) ([]models.MaintenanceIntervention, error) {
	query := s.db.Order("date desc")
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date <= ?", *to)
	}

	var interventions []models.MaintenanceIntervention
	if err := query.Find(&interventions).Error; err != nil {
		return nil, errs.Storage("list interventions", err)
	}
	return interventions, nil
}

func (s *Service) Delete(id uint) error {
	result := s.db.Delete(&models.MaintenanceIntervention{}, id)
	if result.Error != nil {
		return errs.Storage("delete intervention", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("intervention %d: %w", id, errs.ErrNotFound)
	}
	return nil
}
