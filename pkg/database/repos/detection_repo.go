package repos

import (
	"github.com/tauraamui/nvtracker/pkg/database/dbconn"
	"github.com/tauraamui/nvtracker/pkg/database/models"
	"github.com/tauraamui/xerror"
)

type DetectionRepository struct {
	DB dbconn.GormWrapper
}

func (r *DetectionRepository) Create(detection *models.Detection) error {
	return r.DB.Create(detection).Error()
}

// Latest returns up to limit detections for a tracker, newest first.
func (r *DetectionRepository) Latest(trackerUUID string, limit int) ([]models.Detection, error) {
	detections := []models.Detection{}
	if err := r.DB.Where("tracker_uuid = ?", trackerUUID).Order("timestamp desc").Limit(limit).Find(&detections).Error(); err != nil {
		return nil, xerror.Errorf("detections for tracker %s not found: %w", trackerUUID, err)
	}

	return detections, nil
}
