package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClinicalHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	PatientID uuid.UUID `gorm:"type:uuid"`
	Reason    string
	Diagnosis string
	Notes     string
	Evolution string
	CreatedAt time.Time
	UpdatedAt time.Time
	Images    []HistoryImage `gorm:"foreignKey:HistoryID"`
}

func (ClinicalHistory) TableName() string { return "clinical_histories" }

type HistoryImage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	HistoryID   uuid.UUID `gorm:"type:uuid"`
	URL         string    `gorm:"column:url"`
	Description string
	CreatedAt   time.Time
}

func (HistoryImage) TableName() string { return "clinical_history_images" }

func HistoriesByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID, limit, offset int) ([]ClinicalHistory, int64, error) {
	q := db.WithContext(ctx).Model(&ClinicalHistory{}).Where("patient_id = ?", patientID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []ClinicalHistory
	err := q.Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func HistoryByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*ClinicalHistory, error) {
	var h ClinicalHistory
	err := db.WithContext(ctx).Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		First(&h, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func CreateHistory(ctx context.Context, db *gorm.DB, h *ClinicalHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	for i := range h.Images {
		if h.Images[i].ID == uuid.Nil {
			h.Images[i].ID = uuid.New()
		}
	}
	return db.WithContext(ctx).Create(h).Error
}

func UpdateHistory(ctx context.Context, db *gorm.DB, h *ClinicalHistory) error {
	res := db.WithContext(ctx).Model(&ClinicalHistory{}).Where("id = ?", h.ID).Updates(map[string]interface{}{
		"reason":     h.Reason,
		"diagnosis":  h.Diagnosis,
		"notes":      h.Notes,
		"evolution":  h.Evolution,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func DeleteHistory(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	res := db.WithContext(ctx).Delete(&ClinicalHistory{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func AddHistoryImage(ctx context.Context, db *gorm.DB, img *HistoryImage) error {
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	return db.WithContext(ctx).Create(img).Error
}

// DeleteHistoryImage only deletes the image when it belongs to historyID.
func DeleteHistoryImage(ctx context.Context, db *gorm.DB, historyID, imageID uuid.UUID) error {
	res := db.WithContext(ctx).Delete(&HistoryImage{}, "id = ? AND history_id = ?", imageID, historyID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
