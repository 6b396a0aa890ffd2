package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Note struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PatientID   *uuid.UUID `gorm:"type:uuid"`
	Title       string
	Content     string
	CreatedBy   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Images      []NoteImage `gorm:"foreignKey:NoteID"`
	PatientName string      `gorm:"->;-:migration"`
}

func (Note) TableName() string { return "notes" }

type NoteImage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	NoteID      uuid.UUID `gorm:"type:uuid"`
	URL         string    `gorm:"column:url"`
	Description string
	CreatedAt   time.Time
}

func (NoteImage) TableName() string { return "note_images" }

type NoteFilter struct {
	Q         string
	PatientID *uuid.UUID
	Limit     int
	Offset    int
}

func ListNotes(ctx context.Context, db *gorm.DB, f NoteFilter) ([]Note, int64, error) {
	q := db.WithContext(ctx).Model(&Note{})
	if s := strings.TrimSpace(f.Q); s != "" {
		p := likePattern(s)
		q = q.Where("notes.title ILIKE ? OR notes.content ILIKE ?", p, p)
	}
	if f.PatientID != nil {
		q = q.Where("notes.patient_id = ?", *f.PatientID)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []Note
	err := q.Select("notes.*, COALESCE(p.full_name, '') AS patient_name").
		Joins("LEFT JOIN patients p ON p.id = notes.patient_id").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Order("notes.created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}

func NoteByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Note, error) {
	var n Note
	err := db.WithContext(ctx).
		Select("notes.*, COALESCE(p.full_name, '') AS patient_name").
		Joins("LEFT JOIN patients p ON p.id = notes.patient_id").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		First(&n, "notes.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func CreateNote(ctx context.Context, db *gorm.DB, n *Note) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	for i := range n.Images {
		if n.Images[i].ID == uuid.Nil {
			n.Images[i].ID = uuid.New()
		}
	}
	return db.WithContext(ctx).Create(n).Error
}

func UpdateNote(ctx context.Context, db *gorm.DB, n *Note) error {
	res := db.WithContext(ctx).Model(&Note{}).Where("id = ?", n.ID).Updates(map[string]interface{}{
		"patient_id": n.PatientID,
		"title":      n.Title,
		"content":    n.Content,
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

func DeleteNote(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	res := db.WithContext(ctx).Delete(&Note{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func AddNoteImage(ctx context.Context, db *gorm.DB, img *NoteImage) error {
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	return db.WithContext(ctx).Create(img).Error
}

func DeleteNoteImage(ctx context.Context, db *gorm.DB, noteID, imageID uuid.UUID) error {
	res := db.WithContext(ctx).Delete(&NoteImage{}, "id = ? AND note_id = ?", imageID, noteID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
