package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultClinicName = "Consultorio Dental"
	DefaultPDFTitle   = "ODONTOGRAMA"
)

// ClinicConfig is a singleton row (id = 1).
type ClinicConfig struct {
	ID         int `gorm:"primaryKey"`
	ClinicName string
	PDFTitle   string `gorm:"column:pdf_title"`
	Address    string
	Phone      string
	Email      string
	UpdatedAt  time.Time
}

func (ClinicConfig) TableName() string { return "clinic_config" }

// GetClinicConfig returns the configuration, creating it with defaults on first use.
func GetClinicConfig(ctx context.Context, db *gorm.DB) (*ClinicConfig, error) {
	c := ClinicConfig{ID: 1}
	err := db.WithContext(ctx).
		Where(ClinicConfig{ID: 1}).
		Attrs(ClinicConfig{ClinicName: DefaultClinicName, PDFTitle: DefaultPDFTitle}).
		FirstOrCreate(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func SaveClinicConfig(ctx context.Context, db *gorm.DB, c *ClinicConfig) error {
	c.ID = 1
	c.UpdatedAt = time.Now()
	if c.ClinicName == "" {
		c.ClinicName = DefaultClinicName
	}
	if c.PDFTitle == "" {
		c.PDFTitle = DefaultPDFTitle
	}
	return db.WithContext(ctx).
		Where(ClinicConfig{ID: 1}).
		Assign(map[string]interface{}{
			"clinic_name": c.ClinicName,
			"pdf_title":   c.PDFTitle,
			"address":     c.Address,
			"phone":       c.Phone,
			"email":       c.Email,
			"updated_at":  c.UpdatedAt,
		}).
		FirstOrCreate(c).Error
}
