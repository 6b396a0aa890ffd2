package reminder

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
	"github.com/pantera3000/sistema-dental-01/internal/whatsapp"
)

// WhatsAppSender delivers the greeting to one phone number.
type WhatsAppSender interface {
	SendBirthdayGreeting(ctx context.Context, phone, patientName, clinicName string) error
}

// PatientLister returns candidates; birthdays are matched here, not in SQL.
type PatientLister interface {
	PatientsWithBirthDate(ctx context.Context) ([]repo.PatientBirthday, error)
}

type Auditor interface {
	RecordSystem(ctx context.Context, ev audit.Event)
}

type DBLister struct {
	DB *gorm.DB
}

func (l DBLister) PatientsWithBirthDate(ctx context.Context) ([]repo.PatientBirthday, error) {
	return repo.PatientsWithBirthDate(ctx, l.DB)
}

type Result struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
}

// SendBirthdayGreetings greets every patient whose birthday is day and who has
// a phone. Patients without a phone and failed sends count as skipped; a nil
// sender skips everyone.
func SendBirthdayGreetings(ctx context.Context, day time.Time, lister PatientLister, sender WhatsAppSender, auditor Auditor, clinicName string) Result {
	var res Result
	if lister == nil {
		log.Warn().Msg("[reminder] no patient lister, skipping")
		return res
	}
	rows, err := lister.PatientsWithBirthDate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("[reminder] list patients")
		return res
	}
	for _, p := range rows {
		if !dental.IsBirthday(p.BirthDate, day) {
			continue
		}
		if p.Phone == "" {
			res.Skipped++
			continue
		}
		if sender == nil {
			res.Skipped++
			continue
		}
		if err := sender.SendBirthdayGreeting(ctx, p.Phone, p.FullName, clinicName); err != nil {
			log.Warn().Err(err).Str("patient_id", p.ID.String()).Msg("[reminder] send failed")
			res.Skipped++
			continue
		}
		res.Sent++
		log.Info().Str("patient_id", p.ID.String()).Msg("[reminder] birthday greeting sent")
		if auditor != nil {
			auditor.RecordSystem(ctx, audit.Event{
				Action:     audit.ActionBirthdaySent,
				Model:      "patient",
				ObjectID:   p.ID.String(),
				ObjectRepr: p.FullName,
				Details:    "Saludo de cumpleaños por WhatsApp",
			})
		}
	}
	if sender == nil && res.Skipped > 0 {
		log.Info().Int("count", res.Skipped).Msg("[reminder] WhatsApp not configured, greetings not sent")
	}
	return res
}

// DefaultWhatsAppSender returns a Twilio client, or nil when not configured.
func DefaultWhatsAppSender(accountSid, authToken, from string) WhatsAppSender {
	c := whatsapp.NewClient(whatsapp.Config{AccountSid: accountSid, AuthToken: authToken, From: from})
	if !c.Configured() {
		return nil
	}
	return c
}
