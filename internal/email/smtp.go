package email

import (
	"bytes"
	"fmt"
	"mime"
	"net/smtp"
	"strconv"
	"text/template"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	FromName string
	FromAddr string
}

// FromEnv builds a Config from the raw SMTP_* values; port falls back to 25.
func FromEnv(host, port, user, pass, fromName, fromAddr string) *Config {
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 {
		p = 25
	}
	return &Config{Host: host, Port: p, User: user, Pass: pass, FromName: fromName, FromAddr: fromAddr}
}

func (c *Config) Send(to, subject, body string, html bool) error {
	if to == "" {
		log.Warn().Msg("[email] empty recipient")
		return fmt.Errorf("destinatario de correo vacío")
	}
	if c.Host == "" {
		log.Warn().Str("to", to).Msg("[email] SMTP host not configured")
		return fmt.Errorf("servidor SMTP no configurado")
	}
	if c.FromAddr == "" {
		log.Warn().Str("to", to).Msg("[email] SMTP from address not configured")
		return fmt.Errorf("remitente SMTP no configurado")
	}
	port := c.Port
	if port == 0 {
		port = 25
	}
	addr := fmt.Sprintf("%s:%d", c.Host, port)
	log.Info().Str("to", to).Str("subject", subject).Str("addr", addr).Msg("[email] sending")

	msg := buildMessage(c.from(), to, subject, body, html)
	if err := smtp.SendMail(addr, c.authForSend(), c.FromAddr, []string{to}, msg); err != nil {
		log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("[email] send failed")
		return err
	}
	log.Info().Str("to", to).Str("subject", subject).Msg("[email] sent")
	return nil
}

func (c *Config) from() string {
	if c.FromName == "" {
		return c.FromAddr
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", c.FromName), c.FromAddr)
}

func buildMessage(from, to, subject, body string, html bool) []byte {
	ctype := "text/plain; charset=UTF-8"
	if html {
		ctype = "text/html; charset=UTF-8"
	}
	var buf bytes.Buffer
	// fixed header order keeps messages reproducible
	for _, h := range [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"MIME-Version", "1.0"},
		{"Content-Type", ctype},
	} {
		buf.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// authForSend returns nil when User is empty (e.g. MailHog), so no AUTH is sent.
func (c *Config) authForSend() smtp.Auth {
	if c.User != "" {
		return smtp.PlainAuth("", c.User, c.Pass, c.Host)
	}
	return nil
}

// LogConfigSummary logs the SMTP settings without the password.
func (c *Config) LogConfigSummary() {
	log.Info().
		Str("host", c.Host).
		Int("port", c.Port).
		Str("from", c.FromAddr).
		Bool("auth", c.User != "").
		Msg("[email] SMTP config")
	if c.Host == "" || c.FromAddr == "" {
		log.Warn().Msg("[email] host or from address empty; sends will fail")
	}
}

var medicalFormTpl = template.Must(template.New("form").Parse(`Hola {{.FullName}},

{{.Clinic}} le invita a completar su ficha médica antes de su próxima cita.
Ingrese al siguiente enlace (válido por {{.Days}} días):

{{.URL}}

Si no solicitó este mensaje, puede ignorarlo.`))

// SendMedicalFormLink emails a patient the public medical-form link.
func (c *Config) SendMedicalFormLink(to, fullName, clinic, formURL string, validDays int) error {
	if to == "" || formURL == "" {
		return fmt.Errorf("destinatario o enlace vacío")
	}
	var b bytes.Buffer
	if err := medicalFormTpl.Execute(&b, map[string]interface{}{
		"FullName": fullName,
		"Clinic":   clinic,
		"URL":      formURL,
		"Days":     validDays,
	}); err != nil {
		return err
	}
	return c.Send(to, "Ficha médica - "+clinic, b.String(), false)
}
