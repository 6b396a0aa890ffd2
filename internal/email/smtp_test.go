package email

import (
	"strings"
	"testing"
)

func TestFromEnvPort(t *testing.T) {
	if c := FromEnv("h", "1025", "", "", "", "a@b"); c.Port != 1025 {
		t.Errorf("port: %d", c.Port)
	}
	if c := FromEnv("h", "x", "", "", "", "a@b"); c.Port != 25 {
		t.Errorf("fallback port: %d", c.Port)
	}
}

func TestSendValidatesConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		to   string
	}{
		{"no recipient", Config{Host: "h", FromAddr: "a@b"}, ""},
		{"no host", Config{FromAddr: "a@b"}, "x@y"},
		{"no from", Config{Host: "h"}, "x@y"},
	}
	for _, tc := range cases {
		if err := tc.cfg.Send(tc.to, "s", "b", false); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("Clinic <a@b>", "x@y", "Ficha médica", "hola", true))
	if !strings.Contains(msg, "Content-Type: text/html; charset=UTF-8\r\n") {
		t.Errorf("content type missing: %q", msg)
	}
	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Errorf("subject should be Q-encoded: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nhola") {
		t.Errorf("body: %q", msg)
	}
}

func TestSendMedicalFormLinkRequiresArgs(t *testing.T) {
	c := &Config{Host: "h", FromAddr: "a@b"}
	if err := c.SendMedicalFormLink("", "Ana", "Clinic", "http://x", 7); err == nil {
		t.Error("expected error for empty recipient")
	}
	if err := c.SendMedicalFormLink("a@b", "Ana", "Clinic", "", 7); err == nil {
		t.Error("expected error for empty url")
	}
}
