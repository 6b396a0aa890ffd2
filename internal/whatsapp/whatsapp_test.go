package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendBirthdayGreetingNotConfigured(t *testing.T) {
	for _, cfg := range []Config{
		{},
		{AuthToken: "token", From: "whatsapp:+15551234567"},
		{AccountSid: "sid", AuthToken: "token"},
	} {
		if err := NewClient(cfg).SendBirthdayGreeting(context.Background(), "987654321", "Ana", "Clinic"); err != nil {
			t.Errorf("%+v: expected no-op, got %v", cfg, err)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	c := NewClient(Config{})
	cases := map[string]string{
		"987 654 321":     "whatsapp:+51987654321",
		"+34 600 111 222": "whatsapp:+34600111222",
		"51987654321":     "whatsapp:+51987654321",
		"":                "",
		"abc":             "",
	}
	for in, want := range cases {
		if got := c.NormalizePhone(in); got != want {
			t.Errorf("%q: got %q want %q", in, got, want)
		}
	}
}

func TestSendBirthdayGreetingPostsToTwilio(t *testing.T) {
	var gotPath, gotTo, gotBody, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotTo = r.PostForm.Get("To")
		gotBody = r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(Config{AccountSid: "AC1", AuthToken: "tok", From: "+15551234567", BaseURL: srv.URL})
	if err := c.SendBirthdayGreeting(context.Background(), "987654321", "Ana", "Sonrisas"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/2010-04-01/Accounts/AC1/Messages.json" || gotUser != "AC1" {
		t.Errorf("path %q user %q", gotPath, gotUser)
	}
	if gotTo != "whatsapp:+51987654321" || !strings.Contains(gotBody, "Ana") || !strings.Contains(gotBody, "Sonrisas") {
		t.Errorf("to %q body %q", gotTo, gotBody)
	}
}

func TestSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad"}`, http.StatusBadRequest)
	}))
	defer srv.Close()
	c := NewClient(Config{AccountSid: "AC1", AuthToken: "tok", From: "whatsapp:+1555", BaseURL: srv.URL})
	err := c.SendBirthdayGreeting(context.Background(), "987654321", "Ana", "X")
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Errorf("expected error with body, got %v", err)
	}
}
