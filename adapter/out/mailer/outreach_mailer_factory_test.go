package mailer

import (
	"errors"
	"testing"

	"outreach_server/adapter/out/mailer/graph"
	"outreach_server/adapter/out/mailer/smtp"
	"outreach_server/core/domain"

	"github.com/rs/zerolog"
)

func TestBindPrefersGraph(t *testing.T) {
	backend, err := Bind(
		&graph.Config{ClientID: "c", ClientSecret: "s", TenantID: "t", UserEmail: "outreach@ours.example"},
		&smtp.Config{Host: "smtp.example", Port: 587, From: "outreach@ours.example"},
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if backend.Sender.BackendName() != "graph" {
		t.Errorf("backend = %s, want graph", backend.Sender.BackendName())
	}
	if !backend.ReplySyncAvailable() {
		t.Error("graph backend must support reply sync")
	}
}

func TestBindFallsBackToSMTP(t *testing.T) {
	backend, err := Bind(
		&graph.Config{},
		&smtp.Config{Host: "smtp.example", Port: 587, From: "outreach@ours.example"},
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if backend.Sender.BackendName() != "smtp" {
		t.Errorf("backend = %s, want smtp", backend.Sender.BackendName())
	}
	if backend.ReplySyncAvailable() {
		t.Error("smtp backend must not claim reply sync support")
	}
}

func TestBindPartialGraphCredentialsFallsBack(t *testing.T) {
	backend, err := Bind(
		&graph.Config{ClientID: "c", TenantID: "t"},
		&smtp.Config{Host: "smtp.example", Port: 587, From: "outreach@ours.example"},
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if backend.Sender.BackendName() != "smtp" {
		t.Error("incomplete graph credentials must not select graph")
	}
}

func TestBindWithoutCredentialsFails(t *testing.T) {
	_, err := Bind(&graph.Config{}, &smtp.Config{}, zerolog.Nop())
	if !errors.Is(err, domain.ErrMissingCredentials) {
		t.Errorf("Bind = %v, want ErrMissingCredentials", err)
	}
}
