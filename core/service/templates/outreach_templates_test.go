package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"outreach_server/core/domain"
)

func testProvider() *domain.Provider {
	p := domain.NewProvider("Lakeside Imaging")
	p.Specialty = "Radiology"
	p.NPI = "1234567890"
	return p
}

func testContact() *domain.Contact {
	c := domain.NewContact("prov-1", "Dr. Jones")
	c.Email = "dr.jones@clinic.example"
	c.Title = "Medical Director"
	return c
}

func TestLoadDefaults(t *testing.T) {
	reg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	names := reg.Names()
	want := []string{"provider_outreach_cold", "provider_outreach_follow_up"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	reg, err := Load("/nonexistent/templates.yaml")
	if err != nil {
		t.Fatalf("Load should fall back on missing file, got %v", err)
	}
	if len(reg.Names()) == 0 {
		t.Error("expected default templates")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	content := `templates:
  custom_intro:
    subject: "Hello {{.ProviderName}}"
    body: "Dear {{.RecipientName}}, regarding {{.Specialty}}."
    type: cold
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	subject, body, typ, err := reg.Render("custom_intro", testProvider(), testContact())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if subject != "Hello Lakeside Imaging" {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(body, "Dear Dr. Jones") {
		t.Errorf("body = %q", body)
	}
	if !strings.Contains(body, "Radiology") {
		t.Errorf("body missing specialty: %q", body)
	}
	if typ != domain.OutreachCold {
		t.Errorf("type = %s, want cold", typ)
	}
}

func TestRenderDefaults(t *testing.T) {
	reg, _ := Load("")

	subject, body, typ, err := reg.Render("provider_outreach_cold", testProvider(), testContact())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(subject, "Lakeside Imaging") {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(body, "(Radiology)") {
		t.Errorf("body missing specialty info: %q", body)
	}
	if typ != domain.OutreachCold {
		t.Errorf("type = %s", typ)
	}
}

func TestRenderWithoutContactUsesGenericRecipient(t *testing.T) {
	reg, _ := Load("")

	_, body, _, err := reg.Render("provider_outreach_follow_up", testProvider(), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(body, "Dear Provider") {
		t.Errorf("body = %q, want generic recipient", body)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	reg, _ := Load("")
	if _, _, _, err := reg.Render("no_such_template", testProvider(), testContact()); err == nil {
		t.Fatal("expected error")
	}
}
