// Package templates renders outreach email subjects and bodies from a YAML
// template file with provider/contact merge fields.
package templates

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"text/template"

	"outreach_server/core/domain"

	"gopkg.in/yaml.v3"
)

// EmailTemplate is one named outreach template. Type maps onto the outreach
// type recorded when the template is sent.
type EmailTemplate struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
	Type    string `yaml:"type"`
}

type templateFile struct {
	Templates map[string]EmailTemplate `yaml:"templates"`
}

// Vars are the merge fields available to templates.
type Vars struct {
	ProviderName  string
	DBAName       string
	Specialty     string
	SpecialtyInfo string
	NPI           string
	ProviderType  string
	Address       string
	States        string
	RecipientName string
	ContactTitle  string
	ContactEmail  string
	ContactPhone  string
}

// Registry holds parsed templates keyed by name.
type Registry struct {
	templates map[string]*parsedTemplate
}

type parsedTemplate struct {
	subject *template.Template
	body    *template.Template
	typ     domain.OutreachType
}

// defaultTemplates cover the two stock outreach flows when no template file
// is configured.
var defaultTemplates = map[string]EmailTemplate{
	"provider_outreach_cold": {
		Subject: "Partnership Opportunity with {{.ProviderName}}",
		Body: "Dear {{.RecipientName}},\n\n" +
			"We are reaching out to {{.ProviderName}}{{.SpecialtyInfo}} about joining our provider network. " +
			"We believe a partnership would be mutually beneficial and would welcome the chance to discuss rates and contract terms.\n\n" +
			"Please reply to this email or let us know a good time to connect.\n\n" +
			"Best regards,\nProvider Relations",
		Type: "cold",
	},
	"provider_outreach_follow_up": {
		Subject: "Following up: {{.ProviderName}} network participation",
		Body: "Dear {{.RecipientName}},\n\n" +
			"Following up on our earlier note about {{.ProviderName}} joining our provider network. " +
			"We'd still welcome the opportunity to discuss contract terms whenever convenient.\n\n" +
			"Best regards,\nProvider Relations",
		Type: "follow_up",
	},
}

// Load builds a registry from the YAML file at path. An empty path, or a
// missing file, yields the built-in defaults.
func Load(path string) (*Registry, error) {
	raw := defaultTemplates
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read templates: %w", err)
			}
		} else {
			var file templateFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("parse templates: %w", err)
			}
			if len(file.Templates) > 0 {
				raw = file.Templates
			}
		}
	}

	reg := &Registry{templates: make(map[string]*parsedTemplate, len(raw))}
	for name, t := range raw {
		subject, err := template.New(name + ".subject").Parse(t.Subject)
		if err != nil {
			return nil, fmt.Errorf("template %s subject: %w", name, err)
		}
		body, err := template.New(name + ".body").Parse(t.Body)
		if err != nil {
			return nil, fmt.Errorf("template %s body: %w", name, err)
		}
		typ := domain.OutreachType(t.Type)
		if typ == "" {
			typ = domain.OutreachCold
		}
		reg.templates[name] = &parsedTemplate{subject: subject, body: body, typ: typ}
	}
	return reg, nil
}

// Names lists registered template names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render produces the subject, body and outreach type for one template.
func (r *Registry) Render(name string, provider *domain.Provider, contact *domain.Contact) (subject, body string, typ domain.OutreachType, err error) {
	t, ok := r.templates[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown template: %s", name)
	}

	vars := buildVars(provider, contact)
	var subjBuf, bodyBuf bytes.Buffer
	if err := t.subject.Execute(&subjBuf, vars); err != nil {
		return "", "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := t.body.Execute(&bodyBuf, vars); err != nil {
		return "", "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return subjBuf.String(), bodyBuf.String(), t.typ, nil
}

func buildVars(provider *domain.Provider, contact *domain.Contact) *Vars {
	vars := &Vars{
		ProviderName:  provider.Name,
		DBAName:       provider.DBAName,
		Specialty:     provider.Specialty,
		NPI:           provider.NPI,
		ProviderType:  provider.ProviderType,
		Address:       provider.Address,
		States:        provider.StatesInContract,
		RecipientName: "Provider",
	}
	if provider.Specialty != "" {
		vars.SpecialtyInfo = " (" + provider.Specialty + ")"
	}
	if contact != nil {
		if contact.Name != "" {
			vars.RecipientName = contact.Name
		}
		vars.ContactTitle = contact.Title
		vars.ContactEmail = contact.Email
		vars.ContactPhone = contact.Phone
	}
	return vars
}
