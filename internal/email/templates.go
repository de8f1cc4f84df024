package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type leadReassignedEmailData struct {
	baseEmailData
	RecipientName string
	LeadName      string
	LeadPhone     string
	PreviousOwner string
	Automatic     bool
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderLeadReassigned(data LeadReassignedEmail) (subject, content string, err error) {
	subjectFmt := subjectLeadReassignedFmt
	subheading := "Um lead foi transferido para você."
	if data.Automatic {
		subjectFmt = subjectLeadAutoReassignedFmt
		subheading = "O prazo de primeiro contato expirou e o lead foi remanejado para você."
	}

	content, err = renderEmailTemplate("lead_reassigned.html", leadReassignedEmailData{
		baseEmailData: baseEmailData{
			Title:      "Novo lead",
			Heading:    "Você recebeu um novo lead",
			Subheading: subheading,
		},
		RecipientName: data.RecipientName,
		LeadName:      data.LeadName,
		LeadPhone:     data.LeadPhone,
		PreviousOwner: data.PreviousOwner,
		Automatic:     data.Automatic,
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf(subjectFmt, data.LeadName), content, nil
}
