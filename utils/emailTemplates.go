package utils

import (
	"bytes"
	"html/template"
)

const emailLayout = `{{define "layout"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
	<div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
		<h2 style="color: {{.Color}};">{{.Title}}</h2>
		{{template "content" .}}
		<p>Best regards,<br>Student Placement Team</p>
	</div>
</body>
</html>{{end}}`

var layout = template.Must(template.New("email").Parse(emailLayout))

func emailTemplate(content string) *template.Template {
	return template.Must(template.Must(layout.Clone()).Parse(`{{define "content"}}` + content + `{{end}}`))
}

var (
	otpTemplate = emailTemplate(`
		<p>Hello {{.Name}},</p>
		<p>Your OTP code is:</p>
		<div style="background-color: #f3f4f6; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 8px; margin: 20px 0;">{{.Code}}</div>
		<p>This code will expire in {{.Minutes}} {{if eq .Minutes 1}}minute{{else}}minutes{{end}}.</p>
		<p>If you didn't request this code, please ignore this email.</p>`)

	submittedTemplate = emailTemplate(`
		<p>Hello {{.Name}},</p>
		<p>Your application has been submitted successfully!</p>
		<div style="background-color: #f3f4f6; padding: 20px; margin: 20px 0; border-left: 4px solid #3b82f6;">
			<p><strong>Position:</strong> {{.JobTitle}}</p>
			<p><strong>Company:</strong> {{.Company}}</p>
			<p><strong>Status:</strong> Pending Review</p>
		</div>
		<p>We'll notify you once your application has been reviewed.</p>`)

	newApplicantTemplate = emailTemplate(`
		<p>A new application has been submitted:</p>
		<div style="background-color: #f3f4f6; padding: 20px; margin: 20px 0;">
			<p><strong>Student:</strong> {{.Name}}</p>
			<p><strong>Position:</strong> {{.JobTitle}}</p>
			<p><strong>Status:</strong> Pending Review</p>
		</div>
		<p>Please review the application in your admin dashboard.</p>`)

	acceptedTemplate = emailTemplate(`
		<p>Hello {{.Name}},</p>
		<p>Great news! Your application has been accepted.</p>
		<div style="background-color: #f0fdf4; padding: 20px; margin: 20px 0; border-left: 4px solid #10b981;">
			<p><strong>Position:</strong> {{.JobTitle}}</p>
			<p><strong>Company:</strong> {{.Company}}</p>
			<p><strong>Status:</strong> Accepted</p>
		</div>
		<p>The company will contact you soon with next steps.</p>`)

	declinedTemplate = emailTemplate(`
		<p>Hello {{.Name}},</p>
		<p>Thank you for your interest in the position.</p>
		<div style="background-color: #fef2f2; padding: 20px; margin: 20px 0; border-left: 4px solid #ef4444;">
			<p><strong>Position:</strong> {{.JobTitle}}</p>
			<p><strong>Company:</strong> {{.Company}}</p>
			<p><strong>Status:</strong> Not Selected</p>
		</div>
		<p>While you weren't selected for this role, we encourage you to keep applying to other opportunities.</p>`)
)

type emailData struct {
	Title    string
	Color    string
	Name     string
	Code     string
	Minutes  int
	JobTitle string
	Company  string
}

func render(t *template.Template, subject string, data emailData) (EmailContent, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return EmailContent{}, err
	}
	return EmailContent{Subject: subject, HTML: buf.String()}, nil
}

// OTPEmail renders the login code mail. minutes must be the enforced TTL.
func OTPEmail(name, code string, minutes int) (EmailContent, error) {
	return render(otpTemplate, "Your OTP Code - Student Placement System", emailData{
		Title: "Welcome to Student Placement System", Color: "#3b82f6",
		Name: name, Code: code, Minutes: minutes,
	})
}

func ApplicationSubmittedEmail(studentName, jobTitle, company string) (EmailContent, error) {
	return render(submittedTemplate, "Application Submitted - "+jobTitle, emailData{
		Title: "Application Submitted Successfully", Color: "#3b82f6",
		Name: studentName, JobTitle: jobTitle, Company: company,
	})
}

func NewApplicantEmail(studentName, jobTitle string) (EmailContent, error) {
	return render(newApplicantTemplate, "New Application Received - "+jobTitle, emailData{
		Title: "New Application Received", Color: "#3b82f6",
		Name: studentName, JobTitle: jobTitle,
	})
}

func ApplicationAcceptedEmail(studentName, jobTitle, company string) (EmailContent, error) {
	return render(acceptedTemplate, "Application Accepted - "+jobTitle, emailData{
		Title: "Congratulations! Your Application Has Been Accepted", Color: "#10b981",
		Name: studentName, JobTitle: jobTitle, Company: company,
	})
}

func ApplicationDeclinedEmail(studentName, jobTitle, company string) (EmailContent, error) {
	return render(declinedTemplate, "Application Update - "+jobTitle, emailData{
		Title: "Application Status Update", Color: "#ef4444",
		Name: studentName, JobTitle: jobTitle, Company: company,
	})
}
