package email

import (
	"bytes"
	"html/template"
	"log"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	LeaveDecisionTmpl *template.Template
	WelcomeTmpl       *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	leaveDecisionTmpl, err := template.New("leaveDecision").Parse(leaveDecisionTemplate)
	if err != nil {
		return nil, err
	}

	welcomeTmpl, err := template.New("welcome").Parse(welcomeTemplate)
	if err != nil {
		return nil, err
	}

	log.Println("Email templates parsed successfully.")
	return &TemplateManager{
		LeaveDecisionTmpl: leaveDecisionTmpl,
		WelcomeTmpl:       welcomeTmpl,
	}, nil
}

// LeaveDecisionData holds the dynamic data for a leave decision email.
type LeaveDecisionData struct {
	Name      string
	LeaveType string
	StartDate string
	EndDate   string
	Decision  string
}

// WelcomeData holds the dynamic data for a welcome email.
type WelcomeData struct {
	Name string
	Link string
}

// GenerateLeaveDecisionEmailHTML executes the leave decision template.
func (tm *TemplateManager) GenerateLeaveDecisionEmailHTML(data LeaveDecisionData) (string, error) {
	var body bytes.Buffer
	if err := tm.LeaveDecisionTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// GenerateWelcomeEmailHTML executes the welcome template.
func (tm *TemplateManager) GenerateWelcomeEmailHTML(data WelcomeData) (string, error) {
	var body bytes.Buffer
	if err := tm.WelcomeTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// --- HTML Template Definitions ---

const leaveDecisionTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Leave Request Update</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Hello {{.Name}},</h2>
	<p>Your {{.LeaveType}} leave request for {{.StartDate}} to {{.EndDate}} has been <b>{{.Decision}}</b>.</p>
	<p>You can review the details in the operations dashboard.</p>
</body>
</html>
`

const welcomeTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Welcome Aboard</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Welcome to the team, {{.Name}}!</h2>
	<p>Your account has been created. Sign in to the operations dashboard here:</p>
	<p><a href="{{.Link}}">Open Dashboard</a></p>
</body>
</html>
`
