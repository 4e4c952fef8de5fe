package mailer

import (
	"fmt"
	"html"
	"strings"
	"time"
)

const programName = "Affiliate Fellowship Program"

type message struct {
	Subject string
	HTML    string
}

func layout(content, statusColor string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; border: 1px solid #ddd; border-radius: 5px; overflow: hidden;">`)
	b.WriteString(`<div style="background-color: #f8f9fa; text-align: center; padding: 20px 0;"><h2 style="margin-top: 10px; color: #333;">` + programName + `</h2></div>`)
	b.WriteString(`<div style="background-color: ` + statusColor + `; height: 10px;"></div>`)
	b.WriteString(`<div style="padding: 20px; background-color: white;">` + content + `</div>`)
	b.WriteString(fmt.Sprintf(`<div style="background-color: #f8f9fa; padding: 15px; text-align: center; font-size: 12px; color: #666;"><p>&copy; %d %s. All rights reserved.</p></div>`, time.Now().UTC().Year(), programName))
	b.WriteString(`</div>`)
	return b.String()
}

func otpMessage(name, code string, ttl time.Duration) message {
	content := fmt.Sprintf(`
<h2 style="color: #3498db;">Your Login Code</h2>
<p>Dear %s,</p>
<p>Use the following one-time code to complete your admin login:</p>
<p style="text-align: center; font-size: 32px; letter-spacing: 8px; font-weight: bold; margin: 30px 0;">%s</p>
<p>This code expires in %d minutes. If you did not request it, you can ignore this email.</p>`,
		html.EscapeString(name), html.EscapeString(code), int(ttl.Minutes()))
	return message{
		Subject: "Your one-time login code - " + programName,
		HTML:    layout(content, "#3498db"),
	}
}

func acknowledgmentMessage(name string) message {
	content := fmt.Sprintf(`
<h2 style="color: #3498db;">Application Received</h2>
<p>Dear %s,</p>
<p>Thank you for submitting your application to the %s.</p>
<p>Your application has been received and is under review. Should your application proceed to the next stage, we will contact you with further instructions.</p>
<p style="margin-top: 20px;">Kind regards,<br><strong>Fellowship Coordination Team</strong></p>`,
		html.EscapeString(name), programName)
	return message{
		Subject: "Application Received - " + programName,
		HTML:    layout(content, "#3498db"),
	}
}

func approvalMessage(name, submissionURL string) message {
	url := html.EscapeString(submissionURL)
	content := fmt.Sprintf(`
<p>Dear %s,</p>
<p>Thank you for your interest in the %s.</p>
<p>You've been selected to proceed to the next phase. Please submit the required documents here:</p>
<p style="text-align: center; margin: 30px 0;"><a href="%s" style="display: inline-block; background-color: #2ecc71; color: white; padding: 15px 30px; text-decoration: none; border-radius: 4px; font-weight: bold;">Submit Documents</a></p>
<p>If the button above doesn't work, copy and paste the following URL into your browser:</p>
<p style="background-color: #f8f9fa; padding: 10px; border-radius: 4px; word-break: break-all;"><a href="%s">%s</a></p>
<p style="margin-top: 20px;">Kind regards,<br><strong>Fellowship Coordination Team</strong></p>`,
		html.EscapeString(name), programName, url, url, url)
	return message{
		Subject: "Fellowship Application - Additional Documents Required",
		HTML:    layout(content, "#2ecc71"),
	}
}

func rejectionMessage(name, reason, customBody string) message {
	var content string
	if strings.TrimSpace(customBody) != "" {
		content = customBody
	} else {
		content = fmt.Sprintf(`
<h2 style="color: #e74c3c;">Application Update</h2>
<p>Dear %s,</p>
<p>Thank you for your application to the %s. After careful review, we regret to inform you that your application has not been successful.</p>
<p style="background-color: #f8f9fa; padding: 10px; border-radius: 4px;">%s</p>
<p>We appreciate the time you invested and encourage you to apply again in the future.</p>
<p style="margin-top: 20px;">Kind regards,<br><strong>Fellowship Coordination Team</strong></p>`,
			html.EscapeString(name), programName, html.EscapeString(reason))
	}
	return message{
		Subject: "Fellowship Application Update - " + programName,
		HTML:    layout(content, "#e74c3c"),
	}
}

// fundingInfoRequestMessage asks the applicant for budget and sustainability
// details. A non-blank customMessage replaces the standard checklist; an
// empty formURL omits the submission button.
func fundingInfoRequestMessage(name, formURL, customMessage string) message {
	var body string
	if strings.TrimSpace(customMessage) != "" {
		body = `<div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">` +
			strings.ReplaceAll(html.EscapeString(customMessage), "\n", "<br>") + `</div>`
	} else {
		body = fmt.Sprintf(`
<p>Thank you for your application to the %s. We have reviewed your application and need some additional information regarding your project funding and sustainability.</p>
<div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
  <h3 style="color: #333; margin-top: 0;">Required Information:</h3>
  <ul style="margin: 10px 0; padding-left: 20px;">
    <li><strong>Estimated Budget:</strong> What is the estimated budget for your project?</li>
    <li><strong>Funding Sources:</strong> What are the potential or secured sources of funding?</li>
    <li><strong>Funding Status:</strong> Is funding secured or not yet secured?</li>
    <li><strong>Proof of Funding:</strong> If funding is secured, please attach proof</li>
    <li><strong>Funding Plan:</strong> If funding is not yet secured, please attach your plan to obtain financial support</li>
    <li><strong>Sustainability Plan:</strong> How will the project be sustained beyond the fellowship period?</li>
  </ul>
</div>`, programName)
	}

	content := fmt.Sprintf(`
<h2 style="color: #f39c12;">Additional Information Required</h2>
<p>Dear %s,</p>
%s`, html.EscapeString(name), body)

	if formURL != "" {
		url := html.EscapeString(formURL)
		content += fmt.Sprintf(`
<p>Please click the button below to complete this information:</p>
<p style="text-align: center; margin: 30px 0;"><a href="%s" style="display: inline-block; background-color: #f39c12; color: white; padding: 15px 30px; text-decoration: none; border-radius: 4px; font-weight: bold;">Submit Funding Information</a></p>
<p>If the button above doesn't work, copy and paste the following URL into your browser:</p>
<p style="background-color: #f8f9fa; padding: 10px; border-radius: 4px; word-break: break-all;"><a href="%s">%s</a></p>`, url, url, url)
	}
	content += `
<p style="margin-top: 20px;">Kind regards,<br><strong>Fellowship Coordination Team</strong></p>`

	return message{
		Subject: "Additional Information Required - " + programName,
		HTML:    layout(content, "#f39c12"),
	}
}

func statusMessage(name, status string) message {
	var body, color string
	switch status {
	case "received":
		color = "#2ecc71"
		body = "We confirm that all of your required documents have been received. The coordination team will contact you with the next steps."
	case "reviewed":
		color = "#f39c12"
		body = "Your application has been reviewed and is progressing through our selection process."
	default:
		color = "#3498db"
		body = fmt.Sprintf("The status of your application is now: <strong>%s</strong>.", html.EscapeString(status))
	}
	content := fmt.Sprintf(`
<h2 style="color: %s;">Application Status Update</h2>
<p>Dear %s,</p>
<p>%s</p>
<p style="margin-top: 20px;">Kind regards,<br><strong>Fellowship Coordination Team</strong></p>`,
		color, html.EscapeString(name), body)
	return message{
		Subject: "Application Status Update - " + programName,
		HTML:    layout(content, color),
	}
}
