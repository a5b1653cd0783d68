package summary

import (
	"fmt"
	"html/template"
	"strings"
)

// emailTemplate renders a Report as a self-contained HTML document for
// delivery to meeting participants.
var emailTemplate = template.Must(template.New("summary-email").Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
h1 { color: #2c3e50; }
h2 { color: #3498db; margin-top: 20px; }
.summary { margin-bottom: 20px; }
.key-points { margin-bottom: 20px; }
.action-items { margin-bottom: 20px; }
.action-item { margin-bottom: 10px; }
.transcript { font-size: 0.9em; color: #7f8c8d; margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; }
</style>
</head>
<body>
<h1>Meeting Summary</h1>

<div class="summary">
<h2>Summary</h2>
<p>{{if .Summary}}{{.Summary}}{{else}}No summary available.{{end}}</p>
</div>

<div class="key-points">
<h2>Key Points</h2>
<ul>
{{- if .KeyPoints}}
{{- range .KeyPoints}}
<li>{{.}}</li>
{{- end}}
{{- else}}
<li>No key points identified.</li>
{{- end}}
</ul>
</div>

<div class="action-items">
<h2>Action Items</h2>
<ul>
{{- if .ActionItems}}
{{- range .ActionItems}}
<li class="action-item"><strong>{{.Assignee}}</strong>: {{.Task}}</li>
{{- end}}
{{- else}}
<li>No action items identified.</li>
{{- end}}
</ul>
</div>

<div class="participants">
<h2>Participants</h2>
<p>{{if .SpeakerList}}{{.SpeakerList}}{{else}}No participants identified.{{end}}</p>
</div>

<div class="transcript">
<h2>Full Transcript</h2>
<pre>{{.Transcript}}</pre>
</div>
</body>
</html>
`))

// emailData adapts a Report for the template.
type emailData struct {
	*Report
	SpeakerList string
}

// RenderEmail renders the report as HTML suitable for the email body.
// html/template escapes transcript and LLM output automatically.
func (r *Report) RenderEmail() (string, error) {
	var b strings.Builder
	data := emailData{Report: r, SpeakerList: strings.Join(r.Speakers, ", ")}
	if err := emailTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("summary: render email: %w", err)
	}
	return b.String(), nil
}
