package summary

import (
	"strings"
	"testing"
)

func TestRenderEmail_FullReport(t *testing.T) {
	r := &Report{
		Summary: "The team aligned on the Friday launch.",
		ActionItems: []ActionItem{
			{Assignee: "Jo", Task: "update the release notes"},
		},
		KeyPoints:  []string{"Launch is set for Friday"},
		Speakers:   []string{"Sam", "Jo"},
		Transcript: "[10:00:00] Sam: Let's review the launch checklist.",
	}

	html, err := r.RenderEmail()
	if err != nil {
		t.Fatalf("RenderEmail: %v", err)
	}

	for _, want := range []string{
		"<h1>Meeting Summary</h1>",
		"The team aligned on the Friday launch.",
		"<strong>Jo</strong>: update the release notes",
		"<li>Launch is set for Friday</li>",
		"Sam, Jo",
		"Sam: Let&#39;s review the launch checklist.",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in email HTML", want)
		}
	}
}

func TestRenderEmail_EmptyReport(t *testing.T) {
	r := &Report{}
	html, err := r.RenderEmail()
	if err != nil {
		t.Fatalf("RenderEmail: %v", err)
	}

	for _, want := range []string{
		"No summary available.",
		"No key points identified.",
		"No action items identified.",
		"No participants identified.",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in email HTML", want)
		}
	}
}

func TestRenderEmail_EscapesTranscript(t *testing.T) {
	r := &Report{
		Summary:    "s",
		Transcript: "Sam: use <b>bold</b> tags",
	}
	html, err := r.RenderEmail()
	if err != nil {
		t.Fatalf("RenderEmail: %v", err)
	}
	if strings.Contains(html, "<b>bold</b>") {
		t.Error("expected transcript HTML to be escaped")
	}
	if !strings.Contains(html, "&lt;b&gt;bold&lt;/b&gt;") {
		t.Error("expected escaped transcript markup")
	}
}
