package anonymize

import (
	"testing"

	"github.com/savegress/cliniredact/pkg/models"
)

func placeholder(t models.EntityType) string {
	return "<" + string(t) + ">"
}

func TestApply(t *testing.T) {
	text := "Call 416-555-1234 or email a@b.ca today."
	spans := []models.Span{
		{Start: 5, End: 17, EntityType: models.EntityPhone},
		{Start: 27, End: 33, EntityType: models.EntityEmail},
	}

	got := Apply(text, spans, placeholder)
	want := "Call <PHONE> or email <EMAIL> today."
	if got != want {
		t.Errorf("Apply() = %q, want %q", got, want)
	}
}

func TestApplyNoSpans(t *testing.T) {
	text := "nothing sensitive here"
	if got := Apply(text, nil, placeholder); got != text {
		t.Errorf("Apply() = %q, want original", got)
	}
}

func TestApplySpanAtEdges(t *testing.T) {
	text := "jane@x.ca wrote"
	spans := []models.Span{{Start: 0, End: 9, EntityType: models.EntityEmail}}
	if got := Apply(text, spans, placeholder); got != "<EMAIL> wrote" {
		t.Errorf("Apply() = %q", got)
	}

	text = "wrote to jane@x.ca"
	spans = []models.Span{{Start: 9, End: 18, EntityType: models.EntityEmail}}
	if got := Apply(text, spans, placeholder); got != "wrote to <EMAIL>" {
		t.Errorf("Apply() = %q", got)
	}
}

func TestApplyAdjacentSpans(t *testing.T) {
	text := "ab"
	spans := []models.Span{
		{Start: 0, End: 1, EntityType: models.EntityPhone},
		{Start: 1, End: 2, EntityType: models.EntityEmail},
	}
	if got := Apply(text, spans, placeholder); got != "<PHONE><EMAIL>" {
		t.Errorf("Apply() = %q", got)
	}
}
