package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/crewhub/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain text unchanged", in: "Pour footings at 7", want: "Pour footings at 7"},
		{name: "strips tags keeps text", in: "<b>Bold</b> move", want: "Bold move"},
		{name: "drops script body", in: "hi<script>alert('x')</script>", want: "hi"},
		{name: "decodes entities", in: "Tom &amp; Jerry", want: "Tom & Jerry"},
		{name: "ampersand survives", in: "2 & 3", want: "2 & 3"},
		{name: "only markup", in: "<p></p>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHasMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"Kitchen remodel - 14 Elm St", false},
		{"👍", false},
		{"2 & 3", false},
		{"it's \"done\"", false},
		{"<b>x</b>", true},
		{"<img src=x onerror=alert(1)>", true},
		{"Tom &amp; Jerry", true},
	}

	for _, tt := range tests {
		if got := htmlsanitize.HasMarkup(tt.in); got != tt.want {
			t.Errorf("HasMarkup(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
