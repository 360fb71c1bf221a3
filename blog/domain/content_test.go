package domain

import (
	"strings"
	"sync"
	"testing"
)

func paragraph(text string) string {
	if text == "" {
		return ""
	}
	return "<p>" + text + "</p>\n"
}

func TestSplitContent(t *testing.T) {
	tests := []struct {
		name            string
		content         string
		wantDescription string
		wantBody        string
	}{
		{
			name:            "Genuine split",
			content:         "Hello world----this is the rest",
			wantDescription: "<p>Hello world</p>\n",
			wantBody:        "<p>Hello worldthis is the rest</p>\n",
		},
		{
			name:            "Empty prefix",
			content:         "----only trailing",
			wantDescription: "",
			wantBody:        "<p>only trailing</p>\n",
		},
		{
			name:            "Empty remainder",
			content:         "only leading----",
			wantDescription: "",
			wantBody:        "<p>only leading</p>\n",
		},
		{
			name:            "No separator",
			content:         "no separator here",
			wantDescription: "",
			wantBody:        "<p>no separator here</p>\n",
		},
		{
			name:            "Two dashes only",
			content:         "--",
			wantDescription: "",
			wantBody:        "<p>--</p>\n",
		},
		{
			name:            "Two separators",
			content:         "A----B----C",
			wantDescription: "<p>A</p>\n",
			wantBody:        "<p>AB----C</p>\n",
		},
		{
			name:            "Adjacent separators",
			content:         "A--------B",
			wantDescription: "<p>A</p>\n",
			wantBody:        "<p>A----B</p>\n",
		},
		{
			name:            "Separator only",
			content:         "----",
			wantDescription: "",
			wantBody:        "",
		},
		{
			name:            "Empty content",
			content:         "",
			wantDescription: "",
			wantBody:        "",
		},
		{
			name:            "Multi-byte text around separator",
			content:         "Saluton, ĉiuj----ĝis revido",
			wantDescription: "<p>Saluton, ĉiuj</p>\n",
			wantBody:        "<p>Saluton, ĉiujĝis revido</p>\n",
		},
		{
			name:            "Combining mark before separator",
			content:         "café----menu",
			wantDescription: "<p>café</p>\n",
			wantBody:        "<p>cafémenu</p>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SplitContent(tt.content, paragraph)
			if result.Description != tt.wantDescription {
				t.Errorf("Description = %q, want %q", result.Description, tt.wantDescription)
			}
			if result.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", result.Body, tt.wantBody)
			}
		})
	}
}

func TestSplitContent_DashRuns(t *testing.T) {
	tests := []struct {
		name            string
		content         string
		wantDescription string
		wantBody        string
	}{
		{
			name:     "Two dashes",
			content:  "first part--second part",
			wantBody: "<p>first part--second part</p>\n",
		},
		{
			name:     "Three dashes",
			content:  "first part---second part",
			wantBody: "<p>first part---second part</p>\n",
		},
		{
			// A five dash run contains the separator at its start; one dash is left behind.
			name:            "Five dashes",
			content:         "first part-----second part",
			wantDescription: "<p>first part</p>\n",
			wantBody:        "<p>first part-second part</p>\n",
		},
		{
			name:            "Six dashes",
			content:         "first part------second part",
			wantDescription: "<p>first part</p>\n",
			wantBody:        "<p>first part--second part</p>\n",
		},
		{
			name:            "Three dashes then separator",
			content:         "one---two----three",
			wantDescription: "<p>one---two</p>\n",
			wantBody:        "<p>one---twothree</p>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SplitContent(tt.content, paragraph)
			if result.Description != tt.wantDescription {
				t.Errorf("Description = %q, want %q", result.Description, tt.wantDescription)
			}
			if result.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", result.Body, tt.wantBody)
			}
		})
	}
}

func TestSplitContent_BodyRemovesOnlyLeftmostSeparator(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"a----b",
		"----",
		"--------",
		"x----y----z----",
		"a---b-----c",
	}

	for _, content := range inputs {
		t.Run(content, func(t *testing.T) {
			var rendered []string
			render := func(text string) string {
				rendered = append(rendered, text)
				return text
			}

			result := SplitContent(content, render)

			want := strings.Replace(content, ContentSeparator, "", 1)
			if result.Body != want {
				t.Errorf("Body = %q, want %q", result.Body, want)
			}
			if len(rendered) > 2 {
				t.Errorf("render called %d times, want at most 2", len(rendered))
			}
			if strings.Contains(result.Description, ContentSeparator) {
				t.Errorf("Description %q contains the separator", result.Description)
			}
			if !strings.HasPrefix(content, result.Description) {
				t.Errorf("Description %q is not a prefix of %q", result.Description, content)
			}
		})
	}
}

func TestSplitContent_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := SplitContent("teaser----rest", paragraph)
			if result.Description != "<p>teaser</p>\n" {
				t.Errorf("Description = %q", result.Description)
			}
		}()
	}
	wg.Wait()
}
