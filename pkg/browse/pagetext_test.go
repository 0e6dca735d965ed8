package browse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		wantTitle string
		wantDesc  string
		wantText  []string
		wantNot   []string
		truncated bool
	}{
		{
			name: "removes scripts and styles",
			input: `<html>
				<head>
					<title>Test Page</title>
					<meta name="description" content="Test description">
					<style>body { color: red; }</style>
				</head>
				<body>
					<h1 id="main-title">Hello World</h1>
					<p class="intro">This is a test.</p>
					<script>alert('evil');</script>
					<noscript>enable js</noscript>
				</body>
			</html>`,
			wantTitle: "Test Page",
			wantDesc:  "Test description",
			wantText:  []string{"Hello World", "This is a test."},
			wantNot:   []string{"alert", "color: red", "enable js", "Test Page"},
		},
		{
			name:     "one line per block",
			input:    `<ul><li>first</li><li>second <b>bold</b></li></ul><div>a<br>b</div>`,
			wantText: []string{"first\nsecond bold\na\nb"},
		},
		{
			name:      "truncates",
			input:     "<p>" + strings.Repeat("x", 50) + "</p>",
			maxLength: 10,
			wantText:  []string{strings.Repeat("x", 10) + "..."},
			truncated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(tt.input, tt.maxLength)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantDesc, got.Description)
			assert.Equal(t, tt.truncated, got.Truncated)
			for _, want := range tt.wantText {
				assert.Contains(t, got.Text, want)
			}
			for _, not := range tt.wantNot {
				assert.NotContains(t, got.Text, not)
			}
		})
	}
}
