package extract

import (
	"strings"
	"testing"
)

func TestVisibleText_SkipsScriptsAndStyles(t *testing.T) {
	page := `
	<html>
	<head><style>body { color: red; }</style></head>
	<body>
		<script>var tracking = true;</script>
		<p>Global temperatures have risen since 1880.</p>
		<noscript>Enable JavaScript</noscript>
		<p>Sea levels are rising.</p>
	</body>
	</html>`

	text, err := VisibleText(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !strings.Contains(text, "Global temperatures have risen since 1880.") {
		t.Errorf("Expected paragraph text, got %q", text)
	}
	if !strings.Contains(text, "Sea levels are rising.") {
		t.Errorf("Expected second paragraph, got %q", text)
	}
	for _, hidden := range []string{"color: red", "tracking", "Enable JavaScript"} {
		if strings.Contains(text, hidden) {
			t.Errorf("Expected %q to be skipped, got %q", hidden, text)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Expected unchanged text, got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello" {
		t.Errorf("Expected 'hello', got %q", got)
	}
	if got := Truncate("hello", 0); got != "hello" {
		t.Errorf("Expected no limit for 0, got %q", got)
	}

	// "é" is two bytes; cutting inside it must back off
	if got := Truncate("café", 4); got != "caf" {
		t.Errorf("Expected 'caf', got %q", got)
	}
}
