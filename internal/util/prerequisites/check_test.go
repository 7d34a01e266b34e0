package prerequisites

import (
	"strings"
	"testing"
)

func TestCheck(t *testing.T) {
	// Test with a tool that definitely exists - try multiple common tools
	// because different environments have different tools available
	possibleTools := []string{"go", "bash", "sh", "ls", "cat"}

	var foundTool string
	for _, tool := range possibleTools {
		results := Check([]Tool{{Name: tool, Required: false}})
		if len(results.Results) > 0 && results.Results[0].Found {
			foundTool = tool
			break
		}
	}

	if foundTool == "" {
		t.Skip("no common tools found in PATH, skipping test")
	}

	results := Check([]Tool{ClusterTool(foundTool)})

	if len(results.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results.Results))
	}
	if !results.Results[0].Found {
		t.Errorf("expected %s to be found", foundTool)
	}
	if results.Results[0].Path == "" {
		t.Errorf("expected path to be set")
	}
	if results.HasErrors() {
		t.Errorf("expected no errors")
	}
	if err := CheckClusterTool(foundTool); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckMissingTool(t *testing.T) {
	results := Check([]Tool{ClusterTool("nonexistent-oc-xyz123")})

	if !results.HasErrors() {
		t.Fatal("expected errors for missing required tool")
	}
	err := results.Error()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "nonexistent-oc-xyz123") {
		t.Errorf("expected error to name the tool, got %v", err)
	}
}

func TestCheckMissingOptionalTool(t *testing.T) {
	results := Check([]Tool{{Name: "nonexistent-tool-xyz123", Required: false}})

	if results.HasErrors() {
		t.Error("expected no errors for missing optional tool")
	}
	if results.Error() != nil {
		t.Error("expected nil error for missing optional tool")
	}
	if len(results.Missing) != 1 {
		t.Errorf("expected 1 missing tool, got %d", len(results.Missing))
	}
}

func TestClusterTool(t *testing.T) {
	tests := []struct {
		binary  string
		wantURL string
	}{
		{"kubectl", "https://kubernetes.io/docs/tasks/tools/"},
		{"oc", installURLs["oc"]},
		{"/usr/local/bin/oc", installURLs["oc"]},
		{"custom-kubectl", "https://kubernetes.io/docs/tasks/tools/"},
	}

	for _, tt := range tests {
		t.Run(tt.binary, func(t *testing.T) {
			tool := ClusterTool(tt.binary)
			if tool.Name != tt.binary {
				t.Errorf("expected name %q, got %q", tt.binary, tool.Name)
			}
			if !tool.Required {
				t.Error("expected cluster tool to be required")
			}
			if tool.InstallURL != tt.wantURL {
				t.Errorf("expected URL %q, got %q", tt.wantURL, tool.InstallURL)
			}
		})
	}
}
