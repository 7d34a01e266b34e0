// Package prerequisites checks that the cluster command line tool is
// installed before a run touches the cluster.
package prerequisites

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH, or a path.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string
}

var installURLs = map[string]string{
	"kubectl": "https://kubernetes.io/docs/tasks/tools/",
	"oc":      "https://docs.openshift.com/container-platform/latest/cli_reference/openshift_cli/getting-started-cli.html",
}

// ClusterTool returns the tool definition for the cluster command line
// tool named by binary.
func ClusterTool(binary string) Tool {
	url := installURLs[filepath.Base(binary)]
	if url == "" {
		url = installURLs["kubectl"]
	}
	return Tool{
		Name:        binary,
		Required:    true,
		Description: "Required for listing and applying ImageContentSourcePolicy resources",
		InstallURL:  url,
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool  Tool
	Found bool
	Path  string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// Check verifies that the specified tools are available.
func Check(tools []Tool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := exec.LookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// CheckClusterTool checks that binary is installed.
func CheckClusterTool(binary string) error {
	return Check([]Tool{ClusterTool(binary)}).Error()
}
