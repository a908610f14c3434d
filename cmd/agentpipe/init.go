package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/backpack455/hack-mit-sub000/internal/config"
	"github.com/backpack455/hack-mit-sub000/internal/registry"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize an agentpipe project",
	Long: `Initialize a directory for use with agentpipe.

This command creates:
  - ` + config.ProjectConfigName + ` with commented defaults
  - .agentpipe/agents.yaml, an editable copy of the built-in agent catalog
  - .agentpipe/context/, where context documents are read from
  - .gitignore entries for the journal and logs

The directory argument is optional and defaults to the current directory.

Examples:
  agentpipe init              # Initialize current directory
  agentpipe init ./notes      # Initialize specific directory
  agentpipe init --force      # Overwrite existing files`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration files")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}

	fmt.Printf("Initializing agentpipe in %s...\n\n", absPath)

	for _, dir := range []string{
		filepath.Join(absPath, ".agentpipe", "context"),
		filepath.Join(absPath, ".agentpipe", "logs"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	printStatus("✓", "Created .agentpipe/", color.FgGreen)

	wrote, err := writeIfMissing(filepath.Join(absPath, config.ProjectConfigName), []byte(projectConfigTemplate), initForce)
	if err != nil {
		return err
	}
	reportWrite(config.ProjectConfigName, wrote)

	wrote, err = writeIfMissing(filepath.Join(absPath, ".agentpipe", "agents.yaml"), registry.DefaultYAML(), initForce)
	if err != nil {
		return err
	}
	reportWrite(".agentpipe/agents.yaml", wrote)

	if err := updateGitignore(absPath); err != nil {
		printStatus("⚠", "Could not update .gitignore: "+err.Error(), color.FgYellow)
	} else {
		printStatus("✓", "Updated .gitignore", color.FgGreen)
	}

	switch config.GetAPIKeySource(cfg) {
	case config.KeySourceNone:
		printStatus("⚠", "ANTHROPIC_API_KEY not set (generation will use fallback recommendations)", color.FgYellow)
	case config.KeySourceBedrock:
		printStatus("✓", "Using AWS Bedrock credentials", color.FgGreen)
	default:
		printStatus("✓", "Anthropic API key found", color.FgGreen)
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Drop a note into .agentpipe/context/ (for example notes.txt)")
	fmt.Println("  2. agentpipe generate")
	fmt.Println("  3. agentpipe execute <id>")
	return nil
}

// writeIfMissing writes data to path unless it exists and force is false.
// It reports whether the file was written.
func writeIfMissing(path string, data []byte, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

func reportWrite(name string, wrote bool) {
	if wrote {
		printStatus("✓", "Wrote "+name, color.FgGreen)
		return
	}
	printStatus("-", name+" already exists (use --force to overwrite)", color.FgHiBlack)
}

// updateGitignore adds agentpipe entries to .gitignore if not present
func updateGitignore(repoPath string) error {
	gitignorePath := filepath.Join(repoPath, ".gitignore")

	var existingContent string
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existingContent = string(data)
	}

	entries := []string{
		".agentpipe/state.db*",
		".agentpipe/logs/",
	}

	var missing []string
	for _, entry := range entries {
		if !strings.Contains(existingContent, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var newContent strings.Builder
	newContent.WriteString(existingContent)
	if len(existingContent) > 0 && !strings.HasSuffix(existingContent, "\n") {
		newContent.WriteString("\n")
	}
	newContent.WriteString("\n# agentpipe\n")
	for _, entry := range missing {
		newContent.WriteString(entry + "\n")
	}

	return os.WriteFile(gitignorePath, []byte(newContent.String()), 0644)
}

const projectConfigTemplate = `# agentpipe project configuration
# This file overrides defaults from ~/.config/agentpipe/config.yaml

registry:
  path: .agentpipe/agents.yaml

context:
  path: .agentpipe/context
  pattern: "*.txt"
#  max_bytes: 262144

# proposer:
#   max_tasks: 5
#   timeout: 60s

# runtime:
#   mode: llm          # or "command"
#   command: ""        # receives the JSON request on stdin
#   args: []
#   timeout: 2m

# retry:
#   max_attempts: 3
#   initial_backoff: 500ms
#   max_backoff: 5s

# state:
#   enabled: true
#   driver: sqlite     # or "sqlite3" (cgo)

# logging:
#   level: warn
`
