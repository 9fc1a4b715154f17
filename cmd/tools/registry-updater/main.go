// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"crediflow/internal/common/validation"
	"crediflow/pkg/registry"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	if len(args) < 1 {
		help(out)
		return 1
	}

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportPath := exportCmd.String("path", "configs/activity-registry.json", "Where to write the built-in registry")
	force := exportCmd.Bool("force", false, "Overwrite an existing file")

	updateCmd := flag.NewFlagSet("update", flag.ContinueOnError)
	updatePath := updateCmd.String("path", "configs/activity-registry.json", "Path to registry file")
	id := updateCmd.String("id", "", "Activity ID to update")
	field := updateCmd.String("field", "", "Field to update (timeout, retries, displayName, description)")
	value := updateCmd.String("value", "", "New value for the field")

	validateCmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	validatePath := validateCmd.String("path", "configs/activity-registry.json", "Path to registry file")

	switch args[0] {
	case "export":
		if err := exportCmd.Parse(args[1:]); err != nil {
			return 1
		}
		if err := exportRegistry(*exportPath, *force); err != nil {
			fmt.Fprintf(out, "Error exporting registry: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "Wrote built-in registry to %s\n", *exportPath)

	case "update":
		if err := updateCmd.Parse(args[1:]); err != nil {
			return 1
		}
		if *id == "" || *field == "" || *value == "" {
			fmt.Fprintln(out, "Error: id, field, and value are required for update.")
			return 1
		}
		if err := updateActivity(*updatePath, *id, *field, *value); err != nil {
			fmt.Fprintf(out, "Error updating activity: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "Updated activity %s, field %s to %s\n", *id, *field, *value)

	case "validate":
		if err := validateCmd.Parse(args[1:]); err != nil {
			return 1
		}
		reg, err := registry.LoadRegistry(*validatePath)
		if err != nil {
			fmt.Fprintf(out, "Registry validation failed: %v\n", err)
			return 1
		}
		if err := validateRegistry(reg); err != nil {
			fmt.Fprintf(out, "Registry validation failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))

	default:
		help(out)
		if args[0] != "help" {
			return 1
		}
	}
	return 0
}

func exportRegistry(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	reg := registry.Default()
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return saveRegistry(reg, path)
}

func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	var activity *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			activity = &reg.Activities[i]
			break
		}
	}
	if activity == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "displayName":
		activity.DisplayName = value
	case "description":
		activity.Description = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		activity.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 0 {
			return fmt.Errorf("invalid retries value: %q", value)
		}
		activity.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return saveRegistry(reg, path)
}

// validateRegistry checks that every activity is addressable and that its
// schemas compile, so a worker never starts with a schema it cannot apply.
func validateRegistry(reg *registry.ActivityRegistry) error {
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, activity := range reg.Activities {
		if activity.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", activity.ID)
		}
		if taskTypes[activity.TaskType] {
			return fmt.Errorf("duplicate task type: %s", activity.TaskType)
		}
		taskTypes[activity.TaskType] = true

		if activity.Timeout != "" {
			if _, err := time.ParseDuration(activity.Timeout); err != nil {
				return fmt.Errorf("activity %s has invalid timeout %q", activity.ID, activity.Timeout)
			}
		}
		if len(activity.InputSchema) > 0 {
			if _, err := validation.Compile(activity.InputSchema); err != nil {
				return fmt.Errorf("activity %s input schema: %w", activity.ID, err)
			}
		}
		if len(activity.OutputSchema) > 0 {
			if _, err := validation.Compile(activity.OutputSchema); err != nil {
				return fmt.Errorf("activity %s output schema: %w", activity.ID, err)
			}
		}
	}
	return nil
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help(out io.Writer) {
	fmt.Fprintln(out, `
Usage: registry-updater <command> [flags]

Commands:
  export    Write the built-in agent tool registry to a file
  update    Update an existing activity's field
  validate  Validate a registry file
  help      Show this help message

Examples:
  registry-updater export -path configs/activity-registry.json
  registry-updater update -id tool-fetch-customer-profile -field timeout -value 15s
  registry-updater validate -path configs/activity-registry.json

Point ACTIVITY_REGISTRY_PATH at the file to have worker-manager load it.`)
}
