package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/tessro/stemdeck/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing stemdeck configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration values, defaults and environment overrides included.`,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(getConfigPath())
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values.`,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. The file is rejected if the result does not
validate.

Examples:
  stemdeck config set sync.drift_threshold_ms 30
  stemdeck config set storage.backend gcs
  stemdeck config set storage.bucket my-stems
  stemdeck config set tui.theme latte`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

// intKeys are the settings stored as integers.
var intKeys = map[string]bool{
	"sync.tick_interval_ms":   true,
	"sync.drift_threshold_ms": true,
	"sync.throttle_ms":        true,
	"audio.sample_rate":       true,
	"audio.buffer_ms":         true,
	"audio.time_update_ms":    true,
	"storage.url_expiry":      true,
	"usage.min_duration":      true,
	"tui.refresh_interval":    true,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(cfg)
	}

	// Pretty print as TOML
	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s. Run 'stemdeck config init' first", configPath)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	if err := config.Save(config.Default(), configPath); err != nil {
		return err
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	} else {
		fmt.Printf("Created config file: %s\n", configPath)
		fmt.Println("\nNext steps:")
		fmt.Println("  1. Point storage.root at your stems, or set storage.backend = \"gcs\" and storage.bucket")
		fmt.Println("  2. Run 'stemdeck init' to write a track manifest")
	}

	return nil
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.Path()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	configPath := getConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s. Run 'stemdeck config init' first", configPath)
	}

	// Decode without defaults or environment overrides so neither is
	// written back.
	current := &config.Config{}
	if _, err := toml.DecodeFile(configPath, current); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	// Round-trip through a raw map so only the named key changes.
	var raw map[string]any
	data, err := toml.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	section, field, ok := strings.Cut(key, ".")
	if !ok || section == "" || field == "" {
		return fmt.Errorf("invalid key format. Use 'section.key' (e.g., sync.throttle_ms)")
	}
	sectionMap, ok := raw[section].(map[string]any)
	if !ok {
		return fmt.Errorf("unknown config section %q", section)
	}
	if _, ok := sectionMap[field]; !ok {
		return fmt.Errorf("unknown config key %q", key)
	}

	if intKeys[key] {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("value must be an integer for %s", key)
		}
		sectionMap[field] = n
	} else {
		sectionMap[field] = value
	}

	updated := &config.Config{}
	data, err = toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := toml.Unmarshal(data, updated); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	check := *updated
	check.ApplyDefaults()
	if err := check.Validate(); err != nil {
		return fmt.Errorf("%s = %s rejected: %w", key, value, err)
	}
	if err := config.Save(updated, configPath); err != nil {
		return err
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	} else {
		fmt.Printf("Set %s = %s\n", key, value)
	}

	return nil
}
