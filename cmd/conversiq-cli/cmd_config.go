package main

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"conversiq-server/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the environment configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := loadConfig(cmd); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configShowCmd.Flags().String("format", "yaml", "Output format: yaml, json, env")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	return writeConfig(cmd.OutOrStdout(), cfg.Redacted(), format)
}

func writeConfig(out io.Writer, cfg config.Config, format string) error {
	values := envValues(cfg)

	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(values); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(values)
	case "env":
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%s=%v\n", k, values[k])
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected yaml, json or env)", format)
	}
}

// envValues keys every configuration field by its environment variable name.
func envValues(cfg config.Config) map[string]any {
	values := make(map[string]any)
	v := reflect.ValueOf(cfg)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		switch field := v.Field(i).Interface().(type) {
		case time.Duration:
			values[name] = field.String()
		case []string:
			values[name] = strings.Join(field, ",")
		default:
			values[name] = field
		}
	}
	return values
}
