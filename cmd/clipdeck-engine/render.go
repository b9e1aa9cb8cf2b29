package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clipdeck/clipdeck-engine/internal/config"
	"github.com/clipdeck/clipdeck-engine/internal/logging"
	"github.com/clipdeck/clipdeck-engine/internal/template"
)

func newRenderCommand(configFlag *string) *cobra.Command {
	var (
		templatePath string
		sourceURL    string
		outputPath   string
		vars         []string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template against a source video, synchronously",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, *configFlag, templatePath, sourceURL, outputPath, vars)
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Template JSON file (required)")
	cmd.Flags().StringVarP(&sourceURL, "source", "s", "", "Source video URL (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: <template name>.<format>)")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "Content variable as key=value (repeatable)")
	cmd.MarkFlagRequired("template")
	cmd.MarkFlagRequired("source")

	return cmd
}

func runRender(cmd *cobra.Command, configPath, templatePath, sourceURL, outputPath string, vars []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(cfg.Paths.WorkDir, 0755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	logger := logging.NewLogger(cfg.Logging.Level)

	data, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	var tpl template.Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	contentVars, err := parseVars(vars)
	if err != nil {
		return err
	}

	_, _, comp, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	result, err := comp.Render(cmd.Context(), &tpl, sourceURL, contentVars)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if outputPath == "" {
		name := tpl.Name
		if name == "" {
			name = "render"
		}
		outputPath = fmt.Sprintf("%s.%s", name, result.Format)
	}

	if err := os.WriteFile(outputPath, result.Data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "rendered %d scenes (%.2fs) to %s (%d bytes)\n",
		result.SceneCount, result.Duration, outputPath, len(result.Data))
	return nil
}

func parseVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", p)
		}
		out[key] = value
	}
	return out, nil
}
