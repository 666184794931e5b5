package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reflex/internal/errors"
	"github.com/vango-dev/reflex/pkg/tmpl"
)

func renderCmd() *cobra.Command {
	var (
		template string
		file     string
		data     string
		globals  []string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template against JSON data",
		Long: `Render a ${...} template. The keys of --data become template
variables; --global values apply where data does not define the name.
Global values are parsed as JSON when possible, otherwise taken as strings.

Examples:
  reflex render --template 'Hello ${name}' --data '{"name": "b"}'
  reflex render --template '${greeting}, ${name}!' --global greeting=Hi --data '{"name": "b"}'
  reflex render --file page.tpl --data '{"items": [1, 2, 3]}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				template = string(b)
			}
			out, err := runRender(template, data, globals)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "", "Template text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the template from a file")
	cmd.Flags().StringVarP(&data, "data", "d", "{}", "JSON object whose keys are template variables")
	cmd.Flags().StringArrayVarP(&globals, "global", "g", nil, "Global variable as name=value (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("template", "file")
	cmd.MarkFlagsOneRequired("template", "file")

	return cmd
}

func runRender(template, data string, globals []string) (string, error) {
	gl, err := parseGlobals(globals)
	if err != nil {
		return "", err
	}

	var vars map[string]any
	if err := json.Unmarshal([]byte(data), &vars); err != nil {
		return "", errors.New(errors.CodeNotReactiveValue).
			WithDetail("--data must be a JSON object").Wrap(err)
	}

	engine := tmpl.NewEngine(tmpl.Options{Globals: gl})
	t, err := engine.Compile(template, tmpl.Keys(vars)...)
	if err != nil {
		return "", err
	}
	return t.Render(vars)
}

// parseGlobals parses name=value pairs.
func parseGlobals(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, errors.New(errors.CodeInvalidConfig).
				WithDetailf("global %q is not name=value", p)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[name] = v
	}
	return out, nil
}
