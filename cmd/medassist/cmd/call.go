package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/medassist-client/services"
	"github.com/spf13/cobra"
)

var (
	callParams  []string
	callFilters []string
	callData    string
)

var endpointsCmd = &cobra.Command{
	Use:   "endpoints [group]",
	Short: "List every API operation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "OPERATION\tMETHOD\tPATH\tFLAGS")
		for _, e := range services.Endpoints() {
			if len(args) == 1 && e.Group != args[0] {
				continue
			}
			var flags []string
			if e.Filters {
				flags = append(flags, "filters")
			}
			if e.Body {
				flags = append(flags, "body")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Op(), e.Method, e.Path, strings.Join(flags, ","))
		}
		return tw.Flush()
	},
}

var callCmd = &cobra.Command{
	Use:   "call <group.operation>",
	Short: "Invoke an API operation",
	Example: `  medassist call appointments.list --filter status=scheduled
  medassist call appointments.cancel --param id=12
  medassist call chat.send --data '{"message":"I have a headache"}' -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		callArgs, err := buildArgs(callParams, callFilters, callData)
		if err != nil {
			return err
		}
		// fail on a bad operation or missing parameter before touching config or network
		if _, err := services.Request(args[0], callArgs); err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			body, err := a.session.Services().Call(ctx, args[0], callArgs)
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), outputFormat, body)
		})
	},
}

func buildArgs(params, filters []string, data string) (services.Args, error) {
	var out services.Args

	if len(params) > 0 {
		out.Params = make(map[string]string, len(params))
		for _, p := range params {
			k, v, err := splitPair(p)
			if err != nil {
				return out, fmt.Errorf("--param: %w", err)
			}
			out.Params[k] = v
		}
	}

	if len(filters) > 0 {
		out.Filters = url.Values{}
		for _, f := range filters {
			k, v, err := splitPair(f)
			if err != nil {
				return out, fmt.Errorf("--filter: %w", err)
			}
			out.Filters.Add(k, v)
		}
	}

	if data != "" {
		var body json.RawMessage
		if err := json.Unmarshal([]byte(data), &body); err != nil {
			return out, fmt.Errorf("--data must be valid JSON: %w", err)
		}
		out.Body = body
	}
	return out, nil
}

func splitPair(s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", s)
	}
	return k, v, nil
}

func init() {
	callCmd.Flags().StringArrayVar(&callParams, "param", nil, "path parameter as key=value (repeatable)")
	callCmd.Flags().StringArrayVar(&callFilters, "filter", nil, "query filter as key=value (repeatable)")
	callCmd.Flags().StringVar(&callData, "data", "", "JSON request body")

	rootCmd.AddCommand(endpointsCmd, callCmd)
}
