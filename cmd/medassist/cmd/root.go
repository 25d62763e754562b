// Package cmd provides the CLI commands for the MedAssist client.
package cmd

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/medassist-client/internal/config"
	"github.com/spf13/cobra"
)

const defaultAppName = "MedAssist"

var (
	cfgFile      string
	outputFormat string
	traceSpans   bool
)

var rootCmd = &cobra.Command{
	Use:   "medassist",
	Short: "MedAssist - authenticated API client",
	Long: `medassist talks to the MedAssist backend on behalf of a signed-in user.

The access and refresh tokens are kept in a credential store (encrypted file,
redis or sqlite). Expired access tokens are refreshed transparently; when the
refresh token is rejected the stored session is cleared and you need to log in
again.

Configuration:
  Config is loaded from medassist.yaml in the current directory or
  $HOME/.medassist/. Environment variables override it with the MEDASSIST_
  prefix, e.g. MEDASSIST_API_BASE_URL=https://api.example.com/api

Commands:
  login       Sign in and store the session
  register    Create an account and sign in
  logout      Clear the stored session
  whoami      Show the signed-in user
  status      Show stored token state
  endpoints   List every API operation
  call        Invoke an API operation`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, _ []string) {
		displayAppname(appName(cfgFile))
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./medassist.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatJSON, "output format: json or yaml")
	rootCmd.PersistentFlags().BoolVar(&traceSpans, "trace", false, "print request spans to stderr")
}

// appName is the configured app_name, or the default when the config cannot be loaded.
func appName(configFile string) string {
	cfg, err := config.Load(configFile)
	if err != nil || cfg.GetAppName() == "" {
		return defaultAppName
	}
	return cfg.GetAppName()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
