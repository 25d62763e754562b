package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	loginEmail         string
	loginPassword      string
	loginPasswordStdin bool

	registerEmail     string
	registerPassword  string
	registerFirstName string
	registerLastName  string
	registerData      string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			u, err := a.session.Login(ctx, loginEmail, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Signed in as %s\n", u.DisplayName())
			return printValue(cmd.OutOrStdout(), outputFormat, u)
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		body := map[string]any{}
		if registerData != "" {
			if err := json.Unmarshal([]byte(registerData), &body); err != nil {
				return fmt.Errorf("--data must be a JSON object: %w", err)
			}
		}
		setIfNotEmpty(body, "email", registerEmail)
		setIfNotEmpty(body, "password", registerPassword)
		setIfNotEmpty(body, "first_name", registerFirstName)
		setIfNotEmpty(body, "last_name", registerLastName)
		if p, ok := body["password"]; ok {
			if _, set := body["password2"]; !set {
				body["password2"] = p
			}
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			res, err := a.session.Register(ctx, body)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Registered %s\n", res.User.DisplayName())
			return printValue(cmd.OutOrStdout(), outputFormat, res.User)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.session.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			u, err := a.session.Restore(ctx)
			if err != nil {
				return err
			}
			if u == nil {
				return errors.New("not signed in")
			}
			return printValue(cmd.OutOrStdout(), outputFormat, u)
		})
	},
}

func readPassword(cmd *cobra.Command) (string, error) {
	if !loginPasswordStdin {
		if loginPassword == "" {
			return "", errors.New("--password or --password-stdin is required")
		}
		return loginPassword, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password from stdin")
	_ = loginCmd.MarkFlagRequired("email")

	registerCmd.Flags().StringVar(&registerEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "account password")
	registerCmd.Flags().StringVar(&registerFirstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&registerLastName, "last-name", "", "last name")
	registerCmd.Flags().StringVar(&registerData, "data", "", "extra registration fields as a JSON object")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}
