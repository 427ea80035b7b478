package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/weightbot/internal/cli"
	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Connect weightbot to external services",
	}
	cmd.AddCommand(authSheetsCmd())
	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authorize Google Sheets export with OAuth2",
		Long: `Sheets prints a Google consent URL, waits for the browser to return to a
local callback, caches the token under the weightbot config directory and writes
the refresh token into config.yaml.

Service accounts (sheets.service_account_path) do not need this step.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 client ID, overrides sheets.client_id")
	cmd.Flags().String("client-secret", "", "OAuth2 client secret, overrides sheets.client_secret")
	cmd.Flags().Int("port", sheets.DefaultCallbackPort, "local callback port")
	cmd.Flags().Bool("force", false, "ignore the cached token and authenticate again")
	return cmd
}

// credential resolves a value from the flag, then viper, then the environment.
func credential(cmd *cobra.Command, flag, key, envVar string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	return os.Getenv(envVar)
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	clientID := credential(cmd, "client-id", "sheets.client_id", "GOOGLE_SHEETS_CLIENT_ID")
	clientSecret := credential(cmd, "client-secret", "sheets.client_secret", "GOOGLE_SHEETS_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return common.NewUserError("OAuth2 client credentials are required: set sheets.client_id and sheets.client_secret or pass --client-id and --client-secret", common.ErrMissingConfig)
	}

	dir, err := configDirectory()
	if err != nil {
		return err
	}
	port, _ := cmd.Flags().GetInt("port")
	oauthConfig := sheets.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    filepath.Join(dir, "sheets-token.json"),
		CallbackPort: port,
	}
	slog.Info("Authorizing Google Sheets", "token_file", oauthConfig.TokenFile)

	authenticate := sheets.GetOrCreateToken
	if force, _ := cmd.Flags().GetBool("force"); force {
		authenticate = sheets.AuthenticateOAuth2Interactive
	}
	token, err := authenticate(cmd.Context(), oauthConfig)
	if err != nil {
		return fmt.Errorf("google sheets authorization: %w", err)
	}

	viper.Set("sheets.client_id", clientID)
	viper.Set("sheets.client_secret", clientSecret)
	viper.Set("sheets.refresh_token", token.RefreshToken)

	out := cmd.OutOrStdout()
	if err := saveConfig(); err != nil {
		slog.Warn("Could not write refresh token to config", "error", err)
		printLine(out, cli.FormatWarning("Could not save the refresh token; add this to your config.yaml:"))
		printLine(out, fmt.Sprintf("sheets:\n  refresh_token: %q", token.RefreshToken))
		return nil
	}

	printLine(out, cli.FormatSuccess("Google Sheets is configured. Run 'weightbot export sheets <file>' to export estimates."))
	return nil
}

// configDirectory returns $XDG_CONFIG_HOME/weightbot, falling back to ~/.config/weightbot.
func configDirectory() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "weightbot"), nil
}

// saveConfig writes viper's settings back to the config file in use, or to
// config.yaml in configDirectory when none was loaded.
func saveConfig() error {
	path := viper.ConfigFileUsed()
	if path == "" {
		dir, err := configDirectory()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return viper.WriteConfigAs(path)
}
