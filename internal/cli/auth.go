package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"noren-desk/internal/session"
)

// addAuthCommands adds authentication commands.
func addAuthCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newLoginCmd(app))
	rootCmd.AddCommand(newLogoutCmd(app))
	rootCmd.AddCommand(newAuthStatusCmd(app))
}

func newLoginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Login to the broker",
		Long: `Login to the broker using the credentials in credentials.toml.

The two-factor code is generated from the configured TOTP secret, so no
interactive prompt is needed. The session token is stored under the
config directory and reused until it expires.`,
		Example: `  desk login`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			creds := app.Config.Credentials
			if creds.UID == "" || creds.Password == "" || creds.TOTPSecret == "" {
				output.Error("Login requires uid, password and totp_secret in credentials.toml")
				output.Println()
				output.Info("Run 'desk config init' to write a template, then fill it in.")
				return fmt.Errorf("credentials not configured")
			}

			// Reuse an existing valid session rather than burning a login.
			if sess, err := session.Load(app.Config.SessionPath()); err == nil && sess.Valid() {
				output.Success("✓ Already logged in")
				return showSessionStatus(output, sess)
			}

			output.Info("Logging in as %s...", creds.UID)

			sess, err := app.Broker.Login(ctx)
			if err != nil {
				output.Error("Login failed: %v", err)
				return err
			}

			if err := session.Save(app.Config.SessionPath(), sess); err != nil {
				output.Warning("Session not persisted: %v", err)
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"uid":        sess.UID,
					"account_id": sess.AccountID,
					"created_at": sess.CreatedAt.Format(time.RFC3339),
				})
			}

			output.Success("✓ Login successful!")
			return showSessionStatus(output, sess)
		},
	}
}

func showSessionStatus(output *Output, sess *session.Session) error {
	expiry := sess.CreatedAt.Add(session.Validity)
	remaining := time.Until(expiry)

	output.Println()
	output.Bold("Session")
	output.Printf("  User ID:    %s\n", sess.UID)
	if sess.AccountID != "" {
		output.Printf("  Account:    %s\n", sess.AccountID)
	}
	output.Printf("  Expires:    %s (%s remaining)\n",
		expiry.Format("02 Jan 2006, 03:04 PM"),
		formatDuration(remaining))
	return nil
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from the broker",
		Long: `Invalidate the current session and remove the stored token.

You will need to login again to use commands that call the broker.`,
		Example: `  desk logout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			sess, err := session.Load(app.Config.SessionPath())
			if err != nil || !sess.Valid() {
				// Clear any stale file regardless.
				session.Clear(app.Config.SessionPath())
				output.Warning("Not currently logged in.")
				return nil
			}

			if err := app.Broker.Logout(ctx); err != nil {
				output.Warning("Broker logout failed: %v", err)
			}

			if err := session.Clear(app.Config.SessionPath()); err != nil {
				output.Error("Failed to clear session: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"success":   true,
					"message":   "Logout successful",
					"timestamp": time.Now().Format(time.RFC3339),
				})
			}

			output.Success("✓ Logged out successfully!")
			output.Dim("Session token has been cleared.")
			return nil
		},
	}
}

func newAuthStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "auth-status",
		Short: "Check authentication status",
		Long:  "Display current authentication status and session expiry.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			sess, err := session.Load(app.Config.SessionPath())
			if err != nil || !sess.Valid() {
				if output.IsJSON() {
					return output.JSON(map[string]bool{"authenticated": false})
				}
				output.Warning("Not authenticated")
				output.Println()
				output.Info("Run 'desk login' to authenticate")
				return nil
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"authenticated": true,
					"uid":           sess.UID,
					"account_id":    sess.AccountID,
					"expires_at":    sess.CreatedAt.Add(session.Validity).Format(time.RFC3339),
				})
			}

			output.Success("✓ Authenticated")
			return showSessionStatus(output, sess)
		},
	}
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
