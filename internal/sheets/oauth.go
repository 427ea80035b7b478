package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// DefaultCallbackPort is where the browser is redirected after consent.
const DefaultCallbackPort = 8080

// consentTimeout bounds how long the callback server waits for the browser.
const consentTimeout = 5 * time.Minute

const (
	callbackOKPage = `<html><body>
<h1>weightbot is connected to Google Sheets</h1>
<p>You can close this window and return to the terminal.</p>
<script>window.setTimeout(function(){window.close();}, 3000);</script>
</body></html>`
	callbackFailedPage = `<html><body>
<h1>Authentication failed</h1>
<p>No authorization code was received. Run the command again.</p>
</body></html>`
)

// OAuth2Config holds the installed-app client and where its token is cached.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	CallbackPort int
}

func (c OAuth2Config) oauthConfig() *oauth2.Config {
	port := c.CallbackPort
	if port <= 0 {
		port = DefaultCallbackPort
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://localhost:" + strconv.Itoa(port) + "/callback",
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

type callbackResult struct {
	err  error
	code string
}

// callbackHandler accepts exactly one redirect carrying the expected state and reports
// the authorization code on results.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		code := query.Get("code")
		if code == "" {
			_, _ = fmt.Fprint(w, callbackFailedPage)
			sendResult(results, callbackResult{err: fmt.Errorf("no authorization code received: %s", query.Get("error"))})
			return
		}
		_, _ = fmt.Fprint(w, callbackOKPage)
		sendResult(results, callbackResult{code: code})
	})
	return mux
}

// sendResult never blocks; only the first callback counts.
func sendResult(results chan<- callbackResult, r callbackResult) {
	select {
	case results <- r:
	default:
	}
}

// AuthenticateOAuth2Interactive prints the consent URL, waits for the browser callback on
// localhost and exchanges the code. The token is cached in TokenFile when set.
func AuthenticateOAuth2Interactive(ctx context.Context, config OAuth2Config) (*oauth2.Token, error) {
	oauthConfig := config.oauthConfig()
	state := uuid.NewString()
	results := make(chan callbackResult, 1)

	port := config.CallbackPort
	if port <= 0 {
		port = DefaultCallbackPort
	}
	listener, err := net.Listen("tcp", net.JoinHostPort("localhost", strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	server := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendResult(results, callbackResult{err: fmt.Errorf("callback server failed: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Error shutting down callback server", "error", err)
		}
	}()

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	slog.Info("Google Sheets authentication required")
	slog.Info("Please visit this URL to authenticate", "url", authURL)

	var result callbackResult
	select {
	case result = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(consentTimeout):
		return nil, fmt.Errorf("authentication timeout: no response within %s", consentTimeout)
	}
	if result.err != nil {
		return nil, result.err
	}

	token, err := oauthConfig.Exchange(ctx, result.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if config.TokenFile != "" {
		if err := saveToken(config.TokenFile, token); err != nil {
			slog.Warn("Failed to save token", "error", err, "file", config.TokenFile)
		} else {
			slog.Info("Token saved", "file", config.TokenFile)
		}
	}
	return token, nil
}

// LoadToken reads a cached token.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenFile) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return token, nil
}

// saveToken writes the token with owner-only permissions via a temp file and rename.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// RefreshTokenIfNeeded returns token unchanged while it is valid, otherwise a refreshed
// token that is also written back to the cache.
func RefreshTokenIfNeeded(ctx context.Context, config OAuth2Config, token *oauth2.Token) (*oauth2.Token, error) {
	if token.Valid() {
		return token, nil
	}

	slog.Info("Token expired, refreshing")
	refreshed, err := config.oauthConfig().TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if config.TokenFile != "" {
		if err := saveToken(config.TokenFile, refreshed); err != nil {
			slog.Warn("Failed to save refreshed token", "error", err)
		}
	}
	return refreshed, nil
}

// GetOrCreateToken uses the cached token when there is one and runs the interactive flow
// otherwise.
func GetOrCreateToken(ctx context.Context, config OAuth2Config) (*oauth2.Token, error) {
	if config.TokenFile != "" {
		if token, err := LoadToken(config.TokenFile); err == nil {
			slog.Info("Loaded cached token", "file", config.TokenFile)
			return RefreshTokenIfNeeded(ctx, config, token)
		}
	}
	return AuthenticateOAuth2Interactive(ctx, config)
}
