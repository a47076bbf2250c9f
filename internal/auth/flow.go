package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultFlowTimeout bounds the wait for the browser callback.
	DefaultFlowTimeout = 5 * time.Minute

	callbackShutdownTimeout = 5 * time.Second
	stateTokenBytes         = 16
)

var (
	// ErrAuthTimeout is returned when no authorization code arrives in time.
	ErrAuthTimeout = errors.New("authorization timeout - please try again")
	// ErrFlowInProgress is returned when a flow is started while another runs.
	ErrFlowInProgress = errors.New("authorization flow already in progress")
)

const successPage = `<!DOCTYPE html>
<html><head><title>Authentication successful</title></head>
<body>
<h1>Authentication successful!</h1>
<p>You can close this tab and return to your MCP client.</p>
</body></html>`

// FlowState is the position of a FlowRunner in the authorization flow.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowAwaitingCode
	FlowExchanging
	FlowComplete
	FlowTimedOut
	FlowFailed
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowAwaitingCode:
		return "awaiting_code"
	case FlowExchanging:
		return "exchanging"
	case FlowComplete:
		return "complete"
	case FlowTimedOut:
		return "timed_out"
	case FlowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FlowRunner runs the authorization code flow against a loopback listener.
// Only one flow runs at a time.
type FlowRunner struct {
	oauth   *oauth2.Config
	addr    string
	path    string
	timeout time.Duration
	openURL func(string) error
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	state   FlowState
}

// FlowOption customises a FlowRunner.
type FlowOption func(*FlowRunner)

// WithFlowTimeout overrides the callback wait deadline.
func WithFlowTimeout(d time.Duration) FlowOption {
	return func(f *FlowRunner) { f.timeout = d }
}

// WithURLOpener replaces the browser launcher.
func WithURLOpener(open func(string) error) FlowOption {
	return func(f *FlowRunner) { f.openURL = open }
}

// NewFlowRunner creates a flow that listens on listenAddr and accepts the
// callback at callbackPath.
func NewFlowRunner(oauthCfg *oauth2.Config, listenAddr, callbackPath string, logger *slog.Logger, opts ...FlowOption) *FlowRunner {
	f := &FlowRunner{
		oauth:   oauthCfg,
		addr:    listenAddr,
		path:    callbackPath,
		timeout: DefaultFlowTimeout,
		openURL: OpenBrowser,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current flow state.
func (f *FlowRunner) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *FlowRunner) setState(s FlowState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
	f.logger.Debug("authorization flow state", "state", s.String())
}

// Run performs the flow end to end and returns the exchanged token. The
// listener is released on every return path. Cancelling ctx does not end the
// flow; only the flow timeout does.
func (f *FlowRunner) Run(ctx context.Context) (*oauth2.Token, error) {
	ctx = context.WithoutCancel(ctx)

	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return nil, ErrFlowInProgress
	}
	f.running = true
	f.state = FlowIdle
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.running = false
		f.mu.Unlock()
	}()

	state, err := generateState()
	if err != nil {
		f.setState(FlowFailed)
		return nil, fmt.Errorf("generate state token: %w", err)
	}

	authURL := f.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(f.path, func(w http.ResponseWriter, r *http.Request) {
		f.handleCallback(w, r, state, codeCh)
	})

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", f.addr)
	if err != nil {
		f.setState(FlowFailed)
		return nil, fmt.Errorf("bind callback listener on %s: %w", f.addr, err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: callbackShutdownTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer f.shutdown(server)

	waitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	f.setState(FlowAwaitingCode)
	f.logger.Info("authorization server listening", "addr", listener.Addr().String())
	f.launchBrowser(authURL)

	var code string
	select {
	case code = <-codeCh:
	case err := <-serveErr:
		f.setState(FlowFailed)
		return nil, fmt.Errorf("callback server error: %w", err)
	case <-waitCtx.Done():
		f.setState(FlowTimedOut)
		f.logger.Warn("authorization timed out", "timeout", f.timeout)
		return nil, ErrAuthTimeout
	}

	f.setState(FlowExchanging)
	tok, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		f.setState(FlowFailed)
		f.logger.Error("error retrieving access token", "error", err)
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	f.setState(FlowComplete)
	f.logger.Info("authorization code exchanged", "expiry", tok.Expiry)
	return tok, nil
}

// handleCallback accepts the redirect carrying the authorization code.
// Requests without a code, or with a foreign state, are ignored.
func (f *FlowRunner) handleCallback(w http.ResponseWriter, r *http.Request, state string, codeCh chan<- string) {
	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		if errParam := query.Get("error"); errParam != "" {
			f.logger.Warn("authorization callback without code", "error", errParam)
		}
		http.Error(w, "Waiting for authorization code", http.StatusBadRequest)
		return
	}
	if got := query.Get("state"); got != state {
		f.logger.Warn("authorization callback with unexpected state")
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, successPage)

	select {
	case codeCh <- code:
	default:
	}
}

// launchBrowser prints the URL and tries to open it. Failure to open is not fatal.
func (f *FlowRunner) launchBrowser(authURL string) {
	banner := strings.Repeat("=", 60)
	fmt.Fprintln(os.Stderr, banner)
	fmt.Fprintln(os.Stderr, "Google Drive MCP: Authorization required!")
	fmt.Fprintln(os.Stderr, "Opening browser for authentication...")
	fmt.Fprintln(os.Stderr, "If browser does not open, visit this URL:")
	fmt.Fprintln(os.Stderr, authURL)
	fmt.Fprintln(os.Stderr, banner)

	if err := f.openURL(authURL); err != nil {
		f.logger.Warn("could not open browser automatically, visit the URL above", "error", err)
	}
}

func (f *FlowRunner) shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), callbackShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		f.logger.Warn("callback server shutdown error", "error", err)
	}
}

func generateState() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
