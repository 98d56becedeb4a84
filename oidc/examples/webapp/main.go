// Command webapp is a minimal relying party showing the full AuthMachine
// round trip: login redirect, authorization code callback, a permissions
// lookup on the index page, and logout with the provider round trip.
//
// Configuration is read from the environment (a .env file is honored):
//
//	AUTHMACHINE_URL            issuer base URL
//	AUTHMACHINE_CLIENT_ID      relying party client id
//	AUTHMACHINE_CLIENT_SECRET  relying party client secret
//	AUTHMACHINE_API_TOKEN      token for the SCIM permissions API (optional)
//	PORT                       local port to listen on
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"

	"github.com/authmachine/authmachine-go/api"
	"github.com/authmachine/authmachine-go/oidc"
	"github.com/authmachine/authmachine-go/oidc/callback"
	"github.com/authmachine/authmachine-go/session"
)

type config struct {
	issuer       string
	clientID     string
	clientSecret string
	apiToken     string
	port         string
}

func envConfig() (*config, error) {
	// a missing .env file is fine, the environment may be set directly
	_ = godotenv.Load()

	c := &config{
		issuer:       os.Getenv("AUTHMACHINE_URL"),
		clientID:     os.Getenv("AUTHMACHINE_CLIENT_ID"),
		clientSecret: os.Getenv("AUTHMACHINE_CLIENT_SECRET"),
		apiToken:     os.Getenv("AUTHMACHINE_API_TOKEN"),
		port:         os.Getenv("PORT"),
	}
	if c.port == "" {
		c.port = "8000"
	}
	for k, v := range map[string]string{
		"AUTHMACHINE_URL":           c.issuer,
		"AUTHMACHINE_CLIENT_ID":     c.clientID,
		"AUTHMACHINE_CLIENT_SECRET": c.clientSecret,
	} {
		if v == "" {
			return nil, fmt.Errorf("%s is empty", k)
		}
	}
	return c, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "webapp",
		Level: hclog.Debug,
	})

	env, err := envConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt)
	defer signal.Stop(sigintCh)

	baseURL := fmt.Sprintf("http://localhost:%s", env.port)

	pc, err := oidc.NewConfig(
		env.issuer,
		env.clientID,
		oidc.ClientSecret(env.clientSecret),
		baseURL+"/oidc-callback",
		oidc.WithScopes([]string{"email", "profile"}),
	)
	if err != nil {
		logger.Error("invalid provider configuration", "error", err)
		os.Exit(1)
	}
	p, err := oidc.NewProvider(pc)
	if err != nil {
		logger.Error("unable to create provider", "error", err)
		os.Exit(1)
	}
	defer p.Done()

	sessions, err := session.NewManager(session.NewInMemStore())
	if err != nil {
		logger.Error("unable to create session manager", "error", err)
		os.Exit(1)
	}

	var apiClient *api.Client
	if env.apiToken != "" {
		apiClient, err = api.New(env.issuer, env.apiToken, api.WithLogger(logger.Named("api")))
		if err != nil {
			logger.Error("unable to create api client", "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	sid := callback.CookieSessionID("", false)
	status := callback.Status(ctx, p, sessions, sid, callback.WithLogger(logger))

	mux := http.NewServeMux()
	mux.Handle("/", status(IndexHandler(ctx, sessions, sid, apiClient, logger)))
	mux.HandleFunc("/login", callback.Login(ctx, p, sessions, sid, errorFn(logger), callback.WithLogger(logger)))
	mux.HandleFunc("/oidc-callback", callback.AuthCode(ctx, p, sessions, sid, successFn(), errorFn(logger), callback.WithLogger(logger)))
	mux.HandleFunc("/logout", callback.Logout(ctx, p, sessions, sid, baseURL+"/oidc-logout-callback", errorFn(logger), callback.WithLogger(logger)))
	mux.HandleFunc("/oidc-logout-callback", callback.LogoutCallback(ctx, sessions, sid, "/", callback.WithLogger(logger)))

	listener, err := net.Listen("tcp", "localhost:"+env.port)
	if err != nil {
		logger.Error("unable to listen", "error", err)
		os.Exit(1)
	}
	defer listener.Close()
	logger.Info("listening", "url", baseURL)

	srvCh := make(chan error)
	go func() {
		if err := http.Serve(listener, mux); err != nil && err != http.ErrServerClosed {
			srvCh <- err
		}
	}()

	select {
	case err := <-srvCh:
		logger.Error("server closed", "error", err)
	case <-sigintCh:
		logger.Info("interrupted")
	}
}

func successFn() callback.SuccessResponseFunc {
	return func(state string, t *oidc.Token, info oidc.UserInfo, w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/", http.StatusFound)
	}
}

func errorFn(logger hclog.Logger) callback.ErrorResponseFunc {
	return func(state string, respErr *callback.AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request) {
		if respErr != nil {
			logger.Error("provider returned an error", "error", respErr.Error, "description", respErr.Description)
			http.Error(w, fmt.Sprintf("login failed: %s", respErr.Error), http.StatusUnauthorized)
			return
		}
		logger.Error("authentication error", "error", e)
		http.Error(w, "authentication error", http.StatusInternalServerError)
	}
}
