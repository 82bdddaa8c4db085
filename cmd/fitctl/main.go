// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the fitctl command-line client for the
// pulsefitLocal data layer. It can sign in against the remote backend,
// inspect and modify collections, and works fully offline against the
// local cache when no backend is configured.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"

	"github.com/pulsefit/pulsefitLocal/internal/config"
	"github.com/pulsefit/pulsefitLocal/internal/logging"
	"github.com/pulsefit/pulsefitLocal/internal/record"
	"github.com/pulsefit/pulsefitLocal/sdk/pulsefit"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
}

func main() {
	var login bool
	var oauthLogin bool
	var logout bool
	var noBrowser bool
	var configPath string
	var email string
	var password string
	var listEntity string
	var addEntity string
	var updateEntity string
	var deleteEntity string
	var getEntity string
	var id string
	var data string
	var watch bool

	flag.BoolVar(&login, "login", false, "Sign in with email and password")
	flag.BoolVar(&oauthLogin, "oauth-login", false, "Sign in through the browser OAuth flow")
	flag.BoolVar(&logout, "logout", false, "Discard the stored session")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically for OAuth")
	flag.StringVar(&configPath, "config", "", "Configure File Path")
	flag.StringVar(&email, "email", "", "Account email for -login")
	flag.StringVar(&password, "password", "", "Account password for -login (prefer the PULSEFIT_PASSWORD environment variable)")
	flag.StringVar(&listEntity, "list", "", "List all records of an entity, e.g. -list Workout")
	flag.StringVar(&getEntity, "get", "", "Fetch one record of an entity by -id")
	flag.StringVar(&addEntity, "add", "", "Create a record of an entity from the -data JSON")
	flag.StringVar(&updateEntity, "update", "", "Patch a record of an entity with -id and -data")
	flag.StringVar(&deleteEntity, "delete", "", "Delete a record of an entity by -id")
	flag.StringVar(&id, "id", "", "Record id for -get, -update and -delete")
	flag.StringVar(&data, "data", "", "Record fields as a JSON object for -add and -update")
	flag.BoolVar(&watch, "watch", false, "Keep running and reload the config file on change")
	flag.Parse()

	fmt.Printf("fitctl Version: %s, Commit: %s, BuiltAt: %s\n", Version, Commit, BuildDate)

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		return
	}

	// Load environment variables from .env if present.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	configFilePath := configPath
	if configFilePath == "" {
		configFilePath = filepath.Join(wd, "config.yaml")
	}
	cfg, err := config.LoadConfigOptional(configFilePath, configPath == "")
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return
	}

	logging.SetDebug(cfg.Debug)

	ctx := context.Background()
	client, err := pulsefit.New(ctx, cfg)
	if err != nil {
		log.Errorf("failed to initialize data layer: %v", err)
		return
	}
	defer func() {
		if errClose := client.Close(); errClose != nil {
			log.Errorf("failed to close store: %v", errClose)
		}
	}()

	if err = logging.ConfigureLogOutput(cfg.LoggingToFile, client.StateBox().LogsDir()); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		return
	}

	if client.Reseeded {
		log.Info("local cache was reseeded from fixtures")
	}

	switch {
	case login:
		doLogin(ctx, client, email, password)
	case oauthLogin:
		doOAuthLogin(ctx, client, cfg, noBrowser)
	case logout:
		doLogout(ctx, client)
	case listEntity != "":
		doList(ctx, client, listEntity)
	case getEntity != "":
		doGet(ctx, client, getEntity, id)
	case addEntity != "":
		doAdd(ctx, client, addEntity, data)
	case updateEntity != "":
		doUpdate(ctx, client, updateEntity, id, data)
	case deleteEntity != "":
		doDelete(ctx, client, deleteEntity, id)
	case watch:
		doWatch(configFilePath, client)
	default:
		flag.Usage()
	}
}

func doLogin(ctx context.Context, client *pulsefit.Client, email, password string) {
	if password == "" {
		password = os.Getenv("PULSEFIT_PASSWORD")
	}
	if email == "" || password == "" {
		log.Error("login requires -email and -password (or PULSEFIT_PASSWORD)")
		return
	}

	session, err := client.Auth().SignIn(ctx, email, password)
	if err != nil {
		log.Errorf("sign-in failed: %v", err)
		return
	}
	if session.Offline() {
		fmt.Println("Signed in offline; the session is local to this machine.")
	} else {
		fmt.Println("Signed in.")
	}
	printRecord(session.User)
}

// doOAuthLogin runs the authorization-code flow: it starts a loopback
// listener on the configured redirect URL, opens the consent page and
// exchanges the returned code for a session.
func doOAuthLogin(ctx context.Context, client *pulsefit.Client, cfg *config.Config, noBrowser bool) {
	state := uuid.New().String()
	authURL, err := client.Auth().AuthCodeURL(state)
	if err != nil {
		log.Errorf("oauth login unavailable: %v", err)
		return
	}

	redirect, err := url.Parse(cfg.OAuth.RedirectURL)
	if err != nil {
		log.Errorf("invalid oauth redirect-url: %v", err)
		return
	}
	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		log.Errorf("failed to listen on %s: %v", redirect.Host, err)
		return
	}

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			results <- result{err: errors.New("oauth state mismatch")}
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			results <- result{err: errors.New("oauth response missing code")}
			return
		}
		fmt.Fprintln(w, "Signed in. You can close this window.")
		results <- result{code: code}
	})}
	go func() {
		if errServe := server.Serve(listener); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			results <- result{err: errServe}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if noBrowser {
		fmt.Printf("Open this URL to sign in:\n%s\n", authURL)
	} else {
		fmt.Println("Opening browser for sign-in...")
		if errOpen := open.Run(authURL); errOpen != nil {
			log.Warnf("failed to open browser: %v", errOpen)
			fmt.Printf("Open this URL to sign in:\n%s\n", authURL)
		}
	}

	select {
	case res := <-results:
		if res.err != nil {
			log.Errorf("oauth login failed: %v", res.err)
			return
		}
		session, errExchange := client.Auth().HandleOAuthCallback(ctx, res.code)
		if errExchange != nil {
			log.Errorf("oauth exchange failed: %v", errExchange)
			return
		}
		fmt.Println("Signed in.")
		printRecord(session.User)
	case <-time.After(5 * time.Minute):
		log.Error("oauth login timed out")
	}
}

func doLogout(ctx context.Context, client *pulsefit.Client) {
	if err := client.Auth().SignOut(ctx); err != nil {
		log.Errorf("sign-out failed: %v", err)
		return
	}
	fmt.Println("Signed out.")
}

func doList(ctx context.Context, client *pulsefit.Client, entity string) {
	e, err := client.Entity(entity)
	if err != nil {
		log.Error(err)
		return
	}
	records, src, err := e.List(ctx)
	if err != nil {
		log.Errorf("list %s failed: %v", entity, err)
		return
	}
	fmt.Printf("%d record(s) from %s\n", len(records), src)
	for _, rec := range records {
		printRecord(rec)
	}
}

func doGet(ctx context.Context, client *pulsefit.Client, entity, id string) {
	e, err := client.Entity(entity)
	if err != nil {
		log.Error(err)
		return
	}
	if id == "" {
		log.Error("-get requires -id")
		return
	}
	rec, src, err := e.Get(ctx, id)
	if err != nil {
		log.Errorf("get %s failed: %v", entity, err)
		return
	}
	if rec == nil {
		fmt.Printf("no %s with id %s (checked %s)\n", entity, id, src)
		return
	}
	printRecord(rec)
}

func doAdd(ctx context.Context, client *pulsefit.Client, entity, data string) {
	e, err := client.Entity(entity)
	if err != nil {
		log.Error(err)
		return
	}
	fields, err := parseData(data)
	if err != nil {
		log.Error(err)
		return
	}
	rec, src, err := e.Create(ctx, fields)
	if err != nil {
		log.Errorf("create %s failed: %v", entity, err)
		return
	}
	fmt.Printf("created via %s\n", src)
	printRecord(rec)
}

func doUpdate(ctx context.Context, client *pulsefit.Client, entity, id, data string) {
	e, err := client.Entity(entity)
	if err != nil {
		log.Error(err)
		return
	}
	if id == "" {
		log.Error("-update requires -id")
		return
	}
	fields, err := parseData(data)
	if err != nil {
		log.Error(err)
		return
	}
	rec, src, err := e.Update(ctx, id, fields)
	if err != nil {
		log.Errorf("update %s failed: %v", entity, err)
		return
	}
	if rec == nil {
		fmt.Printf("no %s with id %s (checked %s)\n", entity, id, src)
		return
	}
	fmt.Printf("updated via %s\n", src)
	printRecord(rec)
}

func doDelete(ctx context.Context, client *pulsefit.Client, entity, id string) {
	e, err := client.Entity(entity)
	if err != nil {
		log.Error(err)
		return
	}
	if id == "" {
		log.Error("-delete requires -id")
		return
	}
	removed, src, err := e.Delete(ctx, id)
	if err != nil {
		log.Errorf("delete %s failed: %v", entity, err)
		return
	}
	if removed {
		fmt.Printf("deleted via %s\n", src)
	} else {
		fmt.Printf("no %s with id %s (checked %s)\n", entity, id, src)
	}
}

// doWatch keeps the process alive and hot-reloads tunable settings.
func doWatch(configFile string, client *pulsefit.Client) {
	watcher, err := pulsefit.WatchConfig(configFile, client)
	if err != nil {
		log.Errorf("failed to watch config: %v", err)
		return
	}
	defer func() {
		if errClose := watcher.Close(); errClose != nil {
			log.Errorf("failed to stop config watcher: %v", errClose)
		}
	}()
	fmt.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", configFile)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func parseData(data string) (record.Record, error) {
	if data == "" {
		return nil, errors.New("missing -data JSON object")
	}
	var fields record.Record
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("invalid -data: %w", err)
	}
	return fields, nil
}

func printRecord(rec record.Record) {
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Errorf("failed to render record: %v", err)
		return
	}
	fmt.Println(string(out))
}
