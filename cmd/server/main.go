package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/EinMelih/kleinanzeigen-auth/accounts"
	accountfilerepo "github.com/EinMelih/kleinanzeigen-auth/accounts/filerepo"
	"github.com/EinMelih/kleinanzeigen-auth/auth"
	"github.com/EinMelih/kleinanzeigen-auth/browser/cdp"
	cookiefilerepo "github.com/EinMelih/kleinanzeigen-auth/cookies/filerepo"
	"github.com/EinMelih/kleinanzeigen-auth/internal/config"
	"github.com/EinMelih/kleinanzeigen-auth/mailverify"
	"github.com/EinMelih/kleinanzeigen-auth/scheduler"
	"github.com/EinMelih/kleinanzeigen-auth/server"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	cookieRepo, err := cookiefilerepo.New(filepath.Join(c.GetDataFolder(), "cookies"))
	if err != nil {
		return fmt.Errorf("cookie repo: %w", err)
	}
	accountRepo, err := accountfilerepo.New(c.GetDataFolder())
	if err != nil {
		return fmt.Errorf("account repo: %w", err)
	}
	vault, err := accounts.NewVault(c.GetVaultSecret())
	if err != nil {
		return fmt.Errorf("vault: %w", err)
	}

	options := []auth.LoginServiceOption{auth.WithSettings(settingsFromConfig(c))}
	verifier, err := mailVerifier(c)
	if err != nil {
		return fmt.Errorf("mail verifier: %w", err)
	}
	if verifier != nil {
		options = append(options, auth.WithVerifier(verifier))
	}

	loginService, err := auth.NewLoginService(
		auth.Repos{Cookies: cookieRepo, Accounts: accountRepo},
		cdp.New(),
		vault,
		options...,
	)
	if err != nil {
		return fmt.Errorf("login service: %w", err)
	}

	sched, err := scheduler.New(cookieRepo, loginService, scheduler.WithThreshold(c.GetRefreshThreshold()))
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if c.GetAutoRefreshOnStart() {
		sched.Start(c.GetRefreshInterval())
	}
	defer sched.Stop()

	handler, err := server.New(c, loginService, sched, cookieRepo, accountRepo)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func settingsFromConfig(c config.Config) auth.Settings {
	settings := auth.DefaultSettings()
	settings.Endpoint = c.GetBrowserEndpoint()
	settings.HomeURL = c.GetHomeURL()
	settings.LoginURL = c.GetLoginURL()
	settings.NavigationTimeout = c.GetNavigationTimeout()
	settings.FormTimeout = c.GetFormTimeout()
	return settings
}

// mailVerifier builds the optional confirmation-mail collaborator. Returns
// nil when no mailbox is configured.
func mailVerifier(c config.Config) (mailverify.Verifier, error) {
	if c.GetIMAPAddress() == "" || c.GetIMAPAccount() == "" {
		return nil, nil
	}

	var options []mailverify.IMAPOption
	if issuer := c.GetMailOAuthIssuer(); issuer != "" {
		tokens, err := mailverify.MailTokenSource(
			context.Background(),
			issuer,
			c.GetMailOAuthClientID(),
			c.GetMailOAuthClientSecret(),
			c.GetMailOAuthRefreshToken(),
			[]string{"https://mail.google.com/"},
		)
		if err != nil {
			return nil, err
		}
		options = append(options, mailverify.WithTokenSource(tokens))
	} else {
		options = append(options, mailverify.WithPassword(c.GetIMAPPassword()))
	}

	return mailverify.NewIMAPVerifier(c.GetIMAPAddress(), c.GetIMAPAccount(), "kleinanzeigen.de", options...)
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
