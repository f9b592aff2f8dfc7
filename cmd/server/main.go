package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/taskhub/go-task-server/internal/config"
	fakenoticerepo "github.com/taskhub/go-task-server/notifications/repofake"
	pgnoticerepo "github.com/taskhub/go-task-server/notifications/repopg"
	"github.com/taskhub/go-task-server/server"
	fakeuserrepo "github.com/taskhub/go-task-server/users/repofake"
	pguserrepo "github.com/taskhub/go-task-server/users/repopg"
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

	loadDotenv()
	c := config.New()
	displayAppname(c.GetAppName())

	logger := newLogger(c)

	repos, cleanup, err := newRepos(context.Background(), c, logger)
	if err != nil {
		return fmt.Errorf("newRepos: %w", err)
	}
	defer cleanup()

	srv, err := server.New(c, repos, logger)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func loadDotenv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v\n", err)
	}
}

func newLogger(c config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if c.GetEnv() == "DEV" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}

// newRepos picks Postgres repositories when DATABASE_URL is configured
// and falls back to in-memory repositories otherwise.
func newRepos(ctx context.Context, c config.Config, logger zerolog.Logger) (server.Repos, func(), error) {
	dsn := c.GetDatabaseURL()
	if dsn == "" {
		logger.Info().Msg("DATABASE_URL not set, using in-memory repositories")
		return server.Repos{
			Users:   fakeuserrepo.NewFakeUserRepo(),
			Notices: fakenoticerepo.NewFakeNoticeRepo(),
		}, func() {}, nil
	}

	userRepo, err := pguserrepo.New(ctx, dsn)
	if err != nil {
		return server.Repos{}, nil, err
	}
	noticeRepo, err := pgnoticerepo.New(ctx, userRepo.Pool())
	if err != nil {
		userRepo.Close()
		return server.Repos{}, nil, err
	}

	logger.Info().Msg("Connected to Postgres")
	return server.Repos{Users: userRepo, Notices: noticeRepo}, userRepo.Close, nil
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
