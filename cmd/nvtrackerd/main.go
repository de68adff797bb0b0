package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/takama/daemon"
	"github.com/tauraamui/nvtracker/pkg/config"
	"github.com/tauraamui/nvtracker/pkg/configdef"
	db "github.com/tauraamui/nvtracker/pkg/database"
	"github.com/tauraamui/nvtracker/pkg/host"
	"github.com/tauraamui/nvtracker/pkg/log"
)

const (
	name        = "nvtracker"
	description = "Face tracking service daemon exchanging camera frames with a tracker"
)

type Service struct {
	daemon.Daemon
}

// Setup writes the default config and creates the detection journal.
func (service *Service) Setup() (string, error) {
	log.Info("Setting up nvtracker service...")

	err := config.DefaultCreator().Create()
	if err != nil {
		if !errors.Is(err, configdef.ErrConfigAlreadyExists) {
			return "", err
		}
		log.Error(err.Error())
	}

	err = db.Setup()
	if err != nil {
		if !errors.Is(err, db.ErrDBAlreadyExists) {
			return "", err
		}
		log.Error(err.Error())
	}

	return "Setup successful...", nil
}

func (service *Service) RemoveSetup() (string, error) {
	log.Info("Removing setup for nvtracker service...")
	if err := config.DefaultDestroyer().Destroy(); err != nil {
		log.Error("unable to delete config file: %s", err.Error())
	}
	if err := db.Destroy(); err != nil {
		log.Error("unable to delete database file: %s", err.Error())
	}

	return "Removing setup successful...", nil
}

func (service *Service) Manage() (string, error) {
	usage := "Usage: nvtrackerd setup | remove-setup | install | remove | start | stop | status"

	if len(os.Args) > 1 {
		command := os.Args[1]
		switch command {
		case "setup":
			return service.Setup()
		case "remove-setup":
			return service.RemoveSetup()
		case "install":
			return service.Install()
		case "remove":
			return service.Remove()
		case "start":
			return service.Start()
		case "stop":
			return service.Stop()
		case "status":
			return service.Status()
		default:
			return usage, nil
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	log.Info("Starting nvtracker daemon...")

	server, err := host.NewServer(config.DefaultResolver(), nil)
	if err != nil {
		return "", err
	}

	ctx, cancelStartup := context.WithCancel(context.Background())
	go startupServer(ctx, server)

	killSignal := <-interrupt
	fmt.Print("\r")
	log.Error("Received signal: %s", killSignal)

	cancelStartup()
	log.Info("Shutting down server...")
	<-server.Shutdown()

	return "Shutdown successful... BYE! 👋", nil
}

func startupServer(ctx context.Context, server *host.Server) {
	if err := server.Connect(ctx); err != nil {
		log.Error(err.Error())
		return
	}
	server.SetupProcesses()
	server.RunProcesses()

	if _, err := server.WatchConfiguration(ctx, config.DefaultWatcher()); err != nil {
		log.Warn("Unable to watch configuration for changes: %v", err)
	}
}

func main() {
	log.Configure(os.Getenv("NVTRACKER_LOGGING_LEVEL"))

	daemonType := daemon.SystemDaemon
	if runtime.GOOS == "darwin" {
		daemonType = daemon.UserAgent
	}

	srv, err := daemon.New(name, description, daemonType)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	service := &Service{srv}
	status, err := service.Manage()
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	log.Info(status)
}
