package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"k8s.io/klog/v2"

	"github.com/kubestellar/hub-console/pkg/api"
	"github.com/kubestellar/hub-console/pkg/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to config file")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	kubeconfig := flag.String("kubeconfig", "", "Path to kubeconfig file (overrides config)")
	kubeContext := flag.String("context", "", "Kubeconfig context of the hub cluster (overrides config)")
	klog.InitFlags(nil)
	flag.Parse()

	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		klog.Warningf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		klog.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *kubeconfig != "" {
		cfg.Kubeconfig = *kubeconfig
	}
	if *kubeContext != "" {
		cfg.Context = *kubeContext
	}

	fmt.Print(`
 _           _                                       _
| |__  _   _| |__         ___ ___  _ __  ___  ___ | | ___
| '_ \| | | | '_ \ _____ / __/ _ \| '_ \/ __|/ _ \| |/ _ \
| | | | |_| | |_) |_____| (_| (_) | | | \__ \ (_) | |  __/
|_| |_|\__,_|_.__/       \___\___/|_| |_|___/\___/|_|\___|
Multicluster hub lifecycle console
`)

	server, err := api.NewServer(cfg)
	if err != nil {
		klog.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		klog.Info("Shutting down...")
		if err := server.Shutdown(); err != nil {
			klog.Errorf("Shutdown error: %v", err)
		}
	}()

	if err := server.Start(); err != nil {
		klog.Fatalf("Server error: %v", err)
	}
	klog.Flush()
}
