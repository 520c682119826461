package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/NVIDIA/nvnmos/facade"
	"github.com/NVIDIA/nvnmos/internal/config"
	"github.com/NVIDIA/nvnmos/internal/discovery"
	"github.com/NVIDIA/nvnmos/internal/logging"
)

func run(opts *Options) error {
	hostname := opts.Hostname
	if hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("determine hostname: %w", err)
		}
		hostname = h
	}

	hostAddresses := opts.HostAddresses
	if len(hostAddresses) == 0 {
		addrs, err := localIPv4Addresses()
		if err != nil {
			return fmt.Errorf("determine host addresses: %w", err)
		}
		hostAddresses = addrs
	}

	seedConfig, err := config.LoadSeedConfig(opts.SeedFile)
	if err != nil {
		return fmt.Errorf("load seed config: %w", err)
	}
	senderSDPs, err := seedConfig.ResolveSenderSDPs()
	if err != nil {
		return fmt.Errorf("resolve seed sender SDPs: %w", err)
	}
	receiverSDPs, err := seedConfig.ResolveReceiverSDPs()
	if err != nil {
		return fmt.Errorf("resolve seed receiver SDPs: %w", err)
	}

	cfg := facade.Config{
		Hostname:      hostname,
		HostAddresses: hostAddresses,
		HTTPPort:      opts.Port,
		Label:         opts.Label,
		Description:   opts.Description,
		AssetTags: &facade.AssetConfig{
			Manufacturer: opts.Manufacturer,
			Product:      opts.Product,
			InstanceID:   opts.InstanceID,
			Functions:    opts.Functions,
		},
		Seed:            opts.Seed,
		Senders:         senderSDPs,
		Receivers:       receiverSDPs,
		RegistryAddress: opts.RegistryAddress,
		LogLevel:        nmosLevel(opts.LoggingLevel),
		LogFormat:       opts.LoggingFormat,
		ActivationCallback: func(id, sdp string) bool {
			logger := logging.GetLogger("main")
			if sdp == "" {
				logger.Info("deactivated", "id", id)
			} else {
				logger.Info("activated", "id", id)
			}
			return true
		},
	}

	handle, ok := facade.Create(cfg)
	if !ok {
		return fmt.Errorf("failed to create NMOS node")
	}
	defer facade.Destroy(handle)

	logger := logging.GetLogger("main")

	if opts.SystemGlobalFile != "" {
		watcher := config.NewConfigWatcher(opts.SystemGlobalFile, loadSystemGlobal, logging.GetLogger("config"))
		watcher.OnReload(func(sg discovery.SystemGlobal) {
			facade.UpdateSystemGlobal(handle, sg)
		})
		if err := watcher.Start(); err != nil {
			logger.Warn("failed to start system-global watcher", "path", opts.SystemGlobalFile, "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	logger.Info("node running", "hostname", hostname, "port", opts.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	return nil
}

// nmosLevel translates the driver's text logging level (debug, info, warn,
// error) into the NMOS numeric severity scale facade.Config.LogLevel uses
// (spec §6: fatal=40 ... devel=-40).
func nmosLevel(level string) int {
	switch level {
	case "debug", "verbose":
		return logging.NMOSLevelVerbose
	case "warn", "warning":
		return logging.NMOSLevelWarning
	case "error", "severe", "fatal":
		return logging.NMOSLevelError
	default:
		return logging.NMOSLevelInfo
	}
}

func loadSystemGlobal(path string) (discovery.SystemGlobal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return discovery.SystemGlobal{}, err
	}
	return discovery.ParseSystemGlobal(data)
}

// localIPv4Addresses returns every non-loopback IPv4 address bound to a
// local interface, the driver-level fallback when no host addresses are
// configured (original API: "May be null in which case the system host
// addresses are determined automatically").
func localIPv4Addresses() ([]string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	var ips []string
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue
		}
		ips = append(ips, ip4.String())
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no non-loopback IPv4 addresses found")
	}
	return ips, nil
}
