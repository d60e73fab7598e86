package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/warpdl/ttcsync/common"
	"github.com/warpdl/ttcsync/internal/api"
	"github.com/warpdl/ttcsync/internal/finder"
	"github.com/warpdl/ttcsync/internal/scheduler"
	"github.com/warpdl/ttcsync/internal/secscope"
	"github.com/warpdl/ttcsync/internal/server"
	"github.com/warpdl/ttcsync/internal/settings"
	"github.com/warpdl/ttcsync/internal/updater"
	"github.com/warpdl/ttcsync/pkg/credman"
	"github.com/warpdl/ttcsync/pkg/credman/keyring"
	"github.com/warpdl/ttcsync/pkg/logger"
)

// componentOptions carries the daemon flags into initComponents.
type componentOptions struct {
	Tick     time.Duration
	Timeout  time.Duration
	Proxy    string
	Port     int
	Progress func(read, total int64)
}

// DaemonComponents holds everything the daemon and the local command
// backend run on. Close releases them in reverse order of initialization.
type DaemonComponents struct {
	ConfigDir string
	Store     *settings.Store
	Resolver  *secscope.SealedResolver
	Updater   *updater.Updater
	Api       *api.Api
	Server    *server.Server
	Scheduler *scheduler.Scheduler
	logger    logger.Logger
}

func (c *DaemonComponents) Close() {
	c.logger.Info("Shutting down...")

	// The scheduler can still trigger an update from a tick in flight, so
	// it has to stop before the updater is drained.
	if c.Scheduler != nil && c.Scheduler.State() != scheduler.StateIdle {
		<-c.Scheduler.Done()
	}
	if c.Updater != nil {
		c.Updater.Wait()
	}
	if c.Api != nil {
		_ = c.Api.Close()
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			c.logger.Warning("settings: close: %v", err)
		}
	}
	c.logger.Info("Stopped")
}

var (
	keyringFor = func(configDir string, l keyring.Logger) keyring.Provider {
		return keyring.New(configDir, l)
	}
	getConfigDir = common.ConfigDir
)

// loadMasterKey reads $TTCSYNC_KEY, or the keyring-backed master key.
func loadMasterKey(configDir string, l logger.Logger) ([]byte, error) {
	if keyHex := os.Getenv(common.KeyEnv); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", common.KeyEnv, err)
		}
		if len(key) != credman.KeySize {
			return nil, fmt.Errorf("invalid %s: want %d bytes, got %d", common.KeyEnv, credman.KeySize, len(key))
		}
		return key, nil
	}
	return credman.MasterKey(keyringFor(configDir, l))
}

// initComponents opens the settings store and builds the updater and Api
// on top of it. ctx bounds every background update.
func initComponents(ctx context.Context, l logger.Logger, o *componentOptions) (*DaemonComponents, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}
	master, err := loadMasterKey(configDir, l)
	if err != nil {
		return nil, err
	}
	resolver, err := secscope.NewSealedResolver(master)
	if err != nil {
		return nil, err
	}
	client, err := updater.NewHTTPClient(o.Proxy)
	if err != nil {
		return nil, err
	}
	store, err := settings.Open(filepath.Join(configDir, common.SettingsFile))
	if err != nil {
		return nil, err
	}
	store.SetLogger(l)

	var a *api.Api
	u := updater.New(store, resolver, updater.Options{
		Client:        client,
		ServiceDomain: os.Getenv(common.ServiceDomainEnv),
		StageDir:      filepath.Join(configDir, common.StagingDir),
		Timeout:       o.Timeout,
		UserAgent:     userAgent(),
		Log:           l,
		Progress:      o.Progress,
		OnState: func(s updater.State) {
			if a != nil {
				a.OnUpdaterState(s)
			}
		},
	})
	a = api.NewApi(ctx, api.Config{
		Store:        store,
		Updater:      u,
		Resolver:     resolver,
		DefaultRoots: finder.DefaultRoots,
		Version:      currentBuildArgs.Version,
		Commit:       currentBuildArgs.Commit,
		BuildType:    currentBuildArgs.BuildType,
		Log:          l,
	})
	return &DaemonComponents{
		ConfigDir: configDir,
		Store:     store,
		Resolver:  resolver,
		Updater:   u,
		Api:       a,
		logger:    l,
	}, nil
}

// initDaemonComponents adds the RPC server and the scheduler. The RPC
// secret is written to the config directory for local clients.
var initDaemonComponents = func(ctx context.Context, l logger.Logger, o *componentOptions) (*DaemonComponents, error) {
	c, err := initComponents(ctx, l, o)
	if err != nil {
		return nil, err
	}
	secret, err := rpcSecret(c.ConfigDir, l)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Server = server.NewServer(l, c.Api, &server.Config{Secret: secret, Port: o.Port})
	c.Scheduler = scheduler.New(c.Store, c.Updater.Trigger, scheduler.Options{
		Tick:   o.Tick,
		OnTick: c.Api.OnTick,
		Log:    l,
	})
	return c, nil
}

// rpcSecret returns $TTCSYNC_RPC_SECRET or derives the secret from the
// master key, and stores it in rpc.secret with owner-only permissions.
func rpcSecret(configDir string, l logger.Logger) (string, error) {
	secret := os.Getenv(common.RPCSecretEnv)
	if secret == "" {
		master, err := loadMasterKey(configDir, l)
		if err != nil {
			return "", err
		}
		key, err := credman.DeriveKey(master, credman.PurposeRPCSecret)
		if err != nil {
			return "", err
		}
		secret = hex.EncodeToString(key)
	}
	path := filepath.Join(configDir, common.SecretFile)
	if err := keyring.WriteFileAtomic(path, []byte(secret), 0600); err != nil {
		return "", fmt.Errorf("write rpc secret: %w", err)
	}
	return secret, nil
}

func userAgent() string {
	if currentBuildArgs.Version == "" {
		return "ttcsync"
	}
	return "ttcsync/" + currentBuildArgs.Version
}
