// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pulsefit

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/pulsefit/pulsefitLocal/internal/config"
	"github.com/pulsefit/pulsefitLocal/internal/logging"
	"github.com/pulsefit/pulsefitLocal/internal/remote"
)

// ConfigWatcher reloads the runtime-tunable settings (fallback policy,
// retry count, debug logging) when the config file changes on disk.
// Settings that require a restart, like the store backend, are ignored on
// reload.
type ConfigWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchConfig starts watching configFile and applies changes to client.
func WatchConfig(configFile string, client *Client) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors replace files with
	// rename+create, which drops a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(configFile)); err != nil {
		watcher.Close()
		return nil, err
	}

	cw := &ConfigWatcher{watcher: watcher, done: make(chan struct{})}
	target := filepath.Clean(configFile)

	go func() {
		defer close(cw.done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cw.reload(configFile, client)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("config watcher error: %v", err)
			}
		}
	}()
	return cw, nil
}

func (cw *ConfigWatcher) reload(configFile string, client *Client) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Warnf("config reload skipped: %v", err)
		return
	}
	policy, err := remote.ParsePolicy(cfg.FallbackPolicy)
	if err != nil {
		log.Warnf("config reload skipped: %v", err)
		return
	}
	client.SetFallbackPolicy(policy, cfg.RequestRetry)
	logging.SetDebug(cfg.Debug)
	log.Infof("config reloaded: fallback-policy=%s request-retry=%d debug=%v",
		policy, cfg.RequestRetry, cfg.Debug)
}

// Close stops the watcher and waits for the reload loop to exit.
func (cw *ConfigWatcher) Close() error {
	err := cw.watcher.Close()
	<-cw.done
	return err
}
