/*
Copyright 2025 The TARS Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/component-base/logs"
	"k8s.io/klog/v2"

	"github.com/tarscloud/tars-admin/cmd/tars-admin/options"
	"github.com/tarscloud/tars-admin/pkg/admin"
	"github.com/tarscloud/tars-admin/pkg/gateway"
	"github.com/tarscloud/tars-admin/pkg/watchcache"
)

func main() {
	logs.InitLogs()
	defer logs.FlushLogs()

	ctx := setupSignalHandler()
	if err := newCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		logs.FlushLogs()
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	opts := options.NewOptions()

	cmd := &cobra.Command{
		Use:   "tars-admin",
		Short: "Keeps a watch-fed view of the TARS resources of one namespace",
		Long: `tars-admin mirrors the TServer, TTemplate, TAccount and Node resources of a
cluster through list and watch, and serves health probes and metrics for the
mirrors. List reads go to the API server directly when --cache=false.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Complete(cmd.Flags()); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}

	opts.AddFlags(cmd.Flags())
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	cmd.Flags().AddGoFlagSet(klogFlags)

	return cmd
}

func run(ctx context.Context, opts *options.Options) error {
	logger := klog.FromContext(ctx).WithValues("namespace", opts.Namespace)
	ctx = klog.NewContext(ctx, logger)
	logger.Info("Starting tars-admin", "cache", opts.Cache, "bindAddress", opts.BindAddress)

	config, err := buildConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to build client config: %w", err)
	}
	gw, err := gateway.New(config, opts.Namespace)
	if err != nil {
		return err
	}

	backoff := watchcache.DefaultBackoff
	backoff.Duration = opts.RelistBackoff
	caches := admin.NewCacheSet(ctx, gw, opts.Cache, watchcache.Options{
		Backoff: backoff,
		Metrics: watchcache.NewMetrics(prometheus.DefaultRegisterer),
	})
	caches.Start(ctx)
	defer caches.Wait()

	syncCtx, cancel := context.WithTimeout(ctx, opts.CacheSyncTimeout)
	if err := caches.WaitForSync(syncCtx); err != nil {
		// Not fatal: /readyz reports the caches until they catch up.
		logger.Error(err, "Watch caches not synced", "states", caches.States())
	}
	cancel()

	server := &http.Server{
		Addr:              opts.BindAddress,
		Handler:           newRouter(admin.NewClient(gw, caches), caches, prometheus.DefaultGatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()
	logger.Info("Serving probes and metrics", "address", opts.BindAddress)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	logger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// buildConfig loads the client config from the kubeconfig flags, falling back
// to the in-cluster config.
func buildConfig(opts *options.Options) (*rest.Config, error) {
	var config *rest.Config
	if opts.Kubeconfig == "" {
		c, err := rest.InClusterConfig()
		if err != nil {
			return nil, err
		}
		config = c
	} else {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		loadingRules.ExplicitPath = opts.Kubeconfig
		overrides := &clientcmd.ConfigOverrides{}
		if opts.Context != "" {
			overrides.CurrentContext = opts.Context
		}
		c, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig %s: %w", opts.Kubeconfig, err)
		}
		config = c
	}

	config.QPS = opts.QPS
	config.Burst = opts.Burst
	config.UserAgent = "tars-admin"
	return config, nil
}

// setupSignalHandler returns a context cancelled on SIGINT or SIGTERM. A
// second signal exits directly.
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
