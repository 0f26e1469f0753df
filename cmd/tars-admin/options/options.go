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

package options

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"
)

// NamespaceEnv names the environment variable holding the managed namespace.
const NamespaceEnv = "Namespace"

// Options contains the configuration of tars-admin.
type Options struct {
	// Kubeconfig is the kubeconfig file to use. In-cluster config is used
	// when empty.
	Kubeconfig string
	// Context selects a kubeconfig context.
	Context string

	// Namespace is the single namespace every TARS object lives in.
	Namespace string
	// Cache serves list reads from watch mirrors instead of the API server.
	Cache bool
	// RelistBackoff is the first delay before a failed watch cache relists.
	RelistBackoff time.Duration
	// CacheSyncTimeout bounds the wait for the first list of every cache.
	CacheSyncTimeout time.Duration

	QPS   float32
	Burst int

	// BindAddress serves health probes and metrics.
	BindAddress string

	// ConfigFile is an optional YAML file overriding the defaults.
	ConfigFile string
}

// FileConfig is the layout of the config file.
type FileConfig struct {
	K8S struct {
		Namespace string `json:"namespace,omitempty"`
		Cache     *bool  `json:"cache,omitempty"`
	} `json:"k8s"`
}

// NewOptions returns the default Options.
func NewOptions() *Options {
	return &Options{
		Namespace:        "tars",
		Cache:            true,
		RelistBackoff:    time.Second,
		CacheSyncTimeout: time.Minute,
		QPS:              50,
		Burst:            100,
		BindAddress:      ":8080",
	}
}

// AddFlags binds the options to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Kubeconfig, "kubeconfig", o.Kubeconfig, "Path to a kubeconfig. In-cluster config is used when empty.")
	fs.StringVar(&o.Context, "context", o.Context, "Kubeconfig context to use.")
	fs.StringVar(&o.Namespace, "namespace", o.Namespace, "Namespace holding the TARS resources. Defaults to the "+NamespaceEnv+" environment variable when set.")
	fs.BoolVar(&o.Cache, "cache", o.Cache, "Serve list reads from watch caches.")
	fs.DurationVar(&o.RelistBackoff, "relist-backoff", o.RelistBackoff, "Initial delay before a watch cache relists after a failure.")
	fs.DurationVar(&o.CacheSyncTimeout, "cache-sync-timeout", o.CacheSyncTimeout, "How long to wait for the watch caches to list at startup.")
	fs.Float32Var(&o.QPS, "qps", o.QPS, "Queries per second to the API server.")
	fs.IntVar(&o.Burst, "burst", o.Burst, "Burst of queries to the API server.")
	fs.StringVar(&o.BindAddress, "bind-address", o.BindAddress, "Address serving /healthz, /readyz and /metrics.")
	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "Optional YAML config file.")
}

// Complete applies the config file and the environment. Values set on the
// command line win over the environment, which wins over the file.
func (o *Options) Complete(fs *pflag.FlagSet) error {
	if o.ConfigFile != "" {
		data, err := os.ReadFile(o.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		var file FileConfig
		if err := yaml.UnmarshalStrict(data, &file); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", o.ConfigFile, err)
		}
		if file.K8S.Namespace != "" && !fs.Changed("namespace") {
			o.Namespace = file.K8S.Namespace
		}
		if file.K8S.Cache != nil && !fs.Changed("cache") {
			o.Cache = *file.K8S.Cache
		}
	}

	if ns := os.Getenv(NamespaceEnv); ns != "" && !fs.Changed("namespace") {
		o.Namespace = ns
	}
	return nil
}

// Validate checks the options and reports every problem at once.
func (o *Options) Validate() error {
	var errs error
	if msgs := validation.IsDNS1123Label(o.Namespace); len(msgs) > 0 {
		errs = multierr.Append(errs, fmt.Errorf("invalid namespace %q: %v", o.Namespace, msgs))
	}
	if o.RelistBackoff <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("relist-backoff must be positive, got %v", o.RelistBackoff))
	}
	if o.CacheSyncTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("cache-sync-timeout must be positive, got %v", o.CacheSyncTimeout))
	}
	if o.QPS <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("qps must be positive, got %v", o.QPS))
	}
	if o.Burst <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("burst must be positive, got %d", o.Burst))
	}
	if _, _, err := net.SplitHostPort(o.BindAddress); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("invalid bind-address %q: %w", o.BindAddress, err))
	}
	return errs
}
