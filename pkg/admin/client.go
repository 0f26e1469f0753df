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

// Package admin assembles the gateway, the watch caches, the node index and
// the daemon pod locator into the single client the request handlers use.
package admin

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/tools/remotecommand"
	"k8s.io/klog/v2"

	tarsv1beta1 "github.com/tarscloud/tars-admin/pkg/apis/tars/v1beta1"
	"github.com/tarscloud/tars-admin/pkg/committer"
	"github.com/tarscloud/tars-admin/pkg/converter"
	"github.com/tarscloud/tars-admin/pkg/daemonpod"
	"github.com/tarscloud/tars-admin/pkg/gateway"
	"github.com/tarscloud/tars-admin/pkg/nodes"
	"github.com/tarscloud/tars-admin/pkg/watchcache"
)

// ErrNoAgent is returned when no running agent pod serves a node.
var ErrNoAgent = errors.New("no running agent pod")

// Client serves cluster reads and writes for the managed namespace.
type Client struct {
	gateway      *gateway.Gateway
	caches       *watchcache.Set
	labels       tarsv1beta1.NamespaceLabels
	nodes        *nodes.Index
	daemons      *daemonpod.Locator
	commitServer committer.CommitFunc[tarsv1beta1.TServerSpec]
}

// NewClient builds a Client. caches decides whether list reads are served
// from the watch mirrors.
func NewClient(gw *gateway.Gateway, caches *watchcache.Set) *Client {
	labels := tarsv1beta1.NewNamespaceLabels(gw.Namespace())
	return &Client{
		gateway:      gw,
		caches:       caches,
		labels:       labels,
		nodes:        nodes.NewIndex(caches.Nodes(), labels),
		daemons:      daemonpod.NewLocator(gw),
		commitServer: committer.NewServerCommitter(gw),
	}
}

// Gateway returns the underlying gateway.
func (c *Client) Gateway() *gateway.Gateway { return c.gateway }

// Nodes returns the node capability index.
func (c *Client) Nodes() *nodes.Index { return c.nodes }

// DaemonPods returns the agent pod locator.
func (c *Client) DaemonPods() *daemonpod.Locator { return c.daemons }

// Labels returns the namespace scoped label keys.
func (c *Client) Labels() tarsv1beta1.NamespaceLabels { return c.labels }

// ServerList lists every TServer.
func (c *Client) ServerList(ctx context.Context) ([]*unstructured.Unstructured, error) {
	return c.caches.Servers().List(ctx)
}

// TemplateList lists every TTemplate.
func (c *Client) TemplateList(ctx context.Context) ([]*unstructured.Unstructured, error) {
	return c.caches.Templates().List(ctx)
}

// AccountList lists every TAccount.
func (c *Client) AccountList(ctx context.Context) ([]*unstructured.Unstructured, error) {
	return c.caches.Accounts().List(ctx)
}

// AccountName is the TAccount name of a user id: the hex md5 of uid.
func AccountName(uid string) string {
	sum := md5.Sum([]byte(uid))
	return hex.EncodeToString(sum[:])
}

// Account returns the TAccount of uid, or nil when there is none. A cache
// miss falls through to the API server.
func (c *Client) Account(ctx context.Context, uid string) (*unstructured.Unstructured, error) {
	name := AccountName(uid)
	if obj, ok := c.caches.Accounts().Lookup(name, c.gateway.Namespace()); ok {
		return obj, nil
	}
	return c.gateway.GetObject(ctx, tarsv1beta1.TAccountResource, name)
}

// Server returns the TServer addressed by serverID ("App.Server"), or nil.
func (c *Client) Server(ctx context.Context, serverID string) (*unstructured.Unstructured, error) {
	return c.gateway.GetObject(ctx, tarsv1beta1.TServerResource, converter.TServerName(serverID))
}

// TreeData returns the app tree, or nil when it has not been created yet.
func (c *Client) TreeData(ctx context.Context) (*tarsv1beta1.TTree, error) {
	obj, err := c.gateway.GetObject(ctx, tarsv1beta1.TTreeResource, tarsv1beta1.TreeName)
	if err != nil || obj == nil {
		return nil, err
	}
	return tarsv1beta1.TreeFromUnstructured(obj)
}

// HasAppName reports whether the app tree contains app.
func (c *Client) HasAppName(ctx context.Context, app string) (bool, error) {
	tree, err := c.TreeData(ctx)
	if err != nil || tree == nil {
		return false, err
	}
	for _, a := range tree.Apps {
		if a.Name == app {
			return true, nil
		}
	}
	return false, nil
}

// NodeList lists the nodes the framework may use in this namespace.
func (c *Client) NodeList(ctx context.Context) ([]*unstructured.Unstructured, error) {
	return c.nodes.EligibleNodes(ctx)
}

// NodeListAll lists every node of the cluster.
func (c *Client) NodeListAll(ctx context.Context) ([]*unstructured.Unstructured, error) {
	return c.nodes.AllNodes(ctx)
}

// SetNodeAppAbility adds node to, or removes it from, app's node pool.
func (c *Client) SetNodeAppAbility(ctx context.Context, node, app string, enabled bool) (*corev1.Node, error) {
	return c.nodes.SetAppAbility(ctx, c.gateway, node, app, enabled)
}

// CreateServer creates the TServer of app.server.
func (c *Client) CreateServer(ctx context.Context, app, server string, servants converter.ServerServant, k8s converter.ServerK8S, option converter.ServerOption) (*unstructured.Unstructured, error) {
	obj, err := tarsv1beta1.ToUnstructured(converter.BuildServer(c.gateway.Namespace(), app, server, servants, k8s, option))
	if err != nil {
		return nil, err
	}
	return c.gateway.CreateObject(ctx, tarsv1beta1.TServerResource, obj)
}

// CreateDeploy files a deploy request for meta.
func (c *Client) CreateDeploy(ctx context.Context, meta converter.DeployMetadata) (*unstructured.Unstructured, error) {
	obj, err := tarsv1beta1.ToUnstructured(converter.BuildDeploy(c.gateway.Namespace(), meta))
	if err != nil {
		return nil, err
	}
	klog.FromContext(ctx).V(2).Info("Creating deploy request", "app", meta.ServerApp, "server", meta.ServerName, "name", obj.GetName())
	return c.gateway.CreateObject(ctx, tarsv1beta1.TDeployResource, obj)
}

// UpdateServer commits the edits made to a TServer. old is the object as
// read, edited is the caller's modified copy.
func (c *Client) UpdateServer(ctx context.Context, old, edited *tarsv1beta1.TServer) error {
	oldResource, err := committer.ServerResource(old)
	if err != nil {
		return err
	}
	editedResource, err := committer.ServerResource(edited)
	if err != nil {
		return err
	}
	return c.commitServer(ctx, oldResource, editedResource)
}

// ExecOnNode runs command in the agent pod serving node.
func (c *Client) ExecOnNode(ctx context.Context, node string, command []string, streams remotecommand.StreamOptions) error {
	pod, err := c.daemons.ByNodeName(ctx, node)
	if err != nil {
		return err
	}
	if pod == nil {
		return fmt.Errorf("exec on node %s: %w", node, ErrNoAgent)
	}
	return c.gateway.ExecPod(ctx, pod.Name, "", command, streams)
}
