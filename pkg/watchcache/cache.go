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

package watchcache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/tools/cache"
	"k8s.io/klog/v2"
)

// DefaultBackoff spaces relists after a failed list or watch.
var DefaultBackoff = wait.Backoff{
	Duration: time.Second,
	Factor:   2,
	Jitter:   0.1,
	Steps:    6,
	Cap:      30 * time.Second,
}

// Options configures a WatchCache. Zero fields take defaults.
type Options struct {
	// Backoff spaces relists after a failure. Defaults to DefaultBackoff.
	Backoff wait.Backoff
	// Metrics records events, relists and state. May be nil.
	Metrics *Metrics
	// BufferSize is the capacity of the event channel. Defaults to 100.
	BufferSize int
}

// WatchCache is the local mirror of one resource kind.
type WatchCache struct {
	kind       string
	lw         cache.ListerWatcher
	backoff    wait.Backoff
	metrics    *Metrics
	bufferSize int

	state    atomic.Int32
	synced   atomic.Bool
	snapshot atomic.Pointer[snapshot]

	// items and order are only touched by the consumer.
	items map[string]*unstructured.Unstructured
	order []string
}

// snapshot is an immutable view of the mirror.
type snapshot struct {
	objects []*unstructured.Unstructured
	index   map[string]*unstructured.Unstructured
}

var emptySnapshot = &snapshot{index: map[string]*unstructured.Unstructured{}}

// New creates a WatchCache for kind fed by lw. Nothing happens until Run.
func New(kind string, lw cache.ListerWatcher, opts Options) *WatchCache {
	if opts.Backoff.Duration == 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 100
	}
	c := &WatchCache{
		kind:       kind,
		lw:         lw,
		backoff:    opts.Backoff,
		metrics:    opts.Metrics,
		bufferSize: opts.BufferSize,
		items:      map[string]*unstructured.Unstructured{},
	}
	c.snapshot.Store(emptySnapshot)
	return c
}

// Kind returns the resource kind mirrored by the cache.
func (c *WatchCache) Kind() string {
	return c.kind
}

// State returns where the list/watch loop currently is.
func (c *WatchCache) State() State {
	return State(c.state.Load())
}

// HasSynced reports whether a first full list has been applied.
func (c *WatchCache) HasSynced() bool {
	return c.synced.Load()
}

// List returns the last published snapshot in mirror order. The returned
// slice and objects are shared and must not be modified.
func (c *WatchCache) List() []*unstructured.Unstructured {
	return c.snapshot.Load().objects
}

// Get returns the object called name in namespace. Cluster scoped kinds
// take an empty namespace.
func (c *WatchCache) Get(name, namespace string) (*unstructured.Unstructured, bool) {
	key := name
	if namespace != "" {
		key = namespace + "/" + name
	}
	obj, ok := c.snapshot.Load().index[key]
	return obj, ok
}

// Run runs the list/watch loop until ctx is cancelled. It returns once both
// the producer and the consumer have stopped.
func (c *WatchCache) Run(ctx context.Context) {
	defer utilruntime.HandleCrash()

	logger := klog.FromContext(ctx).WithValues("component", "WatchCache", "kind", c.kind)
	ctx = klog.NewContext(ctx, logger)
	logger.V(2).Info("Starting watch cache")

	deltas := make(chan delta, c.bufferSize)
	go c.produce(ctx, deltas)
	c.consume(ctx, deltas)

	logger.V(2).Info("Watch cache stopped")
}

// produce lists and watches forever, going back to a full list whenever the
// watch ends. Relists are spaced by the backoff, which restarts after every
// successful list. It closes out when ctx is done.
func (c *WatchCache) produce(ctx context.Context, out chan<- delta) {
	defer utilruntime.HandleCrash()
	defer close(out)

	logger := klog.FromContext(ctx)
	backoff := c.backoff

	for ctx.Err() == nil {
		listed, err := c.listAndWatch(ctx, out)
		if ctx.Err() != nil {
			return
		}
		if listed {
			backoff = c.backoff
		}
		c.metrics.recordRelist(c.kind)
		if err != nil {
			if !c.send(ctx, out, delta{event: Event{Type: Error, Err: err}}) {
				return
			}
		}

		delay := backoff.Step()
		logger.V(2).Info("Watch ended, relisting", "delay", delay, "failed", err != nil)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// listAndWatch performs one list followed by one watch. It returns whether
// the list succeeded and the error that ended the cycle; a watch that simply
// closes ends the cycle without error.
func (c *WatchCache) listAndWatch(ctx context.Context, out chan<- delta) (bool, error) {
	logger := klog.FromContext(ctx)

	c.setState(StateListing)
	list, err := c.lw.List(metav1.ListOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to list %s: %w", c.kind, err)
	}
	objects, resourceVersion, err := extractList(list)
	if err != nil {
		return false, fmt.Errorf("failed to read %s list: %w", c.kind, err)
	}
	if !c.send(ctx, out, delta{relist: true, objects: objects}) {
		return true, nil
	}

	c.setState(StateWatching)
	w, err := c.lw.Watch(metav1.ListOptions{ResourceVersion: resourceVersion, AllowWatchBookmarks: true})
	if err != nil {
		return true, fmt.Errorf("failed to watch %s: %w", c.kind, err)
	}
	defer w.Stop()
	logger.V(4).Info("Watching", "resourceVersion", resourceVersion)

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case ev, ok := <-w.ResultChan():
			if !ok {
				return true, nil
			}
			var t EventType
			switch ev.Type {
			case watch.Added:
				t = Added
			case watch.Modified:
				t = Modified
			case watch.Deleted:
				t = Deleted
			case watch.Bookmark:
				continue
			case watch.Error:
				return true, apierrors.FromObject(ev.Object)
			default:
				logger.V(4).Info("Ignoring unknown watch event", "type", ev.Type)
				continue
			}
			obj, ok := ev.Object.(*unstructured.Unstructured)
			if !ok {
				logger.Info("Ignoring watch event with unexpected object", "type", ev.Type, "object", fmt.Sprintf("%T", ev.Object))
				continue
			}
			if !c.send(ctx, out, delta{event: Event{Type: t, Object: obj}}) {
				return true, nil
			}
		}
	}
}

func (c *WatchCache) send(ctx context.Context, out chan<- delta, d delta) bool {
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}

// consume applies deltas in order and publishes a snapshot after every
// batch of deltas that were ready at once. It returns when the producer
// closes the channel.
func (c *WatchCache) consume(ctx context.Context, deltas <-chan delta) {
	logger := klog.FromContext(ctx)
	for d := range deltas {
		c.apply(logger, d)
	drain:
		for {
			select {
			case next, ok := <-deltas:
				if !ok {
					break drain
				}
				c.apply(logger, next)
			default:
				break drain
			}
		}
		c.publish()
	}
}

// applyEvents applies events as one batch and publishes the result.
func (c *WatchCache) applyEvents(logger klog.Logger, events ...Event) {
	for _, ev := range events {
		c.apply(logger, delta{event: ev})
	}
	c.publish()
}

func (c *WatchCache) apply(logger klog.Logger, d delta) {
	if d.relist {
		c.replace(d.objects)
		c.synced.Store(true)
		logger.V(4).Info("Replaced mirror", "count", len(d.objects))
		return
	}

	ev := d.event
	c.metrics.recordEvent(c.kind, ev.Type)
	if ev.Type == Error {
		logger.Error(ev.Err, "Watch cache error")
		return
	}

	key, err := cache.MetaNamespaceKeyFunc(ev.Object)
	if err != nil {
		utilruntime.HandleError(fmt.Errorf("couldn't get key for %s object: %w", c.kind, err))
		return
	}
	logger.V(4).Info("Applying event", "type", ev.Type, "key", key)

	switch ev.Type {
	case Added, Modified:
		if _, exists := c.items[key]; !exists {
			c.order = append(c.order, key)
		}
		c.items[key] = ev.Object
	case Deleted:
		if _, exists := c.items[key]; !exists {
			return
		}
		delete(c.items, key)
		for i, k := range c.order {
			if k == key {
				c.order = append(c.order[:i:i], c.order[i+1:]...)
				break
			}
		}
	}
}

func (c *WatchCache) replace(objects []*unstructured.Unstructured) {
	c.items = make(map[string]*unstructured.Unstructured, len(objects))
	c.order = make([]string, 0, len(objects))
	for _, obj := range objects {
		key, err := cache.MetaNamespaceKeyFunc(obj)
		if err != nil {
			utilruntime.HandleError(fmt.Errorf("couldn't get key for %s object: %w", c.kind, err))
			continue
		}
		if _, exists := c.items[key]; !exists {
			c.order = append(c.order, key)
		}
		c.items[key] = obj
	}
}

func (c *WatchCache) publish() {
	s := &snapshot{
		objects: make([]*unstructured.Unstructured, 0, len(c.order)),
		index:   make(map[string]*unstructured.Unstructured, len(c.order)),
	}
	for _, key := range c.order {
		obj := c.items[key]
		s.objects = append(s.objects, obj)
		s.index[key] = obj
	}
	c.snapshot.Store(s)
	c.metrics.recordObjects(c.kind, len(s.objects))
}

func (c *WatchCache) setState(s State) {
	c.state.Store(int32(s))
	c.metrics.recordState(c.kind, s)
}

func extractList(list interface{}) ([]*unstructured.Unstructured, string, error) {
	if ul, ok := list.(*unstructured.UnstructuredList); ok {
		objects := make([]*unstructured.Unstructured, 0, len(ul.Items))
		for i := range ul.Items {
			objects = append(objects, &ul.Items[i])
		}
		return objects, ul.GetResourceVersion(), nil
	}
	return nil, "", fmt.Errorf("unexpected list type %T", list)
}
