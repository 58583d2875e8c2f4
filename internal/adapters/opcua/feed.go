// Package opcua feeds the recorder from an OPC UA server. Every configured
// node becomes one telemetry channel, every publish cycle counts as one tick,
// and an optional string node carries the session-info YAML document.
package opcua

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/ghalamif/SimRecorder/internal/adapters/memsource"
	"github.com/ghalamif/SimRecorder/internal/adapters/yamltree"
	"github.com/ghalamif/SimRecorder/internal/domain"
	"github.com/ghalamif/SimRecorder/internal/ports"
)

const sessionInfoHandle = 0

type binding struct {
	node NodeConfig
	typ  domain.VarType
}

type Feed struct {
	cfg Config
	obs ports.Observability
	src *memsource.Source

	client    *opcua.Client
	sub       *opcua.Subscription
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	handleMap map[uint32]binding
	notifier  ports.Notifier
	mu        sync.Mutex
	started   bool
}

func NewFeed(cfg Config, obs ports.Observability) (*Feed, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src := memsource.New(cfg.TickRate())
	for _, desc := range cfg.Channels() {
		src.DefineChannel(desc)
	}
	return &Feed{cfg: cfg, obs: obs, src: src}, nil
}

// Source is the in-memory mirror the subscription writes into.
func (f *Feed) Source() *memsource.Source { return f.src }

func (f *Feed) Start(n ports.Notifier) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return fmt.Errorf("opcua feed already started")
	}
	f.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	client, err := opcua.NewClient(f.cfg.Endpoint, f.buildClientOptions()...)
	if err != nil {
		cancel()
		return fmt.Errorf("opcua new client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		cancel()
		return fmt.Errorf("opcua connect: %w", err)
	}

	notifyCh := make(chan *opcua.PublishNotificationData, (len(f.cfg.Nodes)+1)*4)
	sub, err := client.Subscribe(ctx, &opcua.SubscriptionParameters{
		Interval: f.cfg.PublishInterval,
	}, notifyCh)
	if err != nil {
		cancel()
		_ = client.Close(ctx)
		return fmt.Errorf("opcua subscribe: %w", err)
	}

	handleMap := make(map[uint32]binding, len(f.cfg.Nodes))
	channels := f.cfg.Channels()
	for i, node := range f.cfg.Nodes {
		handle := uint32(i + 1)
		if err := f.monitor(ctx, sub, node.NodeID, handle); err != nil {
			f.cleanupOnError(ctx, cancel, sub, client)
			return err
		}
		handleMap[handle] = binding{node: node, typ: channels[i].Type}
	}
	if f.cfg.SessionInfoNodeID != "" {
		if err := f.monitor(ctx, sub, f.cfg.SessionInfoNodeID, sessionInfoHandle); err != nil {
			f.cleanupOnError(ctx, cancel, sub, client)
			return err
		}
	}

	f.mu.Lock()
	f.client = client
	f.sub = sub
	f.cancel = cancel
	f.handleMap = handleMap
	f.notifier = n
	f.started = true
	f.mu.Unlock()

	f.src.SetTickCount(0)
	f.src.SetConnected(true)
	n.SetSource(f.src)

	f.wg.Add(1)
	go f.consume(ctx, notifyCh)
	return nil
}

func (f *Feed) monitor(ctx context.Context, sub *opcua.Subscription, id string, handle uint32) error {
	nodeID, err := ua.ParseNodeID(id)
	if err != nil {
		return fmt.Errorf("parse node id %q: %w", id, err)
	}
	req := opcua.NewMonitoredItemCreateRequestWithDefaults(nodeID, ua.AttributeIDValue, handle)
	if f.cfg.SamplingInterval > 0 {
		req.RequestedParameters.SamplingInterval = float64(f.cfg.SamplingInterval / time.Millisecond)
	}
	res, err := sub.Monitor(ctx, ua.TimestampsToReturnBoth, req)
	if err != nil {
		return fmt.Errorf("monitor node %q: %w", id, err)
	}
	if len(res.Results) == 0 {
		return fmt.Errorf("monitor node %q failed: empty result", id)
	}
	if res.Results[0].StatusCode != ua.StatusOK {
		return fmt.Errorf("monitor node %q failed: %s", id, res.Results[0].StatusCode)
	}
	return nil
}

// Stop cancels the subscription, closes the session and detaches the source
// from the notifier.
func (f *Feed) Stop() error {
	f.mu.Lock()
	if !f.started {
		f.mu.Unlock()
		return nil
	}
	cancel := f.cancel
	sub := f.sub
	client := f.client
	n := f.notifier
	f.started = false
	f.cancel = nil
	f.sub = nil
	f.client = nil
	f.notifier = nil
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ctxCancel()

	var err error
	if sub != nil {
		if e := sub.Cancel(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
	}
	if client != nil {
		if e := client.Close(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
	}

	f.wg.Wait()
	f.src.SetConnected(false)
	if n != nil {
		n.SetSource(nil)
	}
	return err
}

func (f *Feed) consume(ctx context.Context, ch <-chan *opcua.PublishNotificationData) {
	defer f.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case notif := <-ch:
			if notif == nil {
				continue
			}
			if notif.Error != nil {
				f.logError("opcua_notification_failed", notif.Error)
				continue
			}
			f.processNotification(notif.Value)
		}
	}
}

func (f *Feed) processNotification(val interface{}) {
	data, ok := val.(*ua.DataChangeNotification)
	if !ok {
		return
	}

	f.mu.Lock()
	handles, n := f.handleMap, f.notifier
	f.mu.Unlock()
	if n == nil {
		return
	}

	sessionChanged := false
	for _, item := range data.MonitoredItems {
		if item.Value == nil {
			continue
		}
		if item.ClientHandle == sessionInfoHandle && f.cfg.SessionInfoNodeID != "" {
			if f.applySessionInfo(item.Value.Value) {
				sessionChanged = true
			}
			continue
		}
		b, ok := handles[item.ClientHandle]
		if !ok {
			continue
		}
		vals, err := variantValues(b.typ, item.Value.Value, b.node.Count)
		if err != nil {
			f.logError("opcua_value_skipped", err, ports.Field{Key: "node_id", Value: b.node.NodeID})
			continue
		}
		f.src.Set(b.node.Channel, vals...)
	}

	f.src.AdvanceTick(1)
	if sessionChanged {
		n.SignalSessionInfoReady()
	}
	n.SignalTelemetryReady()
}

func (f *Feed) applySessionInfo(v *ua.Variant) bool {
	if v == nil {
		return false
	}
	var raw []byte
	switch s := v.Value().(type) {
	case string:
		raw = []byte(s)
	case []byte:
		raw = s
	default:
		f.logError("opcua_session_info_skipped", fmt.Errorf("unsupported type %T", v.Value()))
		return false
	}
	doc, err := yamltree.Parse(raw)
	if err != nil {
		f.logError("opcua_session_info_skipped", err)
		return false
	}
	f.src.SetSessionInfo(doc)
	return true
}

func (f *Feed) logError(msg string, err error, fields ...ports.Field) {
	if f.obs != nil {
		f.obs.LogError(msg, err, fields...)
	}
}

func (f *Feed) buildClientOptions() []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(f.cfg.SecurityMode)),
		opcua.SecurityPolicy(normalizeSecurityPolicy(f.cfg.SecurityPolicy)),
		opcua.ApplicationName(f.cfg.ApplicationName),
		opcua.AutoReconnect(true),
	}

	if f.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(f.cfg.Username, f.cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func (f *Feed) cleanupOnError(ctx context.Context, cancel context.CancelFunc, sub *opcua.Subscription, client *opcua.Client) {
	cancel()
	if sub != nil {
		_ = sub.Cancel(ctx)
	}
	if client != nil {
		_ = client.Close(ctx)
	}
}

var _ ports.Feed = (*Feed)(nil)
