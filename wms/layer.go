package wms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrIdle is returned by WaitReady when nothing is left that could make the layer ready
var ErrIdle = errors.New("wms: layer is idle")

// Phase 能力文档获取阶段
type Phase int

const (
	Idle Phase = iota
	Fetching
	ParsingResponse
	Ready
)

var phaseNames = [...]string{"idle", "fetching", "parsing", "ready"}

func (p Phase) String() string {
	if p < Idle || p > Ready {
		return "unknown"
	}
	return phaseNames[p]
}

// FetchState GetCapabilities 状态
type FetchState struct {
	InFlight      bool
	Parsing       bool
	Ready         bool
	PendingUpdate bool
}

// Phase folds the flags into a single phase
func (s FetchState) Phase() Phase {
	switch {
	case s.Parsing:
		return ParsingResponse
	case s.InFlight:
		return Fetching
	case s.Ready:
		return Ready
	default:
		return Idle
	}
}

type fetchResult struct {
	body []byte
	err  error
}

type parseResult struct {
	caps *Capabilities
	err  error
}

// request is one GetCapabilities round trip
type request struct {
	url    string
	cancel context.CancelFunc
	done   chan fetchResult
	parsed chan parseResult
	// stale requests were overtaken by a base url change; their result is dropped
	stale bool
}

// Option 图层选项
type Option func(*TileLayer)

func WithTransport(t Transport) Option {
	return func(l *TileLayer) { l.transport = t }
}

func WithParser(p Parser) Option {
	return func(l *TileLayer) { l.parser = p }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(l *TileLayer) { l.log = log }
}

// WithUpdateFunc sets what RequestUpdate runs, directly or once the layer becomes ready
func WithUpdateFunc(fn func()) Option {
	return func(l *TileLayer) { l.update = fn }
}

// TileLayer WMS 瓦片图层
//
// The layer is driven by Poll from a single goroutine; setters belong to the
// same goroutine. The GetCapabilities request and the document parse run in
// their own goroutines and hand their results back through channels that only
// Poll reads, so FetchState is never touched concurrently.
// Tile geometry and TileURL do not mutate the layer.
type TileLayer struct {
	m         Map
	cfg       LayerConfig
	transport Transport
	parser    Parser
	log       logrus.FieldLogger
	update    func()

	state          FetchState
	baseURLChanged bool
	req            *request
	caps           *Capabilities
	lastErr        error
}

// NewTileLayer creates a layer over m. A non empty cfg.BaseURL is fetched on the first Poll.
func NewTileLayer(m Map, cfg LayerConfig, opts ...Option) *TileLayer {
	l := &TileLayer{
		m:         m,
		cfg:       cfg,
		transport: NewHTTPTransport(nil),
		parser:    XMLParser{},
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if cfg.BaseURL != "" {
		l.baseURLChanged = true
	}
	return l
}

// Config returns a copy of the layer configuration
func (l *TileLayer) Config() LayerConfig {
	return l.cfg
}

func (l *TileLayer) BaseURL() string {
	return l.cfg.BaseURL
}

// SetBaseURL switches the layer to a new server. The layer stops being ready,
// an outstanding request is cancelled and its result ignored, and the next
// Poll after it has resolved fetches the new capabilities.
func (l *TileLayer) SetBaseURL(baseURL string) {
	l.cfg.BaseURL = baseURL
	l.baseURLChanged = true
	l.state.Ready = false
	if l.req != nil && !l.req.stale {
		l.req.stale = true
		l.req.cancel()
		l.log.WithFields(logrus.Fields{"url": l.req.url, "base_url": baseURL}).Debugf("base url changed, dropping in flight GetCapabilities")
	}
}

func (l *TileLayer) Layers() string {
	return l.cfg.Layers
}

func (l *TileLayer) SetLayers(layers string) {
	l.cfg.Layers = layers
}

func (l *TileLayer) SRS() CoordinateSystem {
	return l.cfg.SRS()
}

func (l *TileLayer) SetSRS(cs CoordinateSystem) {
	l.cfg.SetSRS(cs)
}

func (l *TileLayer) SRSName() string {
	return l.cfg.SRSName()
}

func (l *TileLayer) Format() string {
	return l.cfg.Format
}

func (l *TileLayer) SetFormat(format string) {
	l.cfg.Format = format
}

func (l *TileLayer) State() FetchState {
	return l.state
}

func (l *TileLayer) Phase() Phase {
	return l.state.Phase()
}

// Ready reports whether the capabilities were fetched and parsed
func (l *TileLayer) Ready() bool {
	return l.state.Ready
}

// Capabilities returns the last parsed document, nil before the first success
func (l *TileLayer) Capabilities() *Capabilities {
	return l.caps
}

// LastError returns the failure that sent the layer back to idle, if any
func (l *TileLayer) LastError() error {
	return l.lastErr
}

// RequestUpdate runs the update func now when ready, otherwise once the layer gets ready
func (l *TileLayer) RequestUpdate() {
	if l.state.Ready {
		l.runUpdate()
		return
	}
	l.state.PendingUpdate = true
}

// Poll advances the capability fetch by at most one step without blocking
func (l *TileLayer) Poll() {
	if l.req == nil {
		if l.baseURLChanged {
			l.launch()
		}
		return
	}

	if l.state.Parsing {
		select {
		case res := <-l.req.parsed:
			l.handleParsed(res)
		default:
		}
		return
	}

	select {
	case res := <-l.req.done:
		l.handleResponse(res)
	default:
	}
}

// WaitReady polls every interval until the layer is ready, goes idle, or ctx is done
func (l *TileLayer) WaitReady(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		l.Poll()
		if l.state.Ready {
			return nil
		}
		if l.req == nil && !l.baseURLChanged {
			if l.lastErr != nil {
				return l.lastErr
			}
			return ErrIdle
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *TileLayer) launch() {
	l.baseURLChanged = false
	l.state.Ready = false

	if l.cfg.BaseURL == "" {
		l.log.Debugf("no base url, GetCapabilities skipped")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	req := &request{
		url:    GetCapabilitiesURL(l.cfg.BaseURL),
		cancel: cancel,
		done:   make(chan fetchResult, 1),
		parsed: make(chan parseResult, 1),
	}
	l.req = req
	l.state.InFlight = true
	l.log.WithFields(logrus.Fields{"url": req.url, "phase": Fetching}).Debugf("launching GetCapabilities")

	transport := l.transport
	go func() {
		body, err := transport.Fetch(ctx, req.url)
		req.done <- fetchResult{body: body, err: err}
	}()
}

func (l *TileLayer) handleResponse(res fetchResult) {
	req := l.req
	if req.stale {
		l.finish()
		return
	}

	err := res.err
	if err == nil {
		err = checkBody(res.body)
	}
	if err != nil {
		l.lastErr = err
		l.log.WithField("url", req.url).Warnf("GetCapabilities failed: %s", err)
		l.finish()
		return
	}

	l.state.Parsing = true
	parser := l.parser
	body := res.body
	go func() {
		caps, err := parser.Parse(body)
		req.parsed <- parseResult{caps: caps, err: err}
	}()
}

func (l *TileLayer) handleParsed(res parseResult) {
	req := l.req
	l.finish()
	if req.stale {
		return
	}

	if res.err != nil || res.caps == nil {
		err := res.err
		if err == nil {
			err = errors.New("empty document")
		}
		if !errors.Is(err, ErrParse) {
			err = fmt.Errorf("%w: %s", ErrParse, err)
		}
		l.lastErr = err
		l.log.WithField("url", req.url).Warnf("GetCapabilities failed: %s", err)
		return
	}

	l.caps = res.caps
	l.lastErr = nil
	l.state.Ready = true
	l.log.WithFields(logrus.Fields{"url": req.url, "phase": Ready}).Infof("capabilities ready, %d layers", len(res.caps.LayerNames()))
	l.checkCapabilities()

	if l.state.PendingUpdate {
		l.state.PendingUpdate = false
		l.runUpdate()
	}
}

// finish forgets the current request and returns to idle
func (l *TileLayer) finish() {
	l.req.cancel()
	l.req = nil
	l.state.InFlight = false
	l.state.Parsing = false
}

func (l *TileLayer) checkCapabilities() {
	for _, name := range l.cfg.LayerNames() {
		if !l.caps.HasLayer(name) {
			l.log.WithField("layer", name).Warnf("layer not advertised by server")
		}
	}
	if srs := l.cfg.SRSName(); !l.caps.SupportsSRS(srs) {
		l.log.WithField("srs", srs).Warnf("srs not advertised by server")
	}
}

func (l *TileLayer) runUpdate() {
	if l.update != nil {
		l.update()
	}
}

// TileCountPerAxis 当前级别下的瓦片行列数
func (l *TileLayer) TileCountPerAxis() (tileCountOnX, tileCountOnY int) {
	n := TileCountPerAxis(l.m.RoundedZoom())
	return n, n
}

// CenterTile returns the tile under the map center and its offset
func (l *TileLayer) CenterTile() (TileIndex, TileOffset) {
	return CenterTile(l.m.CenterWGS84(), l.m.CenterProjected(), l.m.RoundedZoom(), l.m.Scale(), l.m.Projection())
}

// NeighbourTile steps from a placed tile one tile in dir
func (l *TileLayer) NeighbourTile(t PlacedTile, dir Direction) (PlacedTile, bool) {
	x, y := l.TileCountPerAxis()
	return NeighbourTile(t, x, y, dir, l.m.Scale().TileWorldSize)
}

// VisibleTiles walks out from the center tile up to radius tiles away
func (l *TileLayer) VisibleTiles(radius int) []PlacedTile {
	idx, offset := l.CenterTile()
	x, y := l.TileCountPerAxis()
	return Walk(Place(idx, offset), x, y, radius, l.m.Scale().TileWorldSize)
}

// TileURL 获取瓦片 GetMap 地址
//
// Zooms other than the map's own use the spherical mercator resolution of that zoom.
func (l *TileLayer) TileURL(tileX, tileY, zoom int) string {
	res := l.m.TileResolution()
	mpp := l.m.RoundedMetersPerPixel()
	if zoom != l.m.RoundedZoom() {
		mpp = MetersPerPixel(zoom, res)
	}
	return GetMapURL(l.cfg.BaseURL, tileX, tileY, zoom, l.cfg, res, mpp, l.m.Projection())
}
