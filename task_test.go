package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wmstiler/wms"
)

type fakeWMS struct {
	srv     *httptest.Server
	getMaps int32
}

func newFakeWMS(t *testing.T) *fakeWMS {
	t.Helper()
	caps, err := os.ReadFile("wms/testdata/capabilities_111.xml")
	require.NoError(t, err)

	f := &fakeWMS{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Query().Get("REQUEST") {
		case "GetCapabilities":
			w.Write(caps)
		case "GetMap":
			atomic.AddInt32(&f.getMaps, 1)
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("png:" + r.URL.Query().Get("BBOX")))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newTestTask(t *testing.T, ctx context.Context, tm *TileMap, bp *BreakPoint) *Task {
	t.Helper()
	fetcher := NewTileFetcher(tm.Transport, conf.Task.CacheSize, time.Minute)
	t.Cleanup(fetcher.Stop)
	task := NewTask(ctx, []Level{tm.ViewLevel(conf.View.Radius)}, tm, fetcher, bp)
	require.NotNil(t, task)
	return task
}

func TestNewTaskWithoutLevels(t *testing.T) {
	setTestConf(t, "http://example.com/wms")
	tm, err := NewTileMap(nil)
	require.NoError(t, err)
	assert.Nil(t, NewTask(context.Background(), nil, tm, nil, nil))
}

func TestTaskDownloadsOnceReady(t *testing.T) {
	fake := newFakeWMS(t)
	setTestConf(t, fake.srv.URL+"/wms")

	bp, err := OpenBreakPoint(conf.BreakPoint.SaveFilePath, conf.WMS.Name, conf.Task.Workers)
	require.NoError(t, err)

	var task *Task
	tm, err := NewTileMap(func() { task.Download() })
	require.NoError(t, err)
	task = newTestTask(t, context.Background(), tm, bp)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, int64(9), task.Total)

	// nothing is fetched until the capabilities are in
	tm.Layer.RequestUpdate()
	assert.Zero(t, atomic.LoadInt32(&fake.getMaps))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tm.Layer.WaitReady(ctx, 5*time.Millisecond))
	assert.True(t, tm.Layer.Ready())

	assert.Equal(t, int32(9), atomic.LoadInt32(&fake.getMaps))
	assert.Equal(t, int64(9), atomic.LoadInt64(&task.Current))
	assert.Zero(t, task.Failed())

	for _, tile := range task.Levels[0].Tiles {
		data, err := os.ReadFile(tilePath(conf.Output.Directory, Tile{T: tile}, PNG))
		if assert.NoError(t, err, "tile %v", tile) {
			assert.Contains(t, string(data), "png:")
		}
	}

	bp.BreakPointSafeFun()
	bp, err = OpenBreakPoint(conf.BreakPoint.SaveFilePath, conf.WMS.Name, conf.Task.Workers)
	require.NoError(t, err)
	defer bp.BreakPointSafeFun()
	for _, tile := range task.Levels[0].Tiles {
		assert.True(t, bp.IsSuccessed(tile), "tile %v", tile)
	}
}

func TestTaskSkipsRecordedTiles(t *testing.T) {
	fake := newFakeWMS(t)
	setTestConf(t, fake.srv.URL+"/wms")

	tm, err := NewTileMap(nil)
	require.NoError(t, err)
	center := tm.ViewLevel(0).Tiles[0]

	require.NoError(t, os.MkdirAll(conf.BreakPoint.SaveFilePath, os.ModePerm))
	require.NoError(t, os.WriteFile(conf.BreakPoint.SaveFilePath+"/test.log", []byte(tileKey(center)+"\n"), 0o644))
	bp, err := OpenBreakPoint(conf.BreakPoint.SaveFilePath, conf.WMS.Name, conf.Task.Workers)
	require.NoError(t, err)
	defer bp.BreakPointSafeFun()

	task := newTestTask(t, context.Background(), tm, bp)
	task.Download()

	assert.Equal(t, int32(8), atomic.LoadInt32(&fake.getMaps))
	_, err = os.Stat(tilePath(conf.Output.Directory, Tile{T: center}, PNG))
	assert.True(t, os.IsNotExist(err))
}

func TestTaskAbort(t *testing.T) {
	fake := newFakeWMS(t)
	setTestConf(t, fake.srv.URL+"/wms")

	tm, err := NewTileMap(nil)
	require.NoError(t, err)
	bp, err := OpenBreakPoint(conf.BreakPoint.SaveFilePath, conf.WMS.Name, conf.Task.Workers)
	require.NoError(t, err)
	defer bp.BreakPointSafeFun()

	task := newTestTask(t, context.Background(), tm, bp)
	task.AbortFun()
	task.Download()

	assert.Zero(t, atomic.LoadInt32(&fake.getMaps))
}

func TestTaskNotReadyOnMissingService(t *testing.T) {
	fake := newFakeWMS(t)
	setTestConf(t, fake.srv.URL+"/gone")

	var called bool
	tm, err := NewTileMap(func() { called = true })
	require.NoError(t, err)
	tm.Layer.RequestUpdate()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = tm.Layer.WaitReady(ctx, 5*time.Millisecond)
	assert.ErrorIs(t, err, wms.ErrNotFound)
	assert.False(t, called)
}

func TestBuildLevels(t *testing.T) {
	setTestConf(t, "http://example.com/wms")
	conf.WMS.Min = 4
	conf.WMS.Max = 6
	conf.Lrs = []LayerRange{{Min: 2, Max: 5, Geojson: "testdata/area.geojson"}}

	tm, err := NewTileMap(nil)
	require.NoError(t, err)
	levels, err := buildLevels(tm)
	require.NoError(t, err)

	require.Len(t, levels, 2)
	assert.Equal(t, 4, levels[0].Zoom)
	assert.Equal(t, 5, levels[1].Zoom)
	for _, l := range levels {
		assert.NotZero(t, l.Count)
		assert.NotEmpty(t, l.Collection)
	}

	task := NewTask(context.Background(), levels, tm, nil, nil)
	bound, ok := task.Bound()
	require.True(t, ok)
	assert.InDelta(t, 2.30, bound.Min.X(), 1e-9)
	assert.InDelta(t, 48.88, bound.Max.Y(), 1e-9)
}
