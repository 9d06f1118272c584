package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
	"github.com/teris-io/shortid"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// ErrNoTiles 配置没有覆盖任何瓦片
var ErrNoTiles = errors.New("no tiles to download")

func InitTask() error {
	start := time.Now()

	// task 在图层就绪后才会被调用, 先声明
	var task *Task
	tm, err := NewTileMap(func() { task.Download() })
	if err != nil {
		return err
	}

	levels, err := buildLevels(tm)
	if err != nil {
		return err
	}
	if conf.View.Enabled {
		levels = append(levels, tm.ViewLevel(conf.View.Radius))
	}

	fetcher := NewTileFetcher(tm.Transport, conf.Task.CacheSize, time.Duration(conf.Task.CacheTTL)*time.Second)
	defer fetcher.Stop()

	task = NewTask(SafeExitInst.Context(), levels, tm, fetcher, BreakPointInst)
	if task == nil {
		return ErrNoTiles
	}
	// 注册安全退出
	SafeExitInst.Register(task.AbortFun)

	// 就绪后开始下载
	tm.Layer.RequestUpdate()
	ctx, cancel := context.WithTimeout(SafeExitInst.Context(), time.Duration(conf.Task.ReadyTimeout)*time.Second)
	defer cancel()
	if err := tm.Layer.WaitReady(ctx, time.Duration(conf.Task.PollInterval)*time.Millisecond); err != nil {
		return fmt.Errorf("wms %s not ready: %w", tm.Name, err)
	}

	secs := time.Since(start).Seconds()
	log.Printf("%.3fs finished, %d tiles, %d failed", secs, task.Total, task.Failed())
	return nil
}

// buildLevels 由 geojson 范围生成各级别, 级别限制在地图的 Min~Max 之内
func buildLevels(tm *TileMap) ([]Level, error) {
	var levels []Level
	for _, lrs := range conf.Lrs {
		c, err := loadCollection(lrs.Geojson)
		if err != nil {
			return nil, err
		}
		for z := max(lrs.Min, tm.Min); z <= min(lrs.Max, tm.Max); z++ {
			levels = append(levels, Level{
				Name:       fmt.Sprintf("%s zoom %d", lrs.Geojson, z),
				Zoom:       z,
				Count:      tilecover.CollectionCount(c, maptile.Zoom(z)),
				Collection: c,
			})
		}
	}
	return levels, nil
}

// Task 下载任务
type Task struct {
	ID        string
	Name      string
	Levels    []Level
	TileMap   *TileMap
	Total     int64
	Current   int64
	failed    int64
	fetcher   *TileFetcher
	bp        *BreakPoint
	outDir    string
	timeDelay int
	bufSize   int
	tileWG    sync.WaitGroup
	ctx       context.Context
	abort     context.CancelFunc
	workers   chan struct{}
}

// NewTask 创建下载任务
func NewTask(ctx context.Context, levels []Level, m *TileMap, fetcher *TileFetcher, bp *BreakPoint) *Task {
	if len(levels) == 0 {
		return nil
	}
	id, _ := shortid.Generate()

	task := Task{
		ID:      id,
		Name:    m.Name,
		Levels:  levels,
		TileMap: m,
		fetcher: fetcher,
		bp:      bp,
	}

	for _, level := range levels {
		log.Printf("zoom: %d, tiles: %d", level.Zoom, level.Count)
		task.Total += level.Count
	}
	if bound, ok := task.Bound(); ok {
		log.Infof("task %s bound: %v", task.ID, bound)
	}

	task.outDir = conf.Output.Directory
	task.timeDelay = conf.Task.Timedelay
	task.bufSize = conf.Task.BufSize

	task.ctx, task.abort = context.WithCancel(ctx)
	task.workers = make(chan struct{}, conf.Task.Workers)

	return &task
}

// Bound 覆盖范围, 没有几何范围的任务返回 false
func (task *Task) Bound() (bound orb.Bound, ok bool) {
	extend := func(b orb.Bound) {
		if !ok {
			bound, ok = b, true
			return
		}
		bound = bound.Union(b)
	}
	for _, level := range task.Levels {
		for _, g := range level.Collection {
			extend(g.Bound())
		}
		for _, t := range level.Tiles {
			extend(t.Bound())
		}
	}
	return bound, ok
}

// Failed 失败的瓦片数
func (task *Task) Failed() int64 {
	return atomic.LoadInt64(&task.failed)
}

// 结束任务
func (task *Task) AbortFun() {
	task.abort()
}

// Download 开启下载任务
func (task *Task) Download() {
	for _, level := range task.Levels {
		if task.ctx.Err() != nil {
			log.Infof("Task %s got canceled.", task.Name)
			return
		}
		task.downloadLevel(level)
	}
}

// tileFetcher 瓦片加载器
func (task *Task) tileFetcher(mt maptile.Tile) {
	start := time.Now()
	//workers完成并清退
	defer func() {
		task.tileWG.Done()
		<-task.workers
	}()

	// 获取请求地址
	url := task.TileMap.GetTileURL(mt)
	body, err := task.fetcher.Fetch(task.ctx, url)
	if err != nil {
		atomic.AddInt64(&task.failed, 1)
		log.Debugf("fetch :%s error, details: %s ~", url, err)
		return
	}
	if len(body) == 0 {
		atomic.AddInt64(&task.failed, 1)
		log.Debugf("nil tile %v ~", mt)
		return
	}

	if err := task.saveTile(Tile{T: mt, C: body}); err != nil {
		atomic.AddInt64(&task.failed, 1)
		return
	}
	task.bp.SetSuccessed(mt)
	atomic.AddInt64(&task.Current, 1)

	cost := time.Since(start).Milliseconds()
	log.Debugf("tile(z:%d, x:%d, y:%d), %dms , %.2f kb, %s ...", mt.Z, mt.X, mt.Y, cost, float32(len(body))/1024.0, url)
}

// saveTile 保存瓦片
func (task *Task) saveTile(tile Tile) error {
	err := saveToFiles(tile, task.outDir, task.TileMap.Ext())
	if err != nil {
		log.Errorf("create %v tile file error ~ %s", tile.T, err)
	}
	return err
}

// downloadLevel 下载指定级别
func (task *Task) downloadLevel(level Level) {
	log.Infof("Task level: %s starting", level)
	bar := pb.New64(level.Count).Prefix(fmt.Sprintf("Zoom %d : ", level.Zoom)).Postfix("\n")
	bar.SetRefreshRate(time.Second)
	bar.Start()

	var tilelist = make(chan maptile.Tile, task.bufSize)
	go level.produce(tilelist)

loop:
	for tile := range tilelist {
		// 如果已经在成功列表里
		if task.bp.IsSuccessed(tile) {
			log.Debugf("tile %v already downloaded, skipped", tile)
			bar.Increment()
			continue
		}
		select {
		// 向队列发送数据
		case task.workers <- struct{}{}:
			bar.Increment()
			//设置请求发送间隔时间
			time.Sleep(time.Duration(task.timeDelay) * time.Millisecond)
			task.tileWG.Add(1)
			go task.tileFetcher(tile)
		case <-task.ctx.Done():
			log.Infof("Task %s got canceled.", task.Name)
			break loop
		}
	}
	// 放掉剩余的瓦片, 让生产者退出
	go func() {
		for range tilelist {
		}
	}()
	//等待该层结束
	task.tileWG.Wait()
	bar.FinishPrint(fmt.Sprintf("Task %s Zoom %d finished ~", task.ID, level.Zoom))
}
