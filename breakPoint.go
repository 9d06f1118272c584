package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/paulmach/orb/maptile"
)

var BreakPointInst *BreakPoint

func InitBreakPoint() error {
	bp, err := OpenBreakPoint(conf.BreakPoint.SaveFilePath, conf.WMS.Name, conf.Task.Workers)
	if err != nil {
		return fmt.Errorf("break point file open is error: %w", err)
	}
	BreakPointInst = bp
	SafeExitInst.Register(BreakPointInst.BreakPointSafeFun)
	return nil
}

// OpenBreakPoint 打开 dir/<name>.log 断点文件并开始记录
func OpenBreakPoint(dir, name string, bufSize int) (*BreakPoint, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.log", name))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, os.ModePerm)
	if err != nil {
		return nil, err
	}

	// 获取断点记录
	successMap, err := getBackPoint(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	b := &BreakPoint{
		file:       file,
		saveChan:   make(chan maptile.Tile, bufSize),
		successMap: successMap,
		done:       make(chan struct{}),
	}

	// 开始断点任务
	go b.Start()
	return b, nil
}

// 初始化断点文件
func getBackPoint(file *os.File) (map[string]struct{}, error) {
	res := make(map[string]struct{})

	sc := bufio.NewScanner(file)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			res[line] = struct{}{}
		}
	}
	return res, sc.Err()
}

func tileKey(tile maptile.Tile) string {
	return fmt.Sprintf("%d-%d-%d", tile.X, tile.Y, tile.Z)
}

type BreakPoint struct {
	file       *os.File
	saveChan   chan maptile.Tile
	successMap map[string]struct{}
	done       chan struct{}
	mu         sync.RWMutex
	isClose    bool
}

func (b *BreakPoint) IsSuccessed(tile maptile.Tile) bool {
	_, ok := b.successMap[tileKey(tile)]
	return ok
}

func (b *BreakPoint) SetSuccessed(tile maptile.Tile) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.isClose {
		return
	}
	b.saveChan <- tile
}

func (b *BreakPoint) Start() {
	defer close(b.done)
	log.Infof("断点记录任务已开始")
	w := bufio.NewWriter(b.file)
	for tile := range b.saveChan {
		w.WriteString(tileKey(tile) + "\n")
		if len(b.saveChan) == 0 {
			w.Flush()
		}
	}
	w.Flush()
}

// BreakPointSafeFun 停止接收记录, 写完缓冲后关闭文件
func (b *BreakPoint) BreakPointSafeFun() {
	b.mu.Lock()
	if b.isClose {
		b.mu.Unlock()
		return
	}
	b.isClose = true
	close(b.saveChan)
	b.mu.Unlock()

	<-b.done
	b.file.Close()
	log.Infof("断点记录任务已安全退出")
}
