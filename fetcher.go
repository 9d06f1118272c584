package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/karlseguin/ccache/v3"
	"golang.org/x/sync/singleflight"

	"wmstiler/wms"
)

// ErrServiceException WMS 服务以 200 返回了异常文档
var ErrServiceException = errors.New("wms service exception")

var serviceExceptionMarker = []byte("ServiceException")

// TileFetcher 瓦片请求器
//
// Bodies are cached by url and concurrent requests for the same url share a
// single round trip.
type TileFetcher struct {
	transport wms.Transport
	inflight  singleflight.Group
	cache     *ccache.Cache[[]byte]
	ttl       time.Duration
}

// NewTileFetcher 创建请求器, cacheSize 为缓存的瓦片数
func NewTileFetcher(transport wms.Transport, cacheSize int64, ttl time.Duration) *TileFetcher {
	if cacheSize < 1 {
		cacheSize = 1
	}
	prune := uint32(cacheSize / 10)
	if prune == 0 {
		prune = 1
	}
	return &TileFetcher{
		transport: transport,
		cache:     ccache.New(ccache.Configure[[]byte]().MaxSize(cacheSize).ItemsToPrune(prune)),
		ttl:       ttl,
	}
}

// Fetch 获取 url 的瓦片数据
//
// The shared round trip is detached from any one caller's ctx, so a caller
// that gives up does not fail the others waiting on the same url. It is
// bounded by the transport's own timeout.
func (f *TileFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if item := f.cache.Get(url); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	ch := f.inflight.DoChan(url, func() (interface{}, error) {
		body, err := f.transport.Fetch(context.WithoutCancel(ctx), url)
		if err != nil {
			return nil, err
		}
		if bytes.Contains(body, serviceExceptionMarker) {
			return nil, fmt.Errorf("%w: %s", ErrServiceException, url)
		}
		if len(body) > 0 {
			f.cache.Set(url, body, f.ttl)
		}
		return body, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop 停止缓存的后台清理
func (f *TileFetcher) Stop() {
	f.cache.Stop()
}
