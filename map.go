package main

import (
	"net/http"
	"time"

	"github.com/paulmach/orb/maptile"

	"wmstiler/wms"
)

// TileMap 瓦片地图类型, 瓦片来自一个 WMS 图层
type TileMap struct {
	Name   string
	Min    int
	Max    int
	Format string
	Layer  *wms.TileLayer
	// Transport 图层与瓦片请求共用
	Transport wms.Transport
}

// NewTileMap 由配置创建 WMS 瓦片地图, update 在图层就绪后执行
func NewTileMap(update func()) (*TileMap, error) {
	cfg := wms.NewLayerConfig(conf.WMS.URL)
	cfg.Layers = conf.WMS.Layers
	if conf.WMS.Format != "" {
		cfg.Format = conf.WMS.Format
	}
	srs, err := wms.ParseSRS(conf.WMS.SRS)
	if err != nil {
		return nil, err
	}
	cfg.SetSRS(srs)

	view := wms.View{
		Center:        wms.GeoPoint{Lon: conf.View.Lon, Lat: conf.View.Lat},
		Zoom:          conf.View.Zoom,
		Resolution:    conf.WMS.Resolution,
		TileWorldSize: 1,
	}
	client := &http.Client{Timeout: time.Duration(conf.Task.Timeout) * time.Second}
	transport := wms.NewHTTPTransport(client)

	layer := wms.NewTileLayer(view, cfg,
		wms.WithTransport(transport),
		wms.WithLogger(log.WithField("wms", conf.WMS.Name)),
		wms.WithUpdateFunc(update),
	)
	return &TileMap{
		Name:      conf.WMS.Name,
		Min:       conf.WMS.Min,
		Max:       conf.WMS.Max,
		Format:    cfg.Format,
		Layer:     layer,
		Transport: transport,
	}, nil
}

// GetTileURL 获取瓦片URL
func (m *TileMap) GetTileURL(t maptile.Tile) string {
	return m.Layer.TileURL(int(t.X), int(t.Y), int(t.Z))
}

// Ext 瓦片文件后缀
func (m *TileMap) Ext() string {
	return formatExt(m.Format)
}

// ViewLevel 以视图中心瓦片向外遍历 radius 圈得到的瓦片
func (m *TileMap) ViewLevel(radius int) Level {
	zoom := conf.View.Zoom
	placed := m.Layer.VisibleTiles(radius)
	tiles := make([]maptile.Tile, 0, len(placed))
	for _, p := range placed {
		tiles = append(tiles, p.Index.MapTile(zoom))
	}
	return Level{
		Name:  "view",
		Zoom:  zoom,
		Count: int64(len(tiles)),
		Tiles: tiles,
	}
}
