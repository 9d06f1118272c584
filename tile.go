package main

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
)

// TileSize 默认瓦片大小
const TileSize = 256

// ZoomMin 最小级别
const ZoomMin = 0

// ZoomMax 最大级别
const ZoomMax = 20

// Tile 自定义瓦片存储
type Tile struct {
	T maptile.Tile
	C []byte
}

// Level 级别&瓦片数
//
// Tiles come either from covering Collection or, when Tiles is set, from that
// fixed list (the tiles walked around the view center).
type Level struct {
	Name       string
	Zoom       int
	Count      int64
	Collection orb.Collection
	Tiles      []maptile.Tile
}

func (l Level) String() string {
	return l.Name
}

// produce sends every tile of the level on ch and closes it
func (l Level) produce(ch chan<- maptile.Tile) {
	if l.Tiles == nil {
		tilecover.CollectionChannel(l.Collection, maptile.Zoom(l.Zoom), ch)
		return
	}
	for _, t := range l.Tiles {
		ch <- t
	}
	close(ch)
}

// Constants representing TileFormat types
const (
	PNG  = "png"
	JPG  = "jpg"
	GIF  = "gif"
	TIFF = "tif"
	WEBP = "webp"
)

// formatExt 由 MIME 类型得到文件后缀
func formatExt(mime string) string {
	mime = strings.ToLower(mime)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	switch strings.TrimSpace(mime) {
	case "image/jpeg", "image/jpg":
		return JPG
	case "image/gif":
		return GIF
	case "image/tiff", "image/geotiff":
		return TIFF
	case "image/webp":
		return WEBP
	default:
		return PNG
	}
}
