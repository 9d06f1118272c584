package wms

import (
	"strconv"
	"strings"
)

const (
	// Version WMS 协议版本
	Version = "1.1.1"

	getCapabilitiesQuery = "SERVICE=WMS&REQUEST=GetCapabilities&VERSION=" + Version
	getMapQuery          = "SERVICE=WMS&REQUEST=GetMap&VERSION=" + Version
)

// querySeparator returns what has to go between baseURL and the WMS parameters
func querySeparator(baseURL string) string {
	switch {
	case strings.HasSuffix(baseURL, "?"), strings.HasSuffix(baseURL, "&"):
		return ""
	case strings.Contains(baseURL, "?"):
		return "&"
	default:
		return "?"
	}
}

// GetCapabilitiesURL 获取能力文档请求地址
func GetCapabilitiesURL(baseURL string) string {
	return baseURL + querySeparator(baseURL) + getCapabilitiesQuery
}

// GetMapURL 获取瓦片请求地址
//
// The bounding box is the tile's square in projected meters, starting at the
// tile anchor and tileResolution*metersPerPixel wide, sent back in degrees
// as minLon,minLat,maxLon,maxLat.
func GetMapURL(baseURL string, tileX, tileY, zoom int, cfg LayerConfig, tileResolution int, metersPerPixel float64, proj Projection) string {
	anchor := proj.ToProjected(TileToGeo(tileX, tileY, zoom))
	size := float64(tileResolution) * metersPerPixel
	sw := proj.ToGeo(ProjectedPoint{X: anchor.X, Y: anchor.Y - size})
	ne := proj.ToGeo(ProjectedPoint{X: anchor.X + size, Y: anchor.Y})
	res := strconv.Itoa(tileResolution)

	var b strings.Builder
	b.WriteString(baseURL)
	b.WriteString(querySeparator(baseURL))
	b.WriteString(getMapQuery)
	b.WriteString("&LAYERS=")
	b.WriteString(cfg.Layers)
	b.WriteString("&STYLES=&SRS=")
	b.WriteString(cfg.SRSName())
	b.WriteString("&BBOX=")
	b.WriteString(formatFloat(sw.Lon))
	b.WriteByte(',')
	b.WriteString(formatFloat(sw.Lat))
	b.WriteByte(',')
	b.WriteString(formatFloat(ne.Lon))
	b.WriteByte(',')
	b.WriteString(formatFloat(ne.Lat))
	b.WriteString("&WIDTH=")
	b.WriteString(res)
	b.WriteString("&HEIGHT=")
	b.WriteString(res)
	b.WriteString("&FORMAT=")
	b.WriteString(cfg.Format)
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
