package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var conf *Conf

type Conf struct {
	App struct {
		Version string `mapstructure:"version"`
		Title   string `mapstructure:"title"`
	} `mapstructure:"app"`
	Output struct {
		Directory      string `mapstructure:"directory" validate:"required"`
		LogDir         string `mapstructure:"logDir"`
		OutputTerminal bool   `mapstructure:"outputTerminal"`
	} `mapstructure:"output"`
	Task struct {
		Workers   int `mapstructure:"workers" validate:"min=1"`
		Timedelay int `mapstructure:"timedelay" validate:"min=0"`
		BufSize   int `mapstructure:"bufSize" validate:"min=0"`
		// Timeout 单个请求超时, 秒
		Timeout int `mapstructure:"timeout" validate:"min=1"`
		// ReadyTimeout 等待 GetCapabilities 完成的时间, 秒
		ReadyTimeout int `mapstructure:"readyTimeout" validate:"min=1"`
		// PollInterval 状态轮询间隔, 毫秒
		PollInterval int   `mapstructure:"pollInterval" validate:"min=1"`
		CacheSize    int64 `mapstructure:"cacheSize" validate:"min=1"`
		// CacheTTL 瓦片缓存有效期, 秒
		CacheTTL int `mapstructure:"cacheTTL" validate:"min=1"`
	} `mapstructure:"task"`
	BreakPoint struct {
		SaveFilePath string `mapstructure:"saveFilePath" validate:"required"`
	} `mapstructure:"breakPoint"`
	WMS struct {
		Name       string `mapstructure:"name" validate:"required"`
		URL        string `mapstructure:"url" validate:"required,url"`
		Layers     string `mapstructure:"layers"`
		SRS        string `mapstructure:"srs" validate:"required"`
		Format     string `mapstructure:"format"`
		Resolution int    `mapstructure:"resolution" validate:"min=1"`
		Min        int    `mapstructure:"min" validate:"min=0,max=20"`
		Max        int    `mapstructure:"max" validate:"min=0,max=20,gtefield=Min"`
	} `mapstructure:"wms"`
	View struct {
		Enabled bool    `mapstructure:"enabled"`
		Lon     float64 `mapstructure:"lon" validate:"min=-180,max=180"`
		Lat     float64 `mapstructure:"lat" validate:"min=-85.0511,max=85.0511"`
		Zoom    int     `mapstructure:"zoom" validate:"min=0,max=20"`
		Radius  int     `mapstructure:"radius" validate:"min=0"`
	} `mapstructure:"view"`
	Lrs []LayerRange `mapstructure:"lrs" validate:"dive"`
}

// LayerRange 一个 geojson 范围及其下载级别
type LayerRange struct {
	Min     int    `mapstructure:"min" validate:"min=0,max=20"`
	Max     int    `mapstructure:"max" validate:"min=0,max=20,gtefield=Min"`
	Geojson string `mapstructure:"geojson" validate:"required"`
}

// InitConf 初始化配置
func InitConf(cfgFile string) error {
	if cfgFile == "" {
		cfgFile = "conf.toml"
	}
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		return fmt.Errorf("config file(%s) not exist", cfgFile)
	}
	c, err := loadConf(cfgFile)
	if err != nil {
		return err
	}
	conf = c
	return nil
}

func loadConf(cfgFile string) (*Conf, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(cfgFile)
	v.AutomaticEnv() // read in environment variables that match
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file(%s) error, details: %w", v.ConfigFileUsed(), err)
	}
	// 设置默认值
	v.SetDefault("app.version", "v 0.1.0")
	v.SetDefault("app.title", "WMS Tiler")
	v.SetDefault("output.directory", "output")
	v.SetDefault("output.outputTerminal", true)
	v.SetDefault("task.workers", 4)
	v.SetDefault("task.timedelay", 0)
	v.SetDefault("task.bufSize", 64)
	v.SetDefault("task.timeout", 30)
	v.SetDefault("task.readyTimeout", 60)
	v.SetDefault("task.pollInterval", 100)
	v.SetDefault("task.cacheSize", 1024)
	v.SetDefault("task.cacheTTL", 600)
	v.SetDefault("breakPoint.saveFilePath", "breakpoint")
	v.SetDefault("wms.srs", "EPSG:4326")
	v.SetDefault("wms.format", "image/png")
	v.SetDefault("wms.resolution", TileSize)
	v.SetDefault("wms.min", ZoomMin)
	v.SetDefault("wms.max", ZoomMax)

	c := new(Conf)
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("配置文件解析失败: %w", err)
	}
	if err := validator.New().Struct(c); err != nil {
		return nil, fmt.Errorf("配置文件校验失败: %w", err)
	}
	return c, nil
}
