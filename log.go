package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/shiena/ansicolor"
)

var log = logrus.New()

// InitLog 初始化日志
func InitLog() error {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	out, closer, err := logOutput(conf.Output.LogDir, conf.Output.OutputTerminal, time.Now())
	if err != nil {
		return err
	}
	if closer != nil {
		SafeExitInst.Register(func() { closer.Close() })
	}
	log.SetOutput(out)
	log.SetLevel(parseLevel(logLevel))
	return nil
}

// logOutput 融合日志输出: dir 下按天的日志文件与终端
func logOutput(dir string, terminal bool, day time.Time) (io.Writer, io.Closer, error) {
	var (
		writers []io.Writer
		closer  io.Closer
	)
	if dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, nil, err
		}
		filename := filepath.Join(dir, day.Format("2006-01-02.log"))
		file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, file)
		closer = file
	}
	if terminal {
		writers = append(writers, os.Stdout)
	}
	if len(writers) == 0 {
		return io.Discard, nil, nil
	}
	return ansicolor.NewAnsiColorWriter(io.MultiWriter(writers...)), closer, nil
}

// parseLevel 无法识别的级别按 info 处理
func parseLevel(s string) logrus.Level {
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
