package main

import (
	"os"
)

func main() {
	// 初始化控制台
	app := NewApp()
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// 开始安全退出任务
	InitSafeExit()
	// 任务结束后同样执行清理, 写完断点
	defer SafeExitInst.Shutdown()
	// 初始化配置
	if err := InitConf(configPath); err != nil {
		return err
	}
	// 初始化日志
	if err := InitLog(); err != nil {
		return err
	}
	// 初始化断点
	if err := InitBreakPoint(); err != nil {
		return err
	}
	// 开始任务
	return InitTask()
}
