/*
故事视频生成应用
把分页故事（图片+旁白文本）合成为带旁白的幻灯片视频

Copyright © 2025 Story2Video Contributors
*/
package main

import (
	"github.com/difyz9/story2video/cmd"
)

// 版本信息，在编译时通过ldflags注入
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	// 设置版本信息到cmd包
	cmd.SetVersionInfo(version, buildTime, gitCommit)

	// 执行根命令
	cmd.Execute()
}
