/*
故事视频生成应用 - 根命令定义

Copyright © 2025 Story2Video Contributors
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// 版本信息
var (
	appVersion   = "dev"
	appBuildTime = "unknown"
	appGitCommit = "unknown"
)

// SetVersionInfo 设置版本信息
func SetVersionInfo(version, buildTime, gitCommit string) {
	appVersion = version
	appBuildTime = buildTime
	appGitCommit = gitCommit

	// 更新rootCmd的版本信息
	rootCmd.Version = getVersionString()
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "story2video",
	Short: "🎬 故事视频生成工具 - 把分页故事一键合成带旁白的幻灯片视频",
	Long: `🎬 故事视频生成工具

读取故事JSON（每页一张图片配一段旁白文本），逐页合成旁白、渲染视频片段，
最后拼接成一个完整的MP4，并导出整篇旁白音轨。

✨ 核心特色：
  📖 分页驱动      - 按页顺序合成旁白并渲染片段
  🎙️ 双引擎支持    - XTTS声音克隆 + Bark风格提示
  ⏱️ 自动留白      - 每页旁白前后自动补 2秒/5秒 静音
  🎞️ 无损拼接      - ffmpeg流复制拼接，音画不失真
  🆓 配套工具      - narrate命令支持Edge TTS（免费）和腾讯云TTS

🚀 快速开始：
  # 初始化配置和示例故事（新用户）
  story2video init

  # 生成故事视频
  story2video story --story-file example/story.json

  # 纯文本转语音
  story2video narrate -i input.txt`,
	Version: getVersionString(),
}

// getVersionString 获取版本字符串
func getVersionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appGitCommit, appBuildTime)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// 设置版本模板
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	// 全局标志
	rootCmd.PersistentFlags().BoolP("help", "h", false, "显示帮助信息")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "显示版本信息")

	// 设置帮助标志不显示在使用说明中
	rootCmd.PersistentFlags().MarkHidden("help")
}
