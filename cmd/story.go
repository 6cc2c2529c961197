/*
Copyright © 2025 Story2Video Contributors
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/difyz9/story2video/service"
	"github.com/spf13/cobra"
)

var storyConfigFile string
var storyFilePath string
var storyOutputVideo string
var storyOutputAudio string
var storyOutputDir string
var storyEngine string
var storyModelName string
var storyLanguage string
var storySpeakerWav string
var storySpeakerID string
var storyHistoryPrompt string
var storyDevice string
var storyOverwrite bool

// storyCmd represents the story command
var storyCmd = &cobra.Command{
	Use:   "story",
	Short: "根据故事JSON生成带旁白的幻灯片视频",
	Long: `读取故事JSON文件（pages列表，每页一张图片和一段旁白文本），
逐页合成旁白、渲染视频片段，最后无损拼接成一个MP4，
同时导出整篇旁白音轨WAV。

每页旁白前后自动补上 2秒/5秒 静音，给观众留出看图和翻页的时间。
页面严格按顺序处理，任何一页失败立即中止整次运行。

需要本机运行TTS推理服务（XTTS/Bark），并安装ffmpeg。

示例:
  story2video story --story-file example/story.json
  story2video story --story-file story.json --engine bark
  story2video story --story-file story.json --speaker-wav voice.wav --overwrite
  story2video story --story-file story.json --language en --device cuda
  story2video story --story-file story.json --speaker-id narrator_01`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runStory()
		if err != nil {
			fmt.Printf("错误: %v\n", err)
			os.Exit(1)
		}
	},
}

func runStory() error {
	config, err := service.LoadOrDefaultConfig(storyConfigFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %v", err)
	}

	// 命令行标志覆盖配置文件
	if storyFilePath != "" {
		config.StoryFile = storyFilePath
	}
	if storyOutputVideo != "" {
		config.Output.VideoFile = storyOutputVideo
	}
	if storyOutputAudio != "" {
		config.Output.AudioFile = storyOutputAudio
	}
	if storyOutputDir != "" {
		config.Output.AssetsDir = storyOutputDir
	}
	if storyEngine != "" {
		config.Synthesis.Engine = storyEngine
	}
	if storyModelName != "" {
		config.Synthesis.ModelName = storyModelName
	}
	if storyLanguage != "" {
		config.Synthesis.Language = storyLanguage
	}
	if storySpeakerWav != "" {
		config.Synthesis.SpeakerWav = storySpeakerWav
	}
	if storySpeakerID != "" {
		config.Synthesis.SpeakerID = storySpeakerID
	}
	if storyHistoryPrompt != "" {
		config.Synthesis.HistoryPrompt = storyHistoryPrompt
	}
	if storyDevice != "" {
		config.Synthesis.Device = storyDevice
	}
	if storyOverwrite {
		config.Output.Overwrite = true
	}

	if config.StoryFile == "" {
		return fmt.Errorf("请通过 --story-file 指定故事文件")
	}

	// 配置文件未指定输出路径时回退到默认值
	if config.Output.VideoFile == "" {
		config.Output.VideoFile = "outputs/story.mp4"
	}
	if config.Output.AudioFile == "" {
		config.Output.AudioFile = "outputs/story_narration.wav"
	}
	if config.Output.AssetsDir == "" {
		config.Output.AssetsDir = "outputs/story_assets"
	}

	// 推理设备整次运行只解析一次
	requestedDevice := config.Synthesis.Device
	config.Synthesis.Device = service.ResolveDevice(requestedDevice)

	fmt.Printf("配置信息:\n")
	fmt.Printf("- 故事文件: %s\n", config.StoryFile)
	fmt.Printf("- 输出视频: %s\n", config.Output.VideoFile)
	fmt.Printf("- 旁白音轨: %s\n", config.Output.AudioFile)
	fmt.Printf("- 资产目录: %s\n", config.Output.AssetsDir)
	fmt.Printf("- 合成引擎: %s\n", config.Synthesis.Engine)
	fmt.Printf("- 推理设备: %s (请求: %s)\n", config.Synthesis.Device, requestedDevice)
	fmt.Println()

	synthesizer, err := service.CreateSynthesizer(config.Synthesis)
	if err != nil {
		return err
	}
	if err := synthesizer.ValidateConfig(); err != nil {
		return err
	}

	pipeline := service.NewStoryPipeline(config, synthesizer, service.NewFFmpegEncoder())
	if err := pipeline.Run(context.Background()); err != nil {
		return err
	}

	fmt.Println("故事视频生成完成！")
	return nil
}

func init() {
	rootCmd.AddCommand(storyCmd)

	// 添加配置文件标志（可选）
	storyCmd.Flags().StringVarP(&storyConfigFile, "config", "c", "", "配置文件路径（默认自动查找config.yaml）")

	// 输入输出
	storyCmd.Flags().StringVar(&storyFilePath, "story-file", "", "故事JSON文件路径")
	storyCmd.Flags().StringVar(&storyOutputVideo, "output-video", "", "最终视频输出路径（默认 outputs/story.mp4）")
	storyCmd.Flags().StringVar(&storyOutputAudio, "output-audio", "", "整篇旁白音轨输出路径（默认 outputs/story_narration.wav）")
	storyCmd.Flags().StringVar(&storyOutputDir, "output-dir", "", "中间音频/片段的资产目录（默认 outputs/story_assets）")

	// 合成参数
	storyCmd.Flags().StringVar(&storyEngine, "engine", "", "合成引擎: xtts 或 bark（默认 xtts）")
	storyCmd.Flags().StringVar(&storyModelName, "model-name", "", "加载的模型标识")
	storyCmd.Flags().StringVar(&storyLanguage, "language", "", "覆盖故事默认的旁白语言")
	storyCmd.Flags().StringVar(&storySpeakerWav, "speaker-wav", "", "参考音色WAV文件，用于XTTS声音克隆")
	storyCmd.Flags().StringVar(&storySpeakerID, "speaker-id", "", "XTTS模型内置音色ID")
	storyCmd.Flags().StringVar(&storyHistoryPrompt, "history-prompt", "", "Bark风格提示（仅 --engine bark 时生效）")
	storyCmd.Flags().StringVar(&storyDevice, "device", "", "推理设备: auto/cpu/cuda（默认 auto）")

	// 覆盖策略
	storyCmd.Flags().BoolVar(&storyOverwrite, "overwrite", false, "覆盖已存在的输出文件")
}
