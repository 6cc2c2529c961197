/*
Copyright © 2025 Story2Video Contributors
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/difyz9/story2video/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var narrateConfigFile string
var narrateInputFile string
var narrateOutputDir string
var narrateProvider string
var narrateListVoices string
var narrateListAllVoices bool
var narrateVoice string
var narrateRate string
var narrateVolume string
var narratePitch string
var narrateSmartMarkdown bool
var narrateOverwrite bool

// narrateCmd represents the narrate command
var narrateCmd = &cobra.Command{
	Use:   "narrate",
	Short: "把文本/Markdown文件转换成一个合并的音频文件",
	Long: `把UTF-8文本文件或Markdown文档逐条合成语音，并自动合并成一个音频文件。

默认使用免费的Edge TTS，无需API密钥；也可切换到腾讯云TTS。
Markdown文件建议配合 --smart-markdown 使用，自动跳过代码块、表格和图片。

示例:
  story2video narrate -i input.txt                         # Edge TTS（免费）
  story2video narrate -i input.txt --provider tencent      # 腾讯云TTS
  story2video narrate -i document.md --smart-markdown      # 智能Markdown模式
  story2video narrate --list zh                            # 列出中文语音
  story2video narrate --list-all                           # 列出所有语音
  story2video narrate -i input.txt --voice zh-CN-YunyangNeural
  story2video narrate -i input.txt --rate +20% --volume +10%`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runNarrate()
		if err != nil {
			fmt.Printf("错误: %v\n", err)
			os.Exit(1)
		}
	},
}

func runNarrate() error {
	// 列出语音模式直接执行并返回
	if narrateListAllVoices || narrateListVoices != "" {
		return service.ListEdgeVoices(narrateListVoices)
	}

	config, err := service.LoadOrDefaultConfig(narrateConfigFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %v", err)
	}

	// 命令行标志覆盖配置文件
	if narrateInputFile != "" {
		config.InputFile = narrateInputFile
	}
	if narrateOutputDir != "" {
		config.Audio.OutputDir = narrateOutputDir
	}
	if narrateVoice != "" {
		config.EdgeTTS.Voice = narrateVoice
	}
	if narrateRate != "" {
		config.EdgeTTS.Rate = narrateRate
	}
	if narrateVolume != "" {
		config.EdgeTTS.Volume = narrateVolume
	}
	if narratePitch != "" {
		config.EdgeTTS.Pitch = narratePitch
	}

	// 配置文件未指定输出路径时回退到默认值
	if config.Audio.OutputDir == "" {
		config.Audio.OutputDir = "output"
	}
	if config.Audio.TempDir == "" {
		config.Audio.TempDir = "temp"
	}
	if config.Audio.FinalOutput == "" {
		config.Audio.FinalOutput = "merged_narration.mp3"
	}

	if config.InputFile == "" {
		return fmt.Errorf("请通过 --input 指定输入文件")
	}
	if _, err := os.Stat(config.InputFile); err != nil {
		return fmt.Errorf("输入文件不存在: %s", config.InputFile)
	}

	// 输出覆盖检查在任何合成开始前完成
	finalOutput := filepath.Join(config.Audio.OutputDir, config.Audio.FinalOutput)
	if _, err := os.Stat(finalOutput); err == nil && !narrateOverwrite {
		return fmt.Errorf("输出文件已存在: %s（使用 --overwrite 覆盖）", finalOutput)
	}

	// 每次运行独占一个临时子目录，避免残留片段混入合并结果
	config.Audio.TempDir = filepath.Join(config.Audio.TempDir, uuid.NewString()[:8])

	fmt.Printf("配置信息:\n")
	fmt.Printf("- 输入文件: %s\n", config.InputFile)
	fmt.Printf("- 输出目录: %s\n", config.Audio.OutputDir)
	fmt.Printf("- 最终文件: %s\n", config.Audio.FinalOutput)
	fmt.Printf("- 临时目录: %s\n", config.Audio.TempDir)
	fmt.Printf("- TTS提供商: %s\n", providerDisplayName(narrateProvider))
	fmt.Printf("- 最大并发数: %d\n", config.Concurrent.MaxWorkers)
	fmt.Printf("- 速率限制: %d次/秒\n", config.Concurrent.RateLimit)
	if narrateSmartMarkdown {
		fmt.Printf("- 处理模式: 智能Markdown模式（blackfriday解析）\n")
	} else {
		fmt.Printf("- 处理模式: 逐行模式\n")
	}
	fmt.Println()

	narrateService, err := service.CreateNarrateService(narrateProvider, config)
	if err != nil {
		return err
	}

	if narrateSmartMarkdown {
		err = narrateService.ProcessMarkdownFile(config.InputFile)
	} else {
		err = narrateService.ProcessInputFile(config.InputFile)
	}
	if err != nil {
		return fmt.Errorf("处理文件失败: %v", err)
	}

	fmt.Println("语音合成和音频合并完成！")
	return nil
}

// providerDisplayName 提供商显示名称
func providerDisplayName(provider string) string {
	switch provider {
	case "tencent", "tencentcloud":
		return "腾讯云TTS"
	default:
		return "Microsoft Edge TTS (免费)"
	}
}

func init() {
	rootCmd.AddCommand(narrateCmd)

	// 添加配置文件标志（可选）
	narrateCmd.Flags().StringVarP(&narrateConfigFile, "config", "c", "", "配置文件路径（默认自动查找config.yaml）")

	// 输入输出
	narrateCmd.Flags().StringVarP(&narrateInputFile, "input", "i", "", "输入文本文件路径")
	narrateCmd.Flags().StringVarP(&narrateOutputDir, "output", "o", "", "输出目录路径（默认为./output）")

	// 提供商选择
	narrateCmd.Flags().StringVar(&narrateProvider, "provider", "edge", "TTS提供商: edge 或 tencent")

	// 列出语音
	narrateCmd.Flags().BoolVar(&narrateListAllVoices, "list-all", false, "列出所有可用语音")
	narrateCmd.Flags().StringVar(&narrateListVoices, "list", "", "列出指定语言的语音（如: zh, en, ja）")

	// Edge TTS语音参数
	narrateCmd.Flags().StringVar(&narrateVoice, "voice", "", "指定语音 (如: zh-CN-XiaoyiNeural)")
	narrateCmd.Flags().StringVar(&narrateRate, "rate", "", "语速 (如: +20%, -10%)")
	narrateCmd.Flags().StringVar(&narrateVolume, "volume", "", "音量 (如: +10%, -20%)")
	narrateCmd.Flags().StringVar(&narratePitch, "pitch", "", "音调 (如: +10Hz, -5Hz)")

	// 处理模式
	narrateCmd.Flags().BoolVar(&narrateSmartMarkdown, "smart-markdown", false, "启用智能Markdown处理模式（推荐用于.md文件）")

	// 覆盖策略
	narrateCmd.Flags().BoolVar(&narrateOverwrite, "overwrite", false, "覆盖已存在的输出文件")
}
