/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/difyz9/story2video/service"

	"github.com/spf13/cobra"
)

var initConfigFile string
var initStoryFile string
var initInputFile string
var initForce bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "初始化配置文件和示例故事文件",
	Long: `初始化故事视频应用所需的配置文件和示例文件。

该命令会创建：
1. config.yaml - 主配置文件
2. story.json - 示例故事文件（页面图片 + 旁白文本）
3. input.txt - 示例旁白输入文件

如果文件已存在，默认会跳过。使用 --force 强制覆盖。

示例:
  story2video init                        # 使用默认文件名初始化
  story2video init --config custom.yaml  # 指定配置文件名
  story2video init --story my_story.json # 指定故事文件名
  story2video init --force                # 强制覆盖已存在的文件`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runInit()
		if err != nil {
			fmt.Printf("错误: %v\n", err)
			os.Exit(1)
		}
	},
}

func runInit() error {
	// 设置默认文件名
	if initConfigFile == "" {
		initConfigFile = "config.yaml"
	}
	if initStoryFile == "" {
		initStoryFile = "story.json"
	}
	if initInputFile == "" {
		initInputFile = "input.txt"
	}

	fmt.Println("🎬 故事视频应用初始化")
	fmt.Println("====================")
	fmt.Println()

	initializer := service.NewConfigInitializer()

	if initForce {
		fmt.Println("⚠️  强制模式：将覆盖已存在的文件")
	}

	// 初始化配置文件
	fmt.Printf("📝 初始化配置文件: %s\n", initConfigFile)
	err := initializer.InitializeConfigWithForce(initConfigFile, initForce)
	if err != nil {
		return fmt.Errorf("初始化配置文件失败: %v", err)
	}

	// 创建示例故事文件
	fmt.Printf("📖 创建示例故事文件: %s\n", initStoryFile)
	err = initializer.CreateSampleStoryWithForce(initStoryFile, initForce)
	if err != nil {
		return fmt.Errorf("创建示例故事文件失败: %v", err)
	}

	// 创建示例旁白输入文件
	fmt.Printf("📄 创建示例输入文件: %s\n", initInputFile)
	err = initializer.CreateSampleInputFile(initInputFile, initForce)
	if err != nil {
		return fmt.Errorf("创建示例输入文件失败: %v", err)
	}

	// 显示快速开始指南
	initializer.ShowQuickStart()

	fmt.Println("🎉 初始化完成！")
	fmt.Println()
	fmt.Println("下一步:")
	fmt.Printf("1. 编辑 %s 替换为您自己的页面图片和文本\n", initStoryFile)
	fmt.Printf("2. 编辑 %s 设置合成服务地址（可选）\n", initConfigFile)
	fmt.Println("3. 生成故事视频：")
	fmt.Printf("   ./story2video story --story-file %s\n", initStoryFile)

	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)

	// 添加配置文件标志
	initCmd.Flags().StringVarP(&initConfigFile, "config", "c", "", "配置文件路径（默认: config.yaml）")

	// 添加故事文件标志
	initCmd.Flags().StringVar(&initStoryFile, "story", "", "示例故事文件路径（默认: story.json）")

	// 添加输入文件标志
	initCmd.Flags().StringVarP(&initInputFile, "input", "i", "", "示例输入文件路径（默认: input.txt）")

	// 添加强制覆盖标志
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "强制覆盖已存在的文件")
}
