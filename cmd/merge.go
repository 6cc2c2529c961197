/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/difyz9/story2video/service"

	"github.com/spf13/cobra"
)

var (
	mergeInputDir string
	mergeOutput   string
	mergeFormat   string
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "合并指定目录下的音频或视频文件",
	Long: `将指定目录下的媒体文件按照文件名中的数字顺序合并成一个文件。

自动提取文件名中的数字进行排序，例如：
- page_01.wav, page_02.wav, page_10.wav
- segment_01.mp4, segment_02.mp4

输出为 .mp4 时按视频段无损拼接（流复制），
其他格式按音频字节流顺序合并。

示例:
  story2video merge --input ./story_assets --output final.mp4
  story2video merge --input ./temp --output merged.mp3`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runMerge()
		if err != nil {
			fmt.Printf("错误: %v\n", err)
			os.Exit(1)
		}
	},
}

func runMerge() error {
	// 验证输入参数
	if mergeInputDir == "" {
		return fmt.Errorf("请指定输入目录 --input")
	}
	if mergeOutput == "" {
		return fmt.Errorf("请指定输出文件 --output")
	}

	// 检查输入目录是否存在
	if _, err := os.Stat(mergeInputDir); os.IsNotExist(err) {
		return fmt.Errorf("输入目录不存在: %s", mergeInputDir)
	}

	fmt.Printf("合并配置:\n")
	fmt.Printf("- 输入目录: %s\n", mergeInputDir)
	fmt.Printf("- 输出文件: %s\n", mergeOutput)
	fmt.Printf("- 排序方式: 按文件名数字顺序\n")
	fmt.Printf("- 目标格式: %s\n", mergeFormat)
	fmt.Println()

	// 扫描并收集媒体文件
	mediaFiles, err := scanMediaFiles(mergeInputDir)
	if err != nil {
		return fmt.Errorf("扫描媒体文件失败: %v", err)
	}

	if len(mediaFiles) == 0 {
		return fmt.Errorf("在目录 %s 中没有找到媒体文件", mergeInputDir)
	}

	fmt.Printf("找到 %d 个媒体文件\n", len(mediaFiles))

	// 按文件名数字顺序排序
	sortMediaFilesByNumber(mediaFiles)

	// 显示文件列表
	fmt.Println("\n媒体文件列表（按数字顺序）:")
	for i, file := range mediaFiles {
		fmt.Printf("%d. %s (数字: %d)\n", i+1, filepath.Base(file.Path), file.Number)
	}
	fmt.Println()

	// 提取文件路径
	filePaths := make([]string, len(mediaFiles))
	for i, file := range mediaFiles {
		filePaths[i] = file.Path
	}

	// 合并媒体文件
	fmt.Println("开始合并媒体文件...")
	mergeService := service.NewMediaMergeService(service.NewFFmpegEncoder())
	err = mergeService.MergeFiles(filePaths, mergeOutput)
	if err != nil {
		return fmt.Errorf("合并媒体文件失败: %v", err)
	}

	fmt.Printf("✅ 合并完成: %s\n", mergeOutput)
	return nil
}

// MediaFileInfo 媒体文件信息
type MediaFileInfo struct {
	Path   string
	Name   string
	Number int // 从文件名提取的数字，用于排序
}

// scanMediaFiles 扫描目录中的媒体文件
func scanMediaFiles(dir string) ([]MediaFileInfo, error) {
	var mediaFiles []MediaFileInfo

	// 支持的媒体格式
	mediaExtensions := map[string]bool{
		".mp3":  true,
		".wav":  true,
		".m4a":  true,
		".aac":  true,
		".flac": true,
		".ogg":  true,
		".mp4":  true,
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// 跳过目录
		if info.IsDir() {
			return nil
		}

		// 检查文件扩展名
		ext := strings.ToLower(filepath.Ext(path))
		if mediaExtensions[ext] {
			// 提取文件名中的数字
			number := extractNumberFromFilename(info.Name())

			mediaFiles = append(mediaFiles, MediaFileInfo{
				Path:   path,
				Name:   info.Name(),
				Number: number,
			})
		}

		return nil
	})

	return mediaFiles, err
}

// extractNumberFromFilename 从文件名中提取数字
func extractNumberFromFilename(filename string) int {
	// 移除文件扩展名
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	// 使用正则表达式提取所有数字
	re := regexp.MustCompile(`\d+`)
	matches := re.FindAllString(nameWithoutExt, -1)

	if len(matches) == 0 {
		// 如果没有找到数字，返回一个很大的数，让它排在最后
		return 999999
	}

	// 取最长的数字序列（如 page_01.wav 中的 01）
	var bestMatch string
	maxLength := 0

	for _, match := range matches {
		if len(match) > maxLength {
			maxLength = len(match)
			bestMatch = match
		}
	}

	// 如果没有找到最佳匹配，取最后一个数字
	if bestMatch == "" {
		bestMatch = matches[len(matches)-1]
	}

	number, err := strconv.Atoi(bestMatch)
	if err != nil {
		return 999999 // 转换失败时也排在最后
	}

	return number
}

// sortMediaFilesByNumber 按文件名中的数字排序，数字相同时按文件名排序
func sortMediaFilesByNumber(mediaFiles []MediaFileInfo) {
	sort.Slice(mediaFiles, func(i, j int) bool {
		// 首先按数字排序
		if mediaFiles[i].Number != mediaFiles[j].Number {
			return mediaFiles[i].Number < mediaFiles[j].Number
		}
		// 数字相同时按文件名排序
		return mediaFiles[i].Name < mediaFiles[j].Name
	})
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	// 添加命令行参数
	mergeCmd.Flags().StringVarP(&mergeInputDir, "input", "i", "", "输入目录路径（必需）")
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "输出文件路径（必需）")
	mergeCmd.Flags().StringVar(&mergeFormat, "format", "mp3", "目标格式 (mp3, wav, mp4等)")

	mergeCmd.MarkFlagRequired("input")
	mergeCmd.MarkFlagRequired("output")
}
