package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/difyz9/story2video/model"
	"gopkg.in/yaml.v3"
)

// ConfigInitializer 配置初始化器
type ConfigInitializer struct{}

// NewConfigInitializer 创建配置初始化器
func NewConfigInitializer() *ConfigInitializer {
	return &ConfigInitializer{}
}

// InitializeConfig 初始化配置文件
func (ci *ConfigInitializer) InitializeConfig(configPath string) error {
	return ci.InitializeConfigWithForce(configPath, false)
}

// InitializeConfigWithForce 初始化配置文件（支持强制覆盖）
func (ci *ConfigInitializer) InitializeConfigWithForce(configPath string, force bool) error {
	// 检查配置文件是否已存在
	if _, err := os.Stat(configPath); err == nil && !force {
		fmt.Printf("配置文件 %s 已存在，跳过初始化\n", configPath)
		return nil
	}

	fmt.Printf("正在初始化配置文件: %s\n", configPath)

	// 创建默认配置
	defaultConfig := DefaultConfig()

	// 确保目录存在
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %v", err)
	}

	// 将配置写入文件
	data, err := yaml.Marshal(defaultConfig)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %v", err)
	}

	err = os.WriteFile(configPath, data, 0644)
	if err != nil {
		return fmt.Errorf("写入配置文件失败: %v", err)
	}

	fmt.Printf("✅ 配置文件初始化完成: %s\n", configPath)
	fmt.Println()
	fmt.Println("📝 请按需编辑配置文件：")
	fmt.Println("   1. synthesis: 推理服务地址、引擎和音色参数")
	fmt.Println("   2. output: 视频/旁白音轨的输出位置")
	fmt.Println("   3. tencent_cloud: 使用narrate腾讯云引擎时填入密钥")
	fmt.Println()

	return nil
}

// DefaultConfig 创建默认配置
func DefaultConfig() *model.Config {
	return &model.Config{
		StoryFile: "story.json",
		InputFile: "input.txt",
		Synthesis: model.SynthesisConfig{
			Engine:    "xtts",
			ServerURL: "http://127.0.0.1:5002",
			ModelName: DefaultModelName,
			Device:    "auto",
		},
		Output: model.OutputConfig{
			VideoFile: "outputs/story.mp4",
			AudioFile: "outputs/story_narration.wav",
			AssetsDir: "outputs/story_assets",
		},
		EdgeTTS: model.EdgeTTSConfig{
			Voice:  "zh-CN-XiaoyiNeural",
			Rate:   "+0%",
			Volume: "+0%",
			Pitch:  "+0Hz",
		},
		TencentCloud: model.TencentCloudConfig{
			SecretID:  "your_secret_id",
			SecretKey: "your_secret_key",
			Region:    "ap-beijing",
		},
		TTS: model.TTSConfig{
			VoiceType:       101008, // 智琪 - 女声
			Volume:          5,
			Speed:           1.0,
			PrimaryLanguage: 1,
			SampleRate:      16000,
			Codec:           "mp3",
		},
		Audio: model.AudioConfig{
			OutputDir:   "output",
			TempDir:     "temp",
			FinalOutput: "merged_narration.mp3",
		},
		Concurrent: model.ConcurrentConfig{
			MaxWorkers: 5,
			RateLimit:  20,
		},
	}
}

// CreateSampleStory 创建示例故事文件
func (ci *ConfigInitializer) CreateSampleStory(storyPath string) error {
	return ci.CreateSampleStoryWithForce(storyPath, false)
}

// CreateSampleStoryWithForce 创建示例故事文件（支持强制覆盖）
func (ci *ConfigInitializer) CreateSampleStoryWithForce(storyPath string, force bool) error {
	// 检查文件是否已存在
	if _, err := os.Stat(storyPath); err == nil && !force {
		fmt.Printf("示例故事文件 %s 已存在，跳过创建\n", storyPath)
		return nil
	}

	fmt.Printf("正在创建示例故事文件: %s\n", storyPath)

	sampleStory := `{
  "language": "zh",
  "pages": [
    {
      "image": "images/page_01.png",
      "text": "从前有一只小狐狸，住在森林深处的一棵老橡树下。"
    },
    {
      "image": "images/page_02.png",
      "text": "每天清晨，它都会沿着小溪散步，看露珠从叶尖滑落。"
    }
  ]
}
`

	err := os.WriteFile(storyPath, []byte(sampleStory), 0644)
	if err != nil {
		return fmt.Errorf("创建示例故事文件失败: %v", err)
	}

	fmt.Printf("✅ 示例故事文件创建完成: %s\n", storyPath)
	fmt.Println("   （请把每页的图片放到故事文件同目录的 images/ 下）")
	return nil
}

// CreateSampleInputFile 创建narrate命令的示例输入文件
func (ci *ConfigInitializer) CreateSampleInputFile(inputPath string, force bool) error {
	if _, err := os.Stat(inputPath); err == nil && !force {
		fmt.Printf("示例输入文件 %s 已存在，跳过创建\n", inputPath)
		return nil
	}

	fmt.Printf("正在创建示例输入文件: %s\n", inputPath)

	sampleContent := `欢迎使用故事视频生成工具！

这是narrate命令的示例输入文件。
每行文本会被合成为一个音频片段，最后自动合并。

开始使用：
1. 免费引擎：./story2video narrate -i input.txt
2. 腾讯云引擎：./story2video narrate -i input.txt --provider tencent
`

	err := os.WriteFile(inputPath, []byte(sampleContent), 0644)
	if err != nil {
		return fmt.Errorf("创建示例输入文件失败: %v", err)
	}

	fmt.Printf("✅ 示例输入文件创建完成: %s\n", inputPath)
	return nil
}

// ShowQuickStart 显示快速开始指南
func (ci *ConfigInitializer) ShowQuickStart() {
	fmt.Println()
	fmt.Println("🚀 快速开始指南:")
	fmt.Println()
	fmt.Println("方式一：生成故事视频（需要本机TTS推理服务和ffmpeg）")
	fmt.Println("   ./story2video story --story-file story.json")
	fmt.Println()
	fmt.Println("方式二：免费Edge TTS文本转语音")
	fmt.Println("   ./story2video narrate -i input.txt")
	fmt.Println()
	fmt.Println("方式三：腾讯云TTS（需要API密钥）")
	fmt.Println("   1. 编辑 config.yaml，填入腾讯云密钥")
	fmt.Println("   2. ./story2video narrate -i input.txt --provider tencent")
	fmt.Println()
}
