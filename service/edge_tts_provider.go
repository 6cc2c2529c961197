package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/difyz9/edge-tts-go/pkg/communicate"
	"github.com/difyz9/edge-tts-go/pkg/types"
	"github.com/difyz9/edge-tts-go/pkg/voices"
	"github.com/difyz9/story2video/model"
)

// EdgeTTSProvider Edge TTS提供商，免费、无需API密钥
type EdgeTTSProvider struct {
	config *model.Config
}

// NewEdgeTTSProvider 创建Edge TTS提供商
func NewEdgeTTSProvider(config *model.Config) *EdgeTTSProvider {
	return &EdgeTTSProvider{
		config: config,
	}
}

// GenerateAudio 合成一段音频
func (etp *EdgeTTSProvider) GenerateAudio(ctx context.Context, text string, index int) (string, error) {
	voice := etp.config.EdgeTTS.Voice
	if voice == "" {
		voice = "zh-CN-XiaoyiNeural" // 默认中文女声
	}
	rate := etp.config.EdgeTTS.Rate
	if rate == "" {
		rate = "+0%"
	}
	volume := etp.config.EdgeTTS.Volume
	if volume == "" {
		volume = "+0%"
	}
	pitch := etp.config.EdgeTTS.Pitch
	if pitch == "" {
		pitch = "+0Hz"
	}

	comm, err := communicate.NewCommunicate(
		text,
		voice,
		rate,
		volume,
		pitch,
		"", // proxy
		10, // connectTimeout
		60, // receiveTimeout
	)
	if err != nil {
		return "", fmt.Errorf("创建Edge TTS通信失败: %v", err)
	}

	filename := fmt.Sprintf("audio_%03d.mp3", index)
	audioPath := filepath.Join(etp.config.Audio.TempDir, filename)

	if err := comm.Save(ctx, audioPath, ""); err != nil {
		return "", fmt.Errorf("保存音频文件失败: %v", err)
	}

	if err := validateMP3File(audioPath); err != nil {
		os.Remove(audioPath)
		return "", fmt.Errorf("音频文件验证失败: %v", err)
	}

	return audioPath, nil
}

// GetProviderName 获取提供商名称
func (etp *EdgeTTSProvider) GetProviderName() string {
	return "EdgeTTS"
}

// ValidateConfig 验证配置是否正确
func (etp *EdgeTTSProvider) ValidateConfig() error {
	// Edge TTS 所有参数都有默认值，无需验证
	return nil
}

// GetMaxTextLength 获取单次请求最大文本长度
func (etp *EdgeTTSProvider) GetMaxTextLength() int {
	return 1000
}

// GetRecommendedRateLimit 获取推荐的速率限制（每秒请求数）
func (etp *EdgeTTSProvider) GetRecommendedRateLimit() int {
	return 10
}

// ListEdgeVoices 列出Edge TTS可用语音，languageFilter为空时列出全部
func ListEdgeVoices(languageFilter string) error {
	ctx := context.Background()

	fmt.Println("正在获取Edge TTS语音列表...")

	voiceList, err := voices.ListVoices(ctx, "")
	if err != nil {
		return fmt.Errorf("获取语音列表失败: %v", err)
	}

	var filteredVoices []types.Voice
	if languageFilter != "" {
		languageFilter = strings.ToLower(languageFilter)
		for _, voice := range voiceList {
			if strings.HasPrefix(strings.ToLower(voice.Locale), languageFilter) {
				filteredVoices = append(filteredVoices, voice)
			}
		}
		fmt.Printf("\n找到 %d 个 '%s' 语言的语音:\n\n", len(filteredVoices), languageFilter)
	} else {
		filteredVoices = voiceList
		fmt.Printf("\n找到 %d 个可用语音:\n\n", len(filteredVoices))
	}

	if len(filteredVoices) == 0 {
		return fmt.Errorf("没有找到匹配的语音")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "音色\t区域")
	fmt.Fprintln(w, "--------\t--------")
	for _, voice := range filteredVoices {
		fmt.Fprintf(w, "%s\t%s\n", voice.ShortName, voice.Locale)
	}
	w.Flush()
	fmt.Println()

	exampleVoice := filteredVoices[0].ShortName
	fmt.Printf("使用示例:\n")
	fmt.Printf("  ./story2video narrate -i input.txt --voice %s\n", exampleVoice)
	fmt.Printf("  ./story2video narrate -i input.txt --voice %s --rate +20%% --volume +10%%\n\n", exampleVoice)

	return nil
}
