package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/difyz9/story2video/model"
	"github.com/go-audio/audio"
)

// DefaultModelName 默认加载的多语言声音克隆模型
const DefaultModelName = "tts_models/multilingual/multi-dataset/xtts_v2"

// SynthRequest 单页旁白合成请求
type SynthRequest struct {
	Text       string // 旁白文本，非空
	Language   string // 本次运行解析出的语言代码
	OutputFile string // 合成结果先写入该文件，之后会被补静音版本覆盖
}

// Synthesizer 旁白合成接口，屏蔽不同引擎的差异。
// 管线只依赖这个契约，不关心引擎内部。
type Synthesizer interface {
	// Synthesize 合成一段旁白，写入请求中的输出文件，并返回PCM采样。
	// 返回缓冲区中携带采样率，同一次运行内所有页面的采样率必须一致。
	Synthesize(ctx context.Context, req SynthRequest) (*audio.IntBuffer, error)

	// EngineName 获取引擎名称
	EngineName() string

	// ValidateConfig 验证引擎配置是否可用
	ValidateConfig() error
}

// CreateSynthesizer 根据引擎配置创建旁白合成器
func CreateSynthesizer(cfg model.SynthesisConfig) (Synthesizer, error) {
	switch cfg.Engine {
	case "", "xtts":
		return NewCloneSynthesizer(cfg), nil
	case "bark":
		return NewPromptSynthesizer(cfg), nil
	default:
		return nil, fmt.Errorf("不支持的合成引擎: %s（可选: xtts, bark）", cfg.Engine)
	}
}

// ResolveDevice 解析推理设备。auto时检测本机是否有NVIDIA GPU，
// 有则选cuda，否则退回cpu。结果在整次运行中固定不变。
func ResolveDevice(device string) string {
	if device != "" && device != "auto" {
		return device
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return "cuda"
	}
	return "cpu"
}

// attachSpeakerWav 把参考音色文件附加到multipart合成请求
func attachSpeakerWav(writer *multipart.Writer, speakerWav string) error {
	f, err := os.Open(speakerWav)
	if err != nil {
		return fmt.Errorf("打开参考音色文件失败: %v", err)
	}
	defer f.Close()

	part, err := writer.CreateFormFile("speaker_wav", filepath.Base(speakerWav))
	if err != nil {
		return fmt.Errorf("构造合成请求失败: %v", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("读取参考音色文件失败: %v", err)
	}

	return nil
}

// writeSynthOutput 把合成服务返回的音频流写入目标文件
func writeSynthOutput(outputFile string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("创建音频目录失败: %v", err)
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("创建音频文件失败: %v", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("保存合成音频失败: %v", err)
	}

	return nil
}
