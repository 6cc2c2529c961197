package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// 每页旁白前后的静音缓冲时长（秒）。
// 前置静音给观众留出看图时间，后置静音避免翻页时声音戛然而止。
const (
	PreVoiceBufferSeconds  = 2.0
	PostVoiceBufferSeconds = 5.0
)

// PadAudio 在旁白前后补上固定静音，返回新缓冲区和精确时长（秒）。
// 静音帧的声道数和位深与输入一致，不修改调用方的缓冲区。
// 返回的时长会原样用作该页视频片段的渲染时长。
func PadAudio(buf *audio.IntBuffer) (*audio.IntBuffer, float64) {
	channels := buf.Format.NumChannels
	rate := buf.Format.SampleRate

	preFrames := int(PreVoiceBufferSeconds * float64(rate))
	postFrames := int(PostVoiceBufferSeconds * float64(rate))

	data := make([]int, preFrames*channels+len(buf.Data)+postFrames*channels)
	copy(data[preFrames*channels:], buf.Data)

	padded := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  rate,
		},
		Data:           data,
		SourceBitDepth: buf.SourceBitDepth,
	}

	totalFrames := len(data) / channels
	duration := float64(totalFrames) / float64(rate)

	return padded, duration
}

// ConcatAudio 按页顺序拼接已补静音的旁白，生成整篇旁白音轨。
// 调用方需保证所有缓冲区采样率和声道数一致。
func ConcatAudio(buffers []*audio.IntBuffer) *audio.IntBuffer {
	if len(buffers) == 0 {
		return nil
	}

	total := 0
	for _, buf := range buffers {
		total += len(buf.Data)
	}

	data := make([]int, 0, total)
	for _, buf := range buffers {
		data = append(data, buf.Data...)
	}

	first := buffers[0]
	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: first.Format.NumChannels,
			SampleRate:  first.Format.SampleRate,
		},
		Data:           data,
		SourceBitDepth: first.SourceBitDepth,
	}
}

// AudioDuration 计算缓冲区时长（秒）
func AudioDuration(buf *audio.IntBuffer) float64 {
	if buf == nil || buf.Format == nil || buf.Format.SampleRate == 0 || buf.Format.NumChannels == 0 {
		return 0
	}
	frames := len(buf.Data) / buf.Format.NumChannels
	return float64(frames) / float64(buf.Format.SampleRate)
}

// ReadWAV 读取WAV文件为PCM缓冲区
func ReadWAV(path string) (*audio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开音频文件失败: %v", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("解码WAV文件失败 %s: %v", path, err)
	}
	if buf.SourceBitDepth == 0 {
		buf.SourceBitDepth = int(decoder.BitDepth)
	}

	return buf, nil
}

// WriteWAV 把PCM缓冲区写入WAV文件，目标已存在时直接覆盖
func WriteWAV(path string, buf *audio.IntBuffer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建音频目录失败: %v", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建音频文件失败: %v", err)
	}
	defer f.Close()

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	encoder := wav.NewEncoder(f, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, 1)
	if err := encoder.Write(buf); err != nil {
		encoder.Close()
		return fmt.Errorf("写入WAV数据失败: %v", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("关闭WAV编码器失败: %v", err)
	}

	return nil
}
