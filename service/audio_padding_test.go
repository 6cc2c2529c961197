package service

import (
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTestBuffer 构造一段指定时长的非零PCM采样
func makeTestBuffer(sampleRate, channels int, seconds float64) *audio.IntBuffer {
	frames := int(seconds * float64(sampleRate))
	data := make([]int, frames*channels)
	for i := range data {
		data[i] = 1000 + i%100
	}
	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
}

func TestPadAudio(t *testing.T) {
	// 3.0秒旁白补静音后应为 2.0 + 3.0 + 5.0 = 10.0 秒
	raw := makeTestBuffer(24000, 1, 3.0)
	padded, duration := PadAudio(raw)

	assert.InDelta(t, 10.0, duration, 1e-9)
	assert.Equal(t, 240000, len(padded.Data))
	assert.Equal(t, 24000, padded.Format.SampleRate)
	assert.Equal(t, 1, padded.Format.NumChannels)
	assert.Equal(t, 16, padded.SourceBitDepth)

	// 前2秒和后5秒必须是纯静音
	preFrames := 48000
	for i := 0; i < preFrames; i++ {
		require.Zero(t, padded.Data[i], "前置静音第 %d 个采样非零", i)
	}
	for i := preFrames + len(raw.Data); i < len(padded.Data); i++ {
		require.Zero(t, padded.Data[i], "后置静音第 %d 个采样非零", i)
	}

	// 旁白采样原样保留在中段
	assert.Equal(t, raw.Data, padded.Data[preFrames:preFrames+len(raw.Data)])
}

func TestPadAudio_ShortNarration(t *testing.T) {
	raw := makeTestBuffer(24000, 1, 1.5)
	padded, duration := PadAudio(raw)

	assert.InDelta(t, 8.5, duration, 1e-9)
	assert.Equal(t, 204000, len(padded.Data))
}

func TestPadAudio_StereoPreservesChannels(t *testing.T) {
	raw := makeTestBuffer(22050, 2, 2.0)
	padded, duration := PadAudio(raw)

	assert.Equal(t, 2, padded.Format.NumChannels)
	assert.InDelta(t, 9.0, duration, 1e-9)
	// 静音按帧计算，每帧两个声道的采样
	assert.Equal(t, 9*22050*2, len(padded.Data))
}

func TestPadAudio_DoesNotMutateInput(t *testing.T) {
	raw := makeTestBuffer(24000, 1, 1.0)
	original := make([]int, len(raw.Data))
	copy(original, raw.Data)

	PadAudio(raw)

	assert.Equal(t, original, raw.Data)
	assert.Equal(t, 24000*1, len(raw.Data))
}

func TestConcatAudio(t *testing.T) {
	first, d1 := PadAudio(makeTestBuffer(24000, 1, 3.0))
	second, d2 := PadAudio(makeTestBuffer(24000, 1, 1.5))

	combined := ConcatAudio([]*audio.IntBuffer{first, second})

	require.NotNil(t, combined)
	assert.InDelta(t, 18.5, d1+d2, 1e-9)
	assert.InDelta(t, 18.5, AudioDuration(combined), 1e-9)
	assert.Equal(t, len(first.Data)+len(second.Data), len(combined.Data))
	assert.Equal(t, first.Data, combined.Data[:len(first.Data)])
	assert.Equal(t, second.Data, combined.Data[len(first.Data):])
}

func TestConcatAudio_Empty(t *testing.T) {
	assert.Nil(t, ConcatAudio(nil))
}

func TestWriteReadWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "page_01.wav")
	buf := makeTestBuffer(24000, 1, 0.5)

	require.NoError(t, WriteWAV(path, buf))

	decoded, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, buf.Format.SampleRate, decoded.Format.SampleRate)
	assert.Equal(t, buf.Format.NumChannels, decoded.Format.NumChannels)
	assert.Equal(t, len(buf.Data), len(decoded.Data))
	assert.Equal(t, buf.Data, decoded.Data)
}

func TestReadWAV_MissingFile(t *testing.T) {
	_, err := ReadWAV(filepath.Join(t.TempDir(), "nope.wav"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "打开音频文件失败")
}
