package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/difyz9/story2video/model"
)

// wavBytes 生成一段可被解码的WAV数据
func wavBytes(t *testing.T, seconds float64) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.wav")
	require.NoError(t, WriteWAV(path, makeTestBuffer(24000, 1, seconds)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// fakeTTSServer 模拟XTTS推理服务，记录每次合成请求的表单字段
type fakeTTSServer struct {
	speakers  []string
	wav       []byte
	ttsFields []map[string]string
}

func (fs *fakeTTSServer) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/speakers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(fs.speakers)
	})
	mux.HandleFunc("/api/tts", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		fields := map[string]string{}
		for key, values := range r.MultipartForm.Value {
			fields[key] = values[0]
		}
		fs.ttsFields = append(fs.ttsFields, fields)
		w.Write(fs.wav)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestCloneSynthesizer_PrefersDefaultSpeaker(t *testing.T) {
	backend := &fakeTTSServer{
		speakers: []string{"Claribel Dervla", "default", "Ana Florence"},
		wav:      wavBytes(t, 1.0),
	}
	server := backend.start(t)

	cs := NewCloneSynthesizer(model.SynthesisConfig{
		ServerURL: server.URL,
		Device:    "cpu",
	})

	outFile := filepath.Join(t.TempDir(), "page_01.wav")
	buf, err := cs.Synthesize(context.Background(), SynthRequest{
		Text:       "第一页。",
		Language:   "zh",
		OutputFile: outFile,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, AudioDuration(buf), 1e-9)

	require.Len(t, backend.ttsFields, 1)
	fields := backend.ttsFields[0]
	assert.Equal(t, "default", fields["speaker_id"])
	assert.Equal(t, "第一页。", fields["text"])
	assert.Equal(t, "zh", fields["language"])
	assert.Equal(t, DefaultModelName, fields["model_name"])
	assert.Equal(t, "cpu", fields["device"])
	assert.FileExists(t, outFile)
}

func TestCloneSynthesizer_FallsBackToFirstSpeaker(t *testing.T) {
	backend := &fakeTTSServer{
		speakers: []string{"Claribel Dervla", "Ana Florence"},
		wav:      wavBytes(t, 1.0),
	}
	server := backend.start(t)

	cs := NewCloneSynthesizer(model.SynthesisConfig{ServerURL: server.URL})

	_, err := cs.Synthesize(context.Background(), SynthRequest{
		Text:       "hello",
		Language:   "en",
		OutputFile: filepath.Join(t.TempDir(), "page_01.wav"),
	})
	require.NoError(t, err)

	require.Len(t, backend.ttsFields, 1)
	assert.Equal(t, "Claribel Dervla", backend.ttsFields[0]["speaker_id"])
}

func TestCloneSynthesizer_NoBuiltInSpeakers(t *testing.T) {
	backend := &fakeTTSServer{speakers: []string{}}
	server := backend.start(t)

	cs := NewCloneSynthesizer(model.SynthesisConfig{ServerURL: server.URL})

	_, err := cs.Synthesize(context.Background(), SynthRequest{
		Text:       "hello",
		Language:   "en",
		OutputFile: filepath.Join(t.TempDir(), "page_01.wav"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "没有内置音色")
	assert.Empty(t, backend.ttsFields)
}

func TestCloneSynthesizer_ExplicitSpeakerSkipsLookup(t *testing.T) {
	backend := &fakeTTSServer{wav: wavBytes(t, 1.0)}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/speakers", func(w http.ResponseWriter, r *http.Request) {
		t.Error("不应查询音色列表")
	})
	mux.HandleFunc("/api/tts", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		fields := map[string]string{}
		for key, values := range r.MultipartForm.Value {
			fields[key] = values[0]
		}
		backend.ttsFields = append(backend.ttsFields, fields)
		w.Write(backend.wav)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cs := NewCloneSynthesizer(model.SynthesisConfig{
		ServerURL: server.URL,
		SpeakerID: "Ana Florence",
	})

	_, err := cs.Synthesize(context.Background(), SynthRequest{
		Text:       "hello",
		Language:   "en",
		OutputFile: filepath.Join(t.TempDir(), "page_01.wav"),
	})
	require.NoError(t, err)
	require.Len(t, backend.ttsFields, 1)
	assert.Equal(t, "Ana Florence", backend.ttsFields[0]["speaker_id"])
}

func TestCloneSynthesizer_ServerUnreachable(t *testing.T) {
	cs := NewCloneSynthesizer(model.SynthesisConfig{
		ServerURL: "http://127.0.0.1:1",
	})

	_, err := cs.Synthesize(context.Background(), SynthRequest{
		Text:       "hello",
		Language:   "en",
		OutputFile: filepath.Join(t.TempDir(), "page_01.wav"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无法连接XTTS推理服务")
}

func TestCloneSynthesizer_ValidateConfig(t *testing.T) {
	cs := NewCloneSynthesizer(model.SynthesisConfig{
		SpeakerWav: filepath.Join(t.TempDir(), "missing.wav"),
	})
	err := cs.ValidateConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "参考音色文件不存在")

	assert.NoError(t, NewCloneSynthesizer(model.SynthesisConfig{}).ValidateConfig())
}

func TestPromptSynthesizer_SendsHistoryPrompt(t *testing.T) {
	wav := wavBytes(t, 1.0)
	var form url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tts", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Write(wav)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	ps := NewPromptSynthesizer(model.SynthesisConfig{
		Engine:        "bark",
		ServerURL:     server.URL,
		HistoryPrompt: "v2/zh_speaker_1",
		Device:        "cpu",
	})

	buf, err := ps.Synthesize(context.Background(), SynthRequest{
		Text:       "第一页。",
		Language:   "zh",
		OutputFile: filepath.Join(t.TempDir(), "page_01.wav"),
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, AudioDuration(buf), 1e-9)

	require.NotNil(t, form)
	assert.Equal(t, "第一页。", form.Get("text"))
	assert.Equal(t, "bark", form.Get("engine"))
	assert.Equal(t, "suno/bark", form.Get("model_name"))
	assert.Equal(t, "v2/zh_speaker_1", form.Get("history_prompt"))
}

func TestCreateSynthesizer(t *testing.T) {
	s, err := CreateSynthesizer(model.SynthesisConfig{})
	require.NoError(t, err)
	assert.Equal(t, "XTTS", s.EngineName())

	s, err = CreateSynthesizer(model.SynthesisConfig{Engine: "bark"})
	require.NoError(t, err)
	assert.Equal(t, "Bark", s.EngineName())

	_, err = CreateSynthesizer(model.SynthesisConfig{Engine: "tacotron"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "不支持的合成引擎")
}

func TestResolveDevice_Explicit(t *testing.T) {
	assert.Equal(t, "cpu", ResolveDevice("cpu"))
	assert.Equal(t, "cuda", ResolveDevice("cuda"))
}
