package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agenthub/pkg/config"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const defaultElevenLabsBaseURL = "https://api.elevenlabs.io"

// Service — голосовой мост: начитанная реплика в текст (whisper) и ответ
// персоны в аудио (ElevenLabs). Оба направления запрос/ответ по целой
// фразе, без стриминга.
type Service struct {
	client            *openai.Client
	httpClient        *http.Client
	elevenLabsKey     string
	elevenLabsBaseURL string
	mediaDir          string
	mediaBaseURL      string
}

func NewService(cfg *config.Config) *Service {
	clientConfig := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}

	return &Service{
		client:            openai.NewClientWithConfig(clientConfig),
		httpClient:        &http.Client{Timeout: 60 * time.Second},
		elevenLabsKey:     cfg.ElevenLabsKey,
		elevenLabsBaseURL: defaultElevenLabsBaseURL,
		mediaDir:          cfg.MediaDir,
		mediaBaseURL:      strings.TrimRight(cfg.MediaBaseURL, "/"),
	}
}

// Transcribe распознаёт целиком записанную реплику. Пустая расшифровка —
// ошибка: такая реплика в диалог не попадает.
func (s *Service) Transcribe(ctx context.Context, audioData []byte, fileName string) (text string, language string, err error) {
	tempFile, err := os.CreateTemp("", "voice-*"+filepath.Ext(fileName))
	if err != nil {
		return "", "", fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if _, err = tempFile.Write(audioData); err != nil {
		return "", "", fmt.Errorf("ошибка записи аудиоданных: %w", err)
	}

	resp, err := s.client.CreateTranscription(
		ctx,
		openai.AudioRequest{
			Model:    openai.Whisper1,
			FilePath: tempFile.Name(),
			Format:   openai.AudioResponseFormatVerboseJSON,
		},
	)
	if err != nil {
		return "", "", fmt.Errorf("ошибка при транскрибации аудио: %w", err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return "", "", errors.New("транскрибация не вернула текст")
	}

	return resp.Text, resp.Language, nil
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize озвучивает ответ персоны и возвращает URL готового файла.
// Аудио складывается в локальный медиакаталог, который раздаёт этот же
// сервер.
func (s *Service) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if s.elevenLabsKey == "" {
		return "", errors.New("ELEVENLABS_API_KEY не настроен")
	}

	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: "eleven_multilingual_v2",
		VoiceSettings: voiceSettings{
			Stability:       0.75,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return "", err
	}

	reqURL := fmt.Sprintf("%s/v1/text-to-speech/%s", s.elevenLabsBaseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.elevenLabsKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ошибка при запросе к ElevenLabs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ElevenLabs вернул статус %d: %s", resp.StatusCode, detail)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения аудиопотока: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(s.mediaDir, "tts"), 0o755); err != nil {
		return "", fmt.Errorf("не удалось создать медиакаталог: %w", err)
	}

	fileName := filepath.Join("tts", uuid.NewString()+".mp3")
	if err := os.WriteFile(filepath.Join(s.mediaDir, fileName), audio, 0o644); err != nil {
		return "", fmt.Errorf("не удалось сохранить аудиофайл: %w", err)
	}

	voiceURL := s.mediaBaseURL + "/" + filepath.ToSlash(fileName)
	logrus.Debugf("Синтезирован ответ (%d байт) в %s", len(audio), voiceURL)
	return voiceURL, nil
}
