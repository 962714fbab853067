package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Options are the decoding parameters of one call site. Zero values mean
// "provider default".
type Options struct {
	Temperature     *float32
	MaxOutputTokens int32
}

// Float32 is a helper for Options.Temperature.
func Float32(v float32) *float32 { return &v }

// Engine is a single text-generation capability. Generate returns the raw text
// reply; implementations do not retry.
type Engine interface {
	Name() string
	GetModel() string
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Engines resolves the llm_name a caller asked for. Nil members are treated
// as not configured.
type Engines struct {
	Gemini  Engine
	OpenAI  Engine
	Default string
}

func (e *Engines) GetEngine(llmName string) (Engine, error) {
	name := strings.ToLower(strings.TrimSpace(llmName))
	if name == "" {
		name = e.Default
	}
	var eng Engine
	switch name {
	case "", "gemini":
		eng = e.Gemini
	case "gpt", "openai":
		eng = e.OpenAI
	default:
		return nil, fmt.Errorf("unknown llm_name %q; use 'gemini' or 'gpt'", llmName)
	}
	if eng == nil {
		return nil, fmt.Errorf("llm %q is not configured", name)
	}
	return eng, nil
}

// Manager keeps a per-chat engine choice on top of a default engine.
type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}
