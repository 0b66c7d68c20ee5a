package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

var (
	llmMu          sync.Mutex
	llmLog         *log.Logger
	llmDumpPayload bool
)

// SetLLMWriter routes the LLM payload dump to w. nil disables it.
func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

// EnableLLMPayloadDump toggles recording of full prompts and raw model
// output. Off by default; payloads can be large and may contain user data.
func EnableLLMPayloadDump(enabled bool) {
	llmMu.Lock()
	llmDumpPayload = enabled
	llmMu.Unlock()
}

type llmSection struct {
	Title string
	Body  string
}

func logLLM(requestID, provider string, sections []llmSection) {
	llmMu.Lock()
	l := llmLog
	enabled := llmDumpPayload
	llmMu.Unlock()
	if l == nil || !enabled {
		return
	}
	var b strings.Builder
	b.WriteString("[LLM]")
	if provider != "" {
		b.WriteString("[")
		b.WriteString(provider)
		b.WriteString("]")
	}
	if requestID != "" {
		b.WriteString("[")
		b.WriteString(requestID)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(t)
		b.WriteString(" ---\n")
		b.WriteString(strings.TrimRight(sec.Body, "\n"))
		b.WriteString("\n")
	}
	l.Print(b.String())
}

// LogLLMRequest records the outgoing system/user prompt for one exchange.
func LogLLMRequest(requestID, provider, system, user string) {
	sections := make([]llmSection, 0, 2)
	if strings.TrimSpace(system) != "" {
		sections = append(sections, llmSection{Title: "SYSTEM", Body: system})
	}
	sections = append(sections, llmSection{Title: "USER", Body: user})
	logLLM(requestID, provider, sections)
}

// LogLLMResponse records the raw model output for one exchange.
func LogLLMResponse(requestID, provider, text string) {
	logLLM(requestID, provider, []llmSection{{Title: "RESPONSE", Body: text}})
}
