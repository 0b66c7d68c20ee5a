package apihttp

import (
	"errors"
	"net/http"
	"strings"

	"promptrelay/internal/pkg/attach"
	"promptrelay/internal/relay"

	"github.com/gin-gonic/gin"
)

const (
	defaultDocumentPrompt = "Summarize this document."
	defaultAudioPrompt    = "Transcribe this audio."
)

// Router mounts the relay endpoints.
type Router struct {
	relay     *relay.Service
	maxUpload int64
}

func NewRouter(svc *relay.Service, maxUpload int64) *Router {
	return &Router{relay: svc, maxUpload: maxUpload}
}

// Register mounts all routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/generate", r.handleGenerate)
	group.POST("/vision", r.uploadHandler("image", attach.KindImage, ""))
	group.POST("/document", r.uploadHandler("file", attach.KindDocument, defaultDocumentPrompt))
	group.POST("/audio", r.uploadHandler("audio", attach.KindAudio, defaultAudioPrompt))
	group.GET("/models", r.handleModels)
	group.GET("/providers", r.handleProviders)
}

func (r *Router) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body", "detail": err.Error()})
		return
	}
	r.run(c, relay.Request{
		RequestID: contextRequestID(c),
		Prompt:    req.Prompt,
		System:    req.System,
		Provider:  req.Provider,
		MaxTokens: req.MaxTokens,
	})
}

// uploadHandler serves the multipart routes; they differ only in the file
// field name, the attachment kind and the fallback prompt.
func (r *Router) uploadHandler(field string, kind attach.Kind, fallbackPrompt string) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile(field)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field: " + field})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload", "detail": err.Error()})
			return
		}
		defer file.Close()

		att, err := attach.Read(file, fileHeader.Filename, kind, r.maxUpload)
		if err != nil {
			c.JSON(uploadErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		promptText := strings.TrimSpace(c.PostForm("prompt"))
		if promptText == "" {
			promptText = fallbackPrompt
		}
		r.run(c, relay.Request{
			RequestID:   contextRequestID(c),
			Prompt:      promptText,
			Provider:    c.PostForm("provider"),
			Attachments: []attach.Attachment{att},
		})
	}
}

func (r *Router) run(c *gin.Context, req relay.Request) {
	result, err := r.relay.Generate(c.Request.Context(), req)
	if err != nil {
		c.JSON(relayErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GenerateResponse{
		RequestID: result.RequestID,
		Provider:  result.Provider,
		Model:     result.Model,
		Text:      result.Text,
		ElapsedMS: result.Elapsed.Milliseconds(),
	})
}

func (r *Router) handleModels(c *gin.Context) {
	models, err := r.relay.ListModels(c.Request.Context(), c.Query("provider"))
	if err != nil {
		c.JSON(relayErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

func (r *Router) handleProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": r.relay.Providers()})
}

func uploadErrorStatus(err error) int {
	switch {
	case errors.Is(err, attach.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, attach.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}

// relayErrorStatus maps service errors onto HTTP statuses. Anything the
// provider threw is a 502; the relay does not discriminate further.
func relayErrorStatus(err error) int {
	switch {
	case errors.Is(err, relay.ErrEmptyPrompt), errors.Is(err, relay.ErrUnknownProvider):
		return http.StatusBadRequest
	case errors.Is(err, relay.ErrUnsupportedAttachment):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadGateway
	}
}
