package intelligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookline/config"
	"bookline/models"
	"bookline/utils"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// maxToolDepth bounds how many tool rounds one inbound message may
// trigger before the loop is cut off with a fallback reply.
const maxToolDepth = 5

// llmTimeout bounds each model round trip.
const llmTimeout = 30 * time.Second

// Service turns an inbound customer message into an outbound reply,
// calling booking tools along the way.
type Service interface {
	Reply(ctx context.Context, tenant *models.TenantConfig, customer *models.Customer, history []models.Message, userText string) (string, error)
	DescribeImage(ctx context.Context, data []byte, mimeType, caption string) (string, error)
}

// GeminiService implements Service on the Gemini API with function
// calling.
type GeminiService struct {
	client   *genai.Client
	model    string
	Executor *ToolExecutor
}

// NewGeminiService builds the client from the configured API key.
func NewGeminiService(ctx context.Context, executor *ToolExecutor) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{
		client:   client,
		model:    config.AppConfig.GeminiModel,
		Executor: executor,
	}, nil
}

// Reply runs the chat turn: prompt, history, the user message, then up
// to maxToolDepth rounds of tool calls until the model produces text.
func (g *GeminiService) Reply(ctx context.Context, tenant *models.TenantConfig, customer *models.Customer, history []models.Message, userText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, llmTimeout*time.Duration(maxToolDepth))
	defer cancel()

	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(BuildSystemPrompt(tenant, customer))}}
	model.Tools = toolDeclarations()

	chat := model.StartChat()
	chat.History = chatHistory(history)

	customerRef := customer.PhoneNumber

	resp, err := g.send(ctx, chat, genai.Text(userText))
	if err != nil {
		return "", err
	}

	for depth := 0; depth < maxToolDepth; depth++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			break
		}
		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result := g.Executor.Execute(ctx, tenant, customerRef, call)
			parts = append(parts, genai.FunctionResponse{Name: call.Name, Response: result})
		}
		resp, err = g.send(ctx, chat, parts...)
		if err != nil {
			return "", err
		}
	}

	text := responseText(resp)
	if text == "" {
		return "I'm sorry, I could not work that out. Could you rephrase it?", nil
	}
	return CleanForWhatsApp(text), nil
}

// DescribeImage asks the model what a customer-sent image shows so the
// description can join the conversation as text.
func (g *GeminiService) DescribeImage(ctx context.Context, data []byte, mimeType, caption string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	model := g.client.GenerativeModel(g.model)
	prompt := "Describe briefly what this image from a customer shows."
	if caption != "" {
		prompt += " The customer wrote: " + caption
	}
	format := strings.TrimPrefix(mimeType, "image/")
	resp, err := model.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("image analysis failed: %w", err)
	}
	return responseText(resp), nil
}

func (g *GeminiService) send(ctx context.Context, chat *genai.ChatSession, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	resp, err := chat.SendMessage(ctx, parts...)
	if err != nil {
		utils.GetLogger().Error("gemini request failed", zap.Error(err))
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}
	return resp, nil
}

// chatHistory converts the stored message log into Gemini chat turns.
// Operator messages read as assistant turns; the model should treat them
// as things "we" already said.
func chatHistory(history []models.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == "assistant" || msg.Human {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return contents
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}

// CleanForWhatsApp rewrites markdown the model tends to emit into the
// subset WhatsApp renders: single asterisk bold, no code fences, no
// heading markers.
func CleanForWhatsApp(text string) string {
	text = strings.ReplaceAll(text, "**", "*")
	text = strings.ReplaceAll(text, "```", "")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, "# ")
		if trimmed != line && strings.HasPrefix(strings.TrimSpace(line), "#") {
			lines[i] = "*" + strings.TrimSpace(trimmed) + "*"
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
