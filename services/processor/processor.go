package processor

import (
	"context"
	"fmt"
	"time"

	customerRepo "bookline/database/repository/customer"
	tenantRepo "bookline/database/repository/tenant"
	"bookline/middleware"
	"bookline/models"
	"bookline/services/conversation"
	"bookline/services/intelligence"
	"bookline/services/media"
	"bookline/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// handleTimeout bounds the full handling of one inbound message,
// including tool calls and the outbound send.
const handleTimeout = 3 * time.Minute

// apologyText is sent when reply generation fails outright.
const apologyText = "Sorry, something went wrong on our side. Please try again in a moment."

// Sender is the outbound WhatsApp surface the processor needs.
type Sender interface {
	SendText(ctx context.Context, ch models.WhatsAppChannel, to, body string) (string, error)
	MarkRead(ctx context.Context, ch models.WhatsAppChannel, messageID string) error
	MediaURL(ctx context.Context, ch models.WhatsAppChannel, mediaID string) (string, string, error)
	DownloadMedia(ctx context.Context, ch models.WhatsAppChannel, url string) ([]byte, error)
}

// Processor drives one inbound webhook event from raw payload to an
// outbound reply. Messages for the same (tenant, customer) pair run one
// at a time in arrival order through the key queue; distinct pairs run
// in parallel. The key mutex additionally serializes handling against
// operator actions on the same conversation.
type Processor struct {
	Tenants      tenantRepo.TenantRepository
	Customers    customerRepo.CustomerRepository
	Memory       conversation.MemoryStore
	Ownership    conversation.OwnershipStore
	WhatsApp     Sender
	Intelligence intelligence.Service
	Transcriber  media.Transcriber
	Limiter      *middleware.LimiterStore
	Locks        *conversation.KeyMutex
	Queue        *conversation.KeyQueue
}

// ProcessWebhook walks a webhook envelope and enqueues one task per
// inbound message. Same-conversation messages keep their delivery order
// through the queue. It returns immediately; Meta only needs the 200.
func (p *Processor) ProcessWebhook(payload *models.WhatsAppWebhook) {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			value := change.Value

			tenant, err := p.Tenants.GetByPhoneNumberID(value.Metadata.PhoneNumberID)
			if err != nil {
				utils.GetLogger().Warn("webhook for unknown phone number id",
					zap.String("phone_number_id", value.Metadata.PhoneNumberID))
				continue
			}

			for _, status := range value.Statuses {
				p.handleStatus(tenant, status)
			}

			for _, msg := range value.Messages {
				t, pm := tenant, normalize(value, msg)
				p.Queue.Submit(t.ID, pm.PhoneNumber, func() {
					ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
					defer cancel()
					p.HandleMessage(ctx, t, pm)
				})
			}
		}
	}
}

// handleStatus watches delivery callbacks for outbound messages this
// service did not send. Those originate from a human typing in the
// business app, which is the signal that flips ownership to human.
func (p *Processor) handleStatus(tenant *models.TenantConfig, status models.WhatsAppStatus) {
	if status.Status != "sent" || status.RecipientID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.Memory.WasSentByUs(ctx, tenant.ID, status.ID) {
		return
	}

	unlock := p.Locks.Lock(tenant.ID, status.RecipientID)
	defer unlock()

	if err := p.Ownership.MarkHuman(ctx, tenant.ID, status.RecipientID, "operator"); err != nil {
		utils.GetLogger().Warn("human takeover mark failed",
			zap.String("tenant", tenant.ID),
			zap.String("customer", status.RecipientID),
			zap.Error(err))
	}
}

// HandleMessage runs the full pipeline for one inbound message: dedupe,
// rate limit, media-to-text, the ownership gate, the model, the reply.
func (p *Processor) HandleMessage(ctx context.Context, tenant *models.TenantConfig, pm models.ProcessedMessage) {
	logger := utils.GetLogger().With(
		zap.String("tenant", tenant.ID),
		zap.String("customer", pm.PhoneNumber),
		zap.String("message_id", pm.MessageID))

	first, err := p.Memory.MarkProcessed(ctx, pm.MessageID)
	if err != nil {
		logger.Warn("dedupe check failed", zap.Error(err))
	} else if !first {
		logger.Debug("duplicate delivery ignored")
		return
	}

	if !p.Limiter.Allow(tenant.ID + ":" + pm.PhoneNumber) {
		logger.Warn("rate limit exceeded, message dropped")
		return
	}

	unlock := p.Locks.Lock(tenant.ID, pm.PhoneNumber)
	defer unlock()

	if err := p.WhatsApp.MarkRead(ctx, tenant.WhatsApp, pm.MessageID); err != nil {
		logger.Debug("mark read failed", zap.Error(err))
	}

	text, err := p.messageText(ctx, tenant, pm)
	if err != nil {
		logger.Warn("message content unusable", zap.Error(err))
		p.reply(ctx, tenant, pm.PhoneNumber, "Sorry, I could not make that out. Could you send it as text?", logger)
		return
	}

	history, err := p.Memory.History(ctx, tenant.ID, pm.PhoneNumber)
	if err != nil {
		logger.Warn("history read failed", zap.Error(err))
	}
	p.Memory.AppendMessage(ctx, tenant.ID, pm.PhoneNumber, models.Message{Role: "user", Content: text})

	ownership, err := p.Ownership.Get(ctx, tenant.ID, pm.PhoneNumber)
	if err != nil {
		logger.Error("ownership read failed, not replying", zap.Error(err))
		return
	}
	if ownership.Controller != models.ControllerAssistant {
		logger.Info("conversation owned by human, message logged only",
			zap.String("controller", string(ownership.Controller)))
		return
	}

	customer := p.ensureCustomer(tenant, pm, logger)
	replyText, err := p.Intelligence.Reply(ctx, tenant, customer, history, text)
	if err != nil {
		logger.Error("reply generation failed", zap.Error(err))
		replyText = apologyText
	}

	p.reply(ctx, tenant, pm.PhoneNumber, replyText, logger)
}

func (p *Processor) reply(ctx context.Context, tenant *models.TenantConfig, to, text string, logger *zap.Logger) {
	messageID, err := p.WhatsApp.SendText(ctx, tenant.WhatsApp, to, text)
	if err != nil {
		logger.Error("outbound send failed", zap.Error(err))
		return
	}
	p.Memory.RememberSent(ctx, tenant.ID, messageID)
	p.Memory.AppendMessage(ctx, tenant.ID, to, models.Message{Role: "assistant", Content: text})
}

// messageText reduces any inbound message type to text. Voice notes are
// transcribed; images are described by the model; locations become
// coordinates.
func (p *Processor) messageText(ctx context.Context, tenant *models.TenantConfig, pm models.ProcessedMessage) (string, error) {
	switch pm.MessageType {
	case "text":
		return pm.Content, nil
	case "audio":
		data, mimeType, err := p.downloadMedia(ctx, tenant, pm.MediaID)
		if err != nil {
			return "", err
		}
		return p.Transcriber.Transcribe(ctx, data, mimeType)
	case "image":
		data, mimeType, err := p.downloadMedia(ctx, tenant, pm.MediaID)
		if err != nil {
			return "", err
		}
		description, err := p.Intelligence.DescribeImage(ctx, data, mimeType, pm.Content)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[The customer sent an image: %s]", description), nil
	case "location":
		return fmt.Sprintf("[The customer shared their location: %s]", pm.Content), nil
	case "document":
		return "[The customer sent a document we cannot read here.]", nil
	default:
		return "", fmt.Errorf("unsupported message type %q", pm.MessageType)
	}
}

func (p *Processor) downloadMedia(ctx context.Context, tenant *models.TenantConfig, mediaID string) ([]byte, string, error) {
	url, mimeType, err := p.WhatsApp.MediaURL(ctx, tenant.WhatsApp, mediaID)
	if err != nil {
		return nil, "", err
	}
	data, err := p.WhatsApp.DownloadMedia(ctx, tenant.WhatsApp, url)
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}

// ensureCustomer loads or creates the customer profile. A profile
// failure never blocks the reply.
func (p *Processor) ensureCustomer(tenant *models.TenantConfig, pm models.ProcessedMessage, logger *zap.Logger) *models.Customer {
	customer, err := p.Customers.GetByPhone(tenant.ID, pm.PhoneNumber)
	if err == nil {
		return customer
	}
	customer = &models.Customer{
		TenantID:    tenant.ID,
		PhoneNumber: pm.PhoneNumber,
		FullName:    pm.ContactName,
		CreatedAt:   time.Now().UTC(),
	}
	if err != mongo.ErrNoDocuments {
		logger.Warn("customer lookup failed", zap.Error(err))
		return customer
	}
	if err := p.Customers.Upsert(customer); err != nil {
		logger.Warn("customer create failed", zap.Error(err))
	}
	return customer
}

// normalize flattens one raw webhook message into the internal shape.
func normalize(value models.WhatsAppValue, msg models.WhatsAppMessage) models.ProcessedMessage {
	pm := models.ProcessedMessage{
		PhoneNumber:   msg.From,
		PhoneNumberID: value.Metadata.PhoneNumberID,
		MessageID:     msg.ID,
		MessageType:   msg.Type,
	}
	if len(value.Contacts) > 0 {
		pm.ContactName = value.Contacts[0].Profile.Name
	}
	switch msg.Type {
	case "text":
		if msg.Text != nil {
			pm.Content = msg.Text.Body
		}
	case "image":
		if msg.Image != nil {
			pm.MediaID = msg.Image.ID
			pm.Content = msg.Image.Caption
		}
	case "audio":
		if msg.Audio != nil {
			pm.MediaID = msg.Audio.ID
		}
	case "document":
		if msg.Document != nil {
			pm.MediaID = msg.Document.ID
			pm.Content = msg.Document.Filename
		}
	case "location":
		if msg.Location != nil {
			pm.Content = fmt.Sprintf("%f,%f %s %s",
				msg.Location.Latitude, msg.Location.Longitude, msg.Location.Name, msg.Location.Address)
		}
	}
	return pm
}
