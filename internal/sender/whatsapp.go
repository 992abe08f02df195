package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhrabal/linewatch/internal/model"
)

const whatsAppAPIVersion = "v13.0"

// WhatsAppSender sends template messages through the Graph API. The business
// template takes the body text, the title and the lines as its variables.
type WhatsAppSender struct {
	http     *resty.Client
	cred     WhatsAppCredential
	template string
}

func NewWhatsAppSender(cred WhatsAppCredential, template string, timeout time.Duration) *WhatsAppSender {
	return &WhatsAppSender{
		http:     resty.New().SetTimeout(timeout),
		cred:     cred,
		template: template,
	}
}

func (s *WhatsAppSender) apiURL() string {
	return fmt.Sprintf("https://graph.facebook.com/%s/%s/messages",
		whatsAppAPIVersion, s.cred.PhoneID)
}

func (s *WhatsAppSender) Send(ctx context.Context, address string, content model.NotificationContent) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                address,
		"type":              "template",
		"template": map[string]any{
			"name":     s.template,
			"language": map[string]string{"code": "en_US"},
			"components": []map[string]any{
				{
					"type": "body",
					"parameters": []map[string]string{
						{"type": "text", "text": content.Title},
						{"type": "text", "text": content.Body},
					},
				},
			},
		},
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(s.cred.Token).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.apiURL())
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode() < 300:
		return nil
	case resp.StatusCode() >= 500:
		return fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode(), resp.String())
	default:
		return Permanent(fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode(), resp.String()))
	}
}
