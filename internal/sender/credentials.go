package sender

import (
	"encoding/json"
	"fmt"
	"os"
)

// Channel credentials live in small JSON files outside the repository; the
// absence of a credential path disables the channel at startup.

type TelegramCredential struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

type WhatsAppCredential struct {
	Token     string `json:"token"`
	PhoneID   string `json:"phone_id"`
	AccountID string `json:"account_id"`
}

func LoadTelegramCredential(path string) (TelegramCredential, error) {
	var cred TelegramCredential
	if err := loadJSON(path, &cred); err != nil {
		return TelegramCredential{}, err
	}
	return cred, nil
}

func LoadWhatsAppCredential(path string) (WhatsAppCredential, error) {
	var cred WhatsAppCredential
	if err := loadJSON(path, &cred); err != nil {
		return WhatsAppCredential{}, err
	}
	return cred, nil
}

func loadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read credential file: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse credential file %s: %w", path, err)
	}
	return nil
}
