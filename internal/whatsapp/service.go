package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

type Config struct {
	DataDir string
	// CountryCode is prefixed to local numbers that start with a single 0.
	CountryCode string
}

// Service is a linked WhatsApp device used to message the hosts.
type Service struct {
	client *whatsmeow.Client
	cfg    *Config
	log    zerolog.Logger
}

// NewService creates a new WhatsApp service backed by a SQLite session store
func NewService(ctx context.Context, cfg *Config, logger zerolog.Logger) (*Service, error) {
	log := logger.With().Str("component", "WhatsApp").Logger()

	// Use nil logger - sqlstore will use a no-op logger by default
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s/whatsmeow.db?_foreign_keys=on", cfg.DataDir), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, nil)

	service := &Service{
		client: client,
		cfg:    cfg,
		log:    log,
	}

	client.AddEventHandler(func(evt interface{}) {
		service.eventHandler(evt)
	})

	return service, nil
}

// NormalizePhoneNumber strips formatting characters and converts a local
// number (single leading 0) to international form using countryCode.
// 0790000000 with country code 962 becomes 962790000000.
func NormalizePhoneNumber(phoneNumber, countryCode string) string {
	phoneNumber = strings.NewReplacer("+", "", " ", "", "-", "", "(", "", ")", "").Replace(phoneNumber)
	if countryCode == "" {
		return phoneNumber
	}

	// International dialing prefix
	if strings.HasPrefix(phoneNumber, "00") {
		return phoneNumber[2:]
	}

	if strings.HasPrefix(phoneNumber, "0") {
		return countryCode + phoneNumber[1:]
	}

	// Country code followed by the local trunk 0, e.g. 9620790000000
	if strings.HasPrefix(phoneNumber, countryCode+"0") {
		return countryCode + phoneNumber[len(countryCode)+1:]
	}

	return phoneNumber
}

// Connect connects to WhatsApp, printing a pairing QR code on first run
func (s *Service) Connect(ctx context.Context) error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := s.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if err := s.awaitLogin(qrChan); err != nil {
		s.client.Disconnect()
		return err
	}
	return nil
}

// awaitLogin prints each pairing code and fails unless pairing ends in success.
func (s *Service) awaitLogin(qrChan <-chan whatsmeow.QRChannelItem) error {
	last := whatsmeow.QRChannelItem{}
	for evt := range qrChan {
		last = evt
		if evt.Event != "code" {
			s.log.Info().Str("event", evt.Event).Msg("Login event")
			continue
		}
		printQR(evt.Code)
	}

	switch {
	case last.Event == whatsmeow.QRChannelSuccess.Event:
		return nil
	case last.Error != nil:
		return fmt.Errorf("pairing failed (%s): %w", last.Event, last.Error)
	case last.Event == "":
		return errors.New("pairing ended without a login event")
	default:
		return fmt.Errorf("pairing failed: %s", last.Event)
	}
}

func printQR(code string) {
	q, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		fmt.Printf("QR Code: %s\n", code)
		fmt.Println("Please scan this QR code with WhatsApp to connect.")
		return
	}
	fmt.Println("\n" + q.ToSmallString(false))
	fmt.Println("📱 Please scan the QR code above with WhatsApp:")
	fmt.Println("   1. Open WhatsApp on your phone")
	fmt.Println("   2. Go to Settings > Linked Devices")
	fmt.Println("   3. Tap 'Link a Device'")
	fmt.Println("   4. Scan the QR code shown above")
}

// Disconnect disconnects from WhatsApp
func (s *Service) Disconnect() {
	s.client.Disconnect()
}

// SendMessage sends a plain text message to phoneNumber
func (s *Service) SendMessage(ctx context.Context, phoneNumber, message string) error {
	phoneNumber = NormalizePhoneNumber(phoneNumber, s.cfg.CountryCode)

	jid, err := s.resolveJID(ctx, phoneNumber)
	if err != nil {
		return err
	}

	s.log.Debug().Str("jid", jid.String()).Str("phone", phoneNumber).Msg("Attempting to send message")

	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: &message,
	})
	if err != nil {
		if strings.Contains(err.Error(), "unknown server") || strings.Contains(err.Error(), "can't send message") {
			return fmt.Errorf("failed to send message to %s (JID: %s): %w. Note: the recipient must be in the linked phone's contacts", phoneNumber, jid.String(), err)
		}
		return fmt.Errorf("failed to send message: %w", err)
	}

	s.log.Info().Str("id", sent.ID).Time("timestamp", sent.Timestamp).Str("phone", phoneNumber).Msg("Message sent")
	return nil
}

// resolveJID verifies the number is registered on WhatsApp and returns its JID
func (s *Service) resolveJID(ctx context.Context, phoneNumber string) (types.JID, error) {
	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + phoneNumber})
	if err != nil {
		return types.JID{}, fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}

	if len(resp) == 0 || !resp[0].IsIn {
		return types.JID{}, fmt.Errorf("number %s is not registered on WhatsApp", phoneNumber)
	}

	return resp[0].JID, nil
}

// eventHandler logs connection state changes
func (s *Service) eventHandler(evt interface{}) {
	switch evt.(type) {
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Warn().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Warn().Msg("Logged out from WhatsApp")
	}
}
