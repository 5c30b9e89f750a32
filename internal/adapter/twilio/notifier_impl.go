package twilio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/user/dealwatch/internal/entity"
	"github.com/user/dealwatch/internal/repository"
)

// sendTimeout bounds a single API call to the messaging provider.
const sendTimeout = 15 * time.Second

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Config holds the messaging account and the fixed recipient.
type Config struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
	Headline   string
	RatePerSec float64
}

// NotifierImpl sends one SMS per listing through the Twilio REST API.
type NotifierImpl struct {
	api      messageCreator
	from     string
	to       string
	headline string
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewNotifier builds a notifier from account credentials. A non-positive rate disables pacing.
func NewNotifier(cfg Config, logger *zap.Logger) *NotifierImpl {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	client.SetTimeout(sendTimeout)
	return newNotifier(client.Api, cfg, logger)
}

func newNotifier(api messageCreator, cfg Config, logger *zap.Logger) *NotifierImpl {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	return &NotifierImpl{
		api:      api,
		from:     cfg.From,
		to:       cfg.To,
		headline: cfg.Headline,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// Notify sends the alert for l. Errors carry the provider's reason.
func (n *NotifierImpl) Notify(ctx context.Context, l *entity.Listing) error {
	if l == nil {
		return repository.ErrInvalidInput
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("sms pacing: %w", err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(l.AlertText(n.headline))

	msg, err := n.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("sms send for listing %s: %w", l.ID, err)
	}
	if msg != nil && msg.ErrorMessage != nil && *msg.ErrorMessage != "" {
		return fmt.Errorf("sms send for listing %s: %w", l.ID, errors.New(*msg.ErrorMessage))
	}

	fields := []zap.Field{zap.String("id", l.ID)}
	if msg != nil && msg.Sid != nil {
		fields = append(fields, zap.String("sid", *msg.Sid))
	}
	n.logger.Debug("sms accepted by provider", fields...)
	return nil
}

var _ repository.Notifier = (*NotifierImpl)(nil)
