package console

import (
	"context"

	"go.uber.org/zap"

	"github.com/user/dealwatch/internal/entity"
	"github.com/user/dealwatch/internal/repository"
)

// NotifierImpl writes alerts to the log instead of sending them. It is used when no
// messaging credentials are configured.
type NotifierImpl struct {
	headline string
	logger   *zap.Logger
}

func NewNotifier(headline string, logger *zap.Logger) *NotifierImpl {
	return &NotifierImpl{headline: headline, logger: logger}
}

func (n *NotifierImpl) Notify(_ context.Context, l *entity.Listing) error {
	if l == nil {
		return repository.ErrInvalidInput
	}
	n.logger.Info("alert (console)",
		zap.String("id", l.ID),
		zap.String("message", l.AlertText(n.headline)),
	)
	return nil
}

var _ repository.Notifier = (*NotifierImpl)(nil)
