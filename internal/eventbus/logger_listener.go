package eventbus

import (
	"context"

	"github.com/annel0/blockmodeler/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог.
// Функция неблокирующая.
func StartLoggingListener(bus EventBus, logger *logging.Logger) (Subscription, error) {
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		var change ChangeEvent
		if err := ev.Decode(&change); err != nil {
			logger.Debug("[EventBus] %s %s src=%s size=%dB", ev.ID, ev.EventType, ev.Source, len(ev.Payload))
			return
		}
		if change.Error != "" {
			logger.Warn("[EventBus] %s src=%s tx=%s ошибка: %s", ev.EventType, ev.Source, change.TxID, change.Error)
			return
		}
		logger.Debug("[EventBus] %s src=%s tx=%s правок=%d затронуто=%d", ev.EventType, ev.Source, change.TxID, len(change.Edits), len(change.Dirty))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("LoggingListener: подписка на все события активирована")
	return sub, nil
}
