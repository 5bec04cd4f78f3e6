package cart

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// MergeOnSignIn переносит анонимную корзину сессии в durable-корзину
// пользователя. Переход одноразовый и односторонний: для пересекающихся
// товаров количества складываются, снапшот durable-корзины побеждает
// (она — system of record), после merge сессионная корзина очищается.
// Пустая или отсутствующая анонимная корзина делает операцию no-op.
func (e *Engine) MergeOnSignIn(ctx context.Context, sessionToken, userID string) (domain.Cart, error) {
	anon := domain.AnonymousOwner(sessionToken)
	user := domain.AuthenticatedOwner(userID)
	if err := anon.Validate(); err != nil {
		return domain.Cart{}, err
	}
	if err := user.Validate(); err != nil {
		return domain.Cart{}, err
	}

	anonCart, err := e.session.Load(anon)
	if err != nil {
		if domain.IsNotFound(err) {
			return e.GetCart(ctx, user)
		}
		return domain.Cart{}, err
	}

	merged, err := e.mutate(ctx, opMerge, user, func(cart *domain.Cart) (bool, error) {
		for _, line := range anonCart.Lines {
			cart.MergeLine(line)
		}
		return !anonCart.IsEmpty(), nil
	})
	if err != nil {
		return domain.Cart{}, err
	}

	// Сессионную корзину чистим только после успешного сохранения merge,
	// иначе при сбое позиции анонимной корзины были бы потеряны.
	if err := e.clearSessionWithRetry(ctx, anon); err != nil {
		e.logger.WithError(err).WithField("session", anon.String()).
			Error("failed to clear anonymous cart after merge")
		return domain.Cart{}, err
	}

	if e.metrics != nil {
		e.metrics.RecordMerge()
	}
	e.logger.WithFields(log.Fields{
		"user":  user.String(),
		"lines": len(merged.Lines),
	}).Info("anonymous cart merged on sign-in")

	return merged, nil
}

func (e *Engine) clearSessionWithRetry(ctx context.Context, anon domain.OwnerKey) error {
	delay := e.retry.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= e.retry.MaxAttempts; attempt++ {
		lastErr = e.session.Clear(anon)
		if lastErr == nil {
			return nil
		}
		if !sleepCtx(ctx, delay) {
			return ctx.Err()
		}
		delay = e.retry.nextDelay(delay)
	}
	return lastErr
}
