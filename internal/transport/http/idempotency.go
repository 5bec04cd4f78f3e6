package http

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
)

// responseRecorder буферизует ответ хендлера, чтобы его можно было
// закэшировать под idempotency-ключом.
type responseRecorder struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

func (r *responseRecorder) Header() http.Header { return r.header }

func (r *responseRecorder) WriteHeader(status int) { r.status = status }

func (r *responseRecorder) Write(p []byte) (int, error) { return r.body.Write(p) }

func (r *responseRecorder) flushTo(w http.ResponseWriter) {
	for key, values := range r.header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(r.status)
	_, _ = w.Write(r.body.Bytes())
}

// WithIdempotency оборачивает мутирующий хендлер: повтор запроса с тем же
// Idempotency-Key возвращает закэшированный ответ вместо повторного
// выполнения. Без заголовка хендлер выполняется как обычно. Ключ,
// переиспользованный с другим телом запроса, отклоняется с 409.
func WithIdempotency(repo domain.IdempotencyRepository, logger *log.Entry, next http.HandlerFunc) http.HandlerFunc {
	if logger == nil {
		logger = log.New().WithField("component", "http-idempotency")
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			next(w, r)
			return
		}

		key := r.Header.Get(idempotencyKeyHeader)
		if key == "" {
			next(w, r)
			return
		}

		requestHash, err := buildRequestHash(r)
		if err != nil {
			logger.WithError(err).Warn("failed to hash request for idempotency")
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to initialize idempotent request")
			return
		}

		record, err := repo.CreateProcessing(key, requestHash, time.Now().UTC().Add(idempotencyTTL))
		if err != nil {
			replayRecord(w, logger, err, record)
			return
		}

		recorder := newResponseRecorder()
		next(recorder, r)

		if recorder.status >= 200 && recorder.status < 300 {
			if err := repo.MarkDone(key, recorder.body.Bytes(), recorder.status); err != nil {
				logger.WithError(err).WithField("idempotency_key", key).Warn("failed to cache idempotent response")
			}
		} else {
			if err := repo.MarkFailed(key, recorder.body.Bytes(), recorder.status); err != nil {
				logger.WithError(err).WithField("idempotency_key", key).Warn("failed to cache failed response")
			}
		}

		recorder.flushTo(w)
	}
}

func replayRecord(w http.ResponseWriter, logger *log.Entry, createErr error, record domain.IdempotencyRecord) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		respondError(w, http.StatusConflict, "idempotency_conflict", "idempotency key is already used with different request payload")
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			if len(record.ResponseBody) == 0 {
				respondError(w, http.StatusInternalServerError, "internal_error", "idempotency cache is empty")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(record.HTTPStatus)
			_, _ = w.Write(record.ResponseBody)
		case domain.IdempotencyStatusProcessing:
			respondError(w, http.StatusConflict, "idempotency_in_flight", "request with the same idempotency key is already processing")
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "unknown idempotency record status")
		}
	default:
		logger.WithError(createErr).Warn("failed to create idempotency record")
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to initialize idempotent request")
	}
}

// buildRequestHash хэширует метод, путь, владельца и тело запроса: тот же
// ключ с другим содержимым не должен реплеить чужой ответ.
func buildRequestHash(r *http.Request) (string, error) {
	body := []byte{}
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return "", err
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	ownerPart := ""
	if owner, ok := OwnerFromContext(r.Context()); ok {
		ownerPart = owner.String()
	}

	payload := make([]byte, 0, len(r.Method)+len(r.URL.Path)+len(ownerPart)+len(body)+3)
	payload = append(payload, r.Method...)
	payload = append(payload, ':')
	payload = append(payload, r.URL.Path...)
	payload = append(payload, ':')
	payload = append(payload, ownerPart...)
	payload = append(payload, ':')
	payload = append(payload, body...)

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
