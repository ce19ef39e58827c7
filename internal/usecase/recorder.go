package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/vadimbarashkov/vortex/internal/entity"
)

type clickRepository interface {
	Record(ctx context.Context, linkID int64, click entity.ClickEvent) (*entity.ClickEvent, error)
}

type visitorClassifier interface {
	Classify(userAgent, clientIP string) entity.ClientInfo
}

// ClickRecorder classifies a visit and persists it as a click event. The
// repository decides uniqueness and bumps the link counters atomically.
type ClickRecorder struct {
	clicks     clickRepository
	classifier visitorClassifier
	options
}

func NewClickRecorder(clicks clickRepository, classifier visitorClassifier, opts ...Option) *ClickRecorder {
	return &ClickRecorder{
		clicks:     clicks,
		classifier: classifier,
		options:    newOptions(opts),
	}
}

func (r *ClickRecorder) Record(ctx context.Context, link *entity.Link, rc entity.RequestContext, at time.Time) (*entity.ClickEvent, error) {
	const op = "usecase.ClickRecorder.Record"

	// Header values may carry bytes postgres rejects in text columns.
	userAgent := strings.ToValidUTF8(rc.UserAgent, "")

	click := entity.ClickEvent{
		ShortCode:  link.ShortCode,
		OwnerID:    link.OwnerID,
		ClickedAt:  at,
		ClientIP:   rc.ClientIP,
		UserAgent:  userAgent,
		ClientInfo: r.classifier.Classify(userAgent, rc.ClientIP),
		Referrer:   strings.ToValidUTF8(rc.Referrer, ""),
	}

	saved, err := r.clicks.Record(ctx, link.ID, click)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to record click: %w", op, err)
	}

	r.metrics.ClicksRecorded.WithLabelValues(strconv.FormatBool(saved.IsUnique)).Inc()
	r.logger.Debug("click recorded",
		slog.String("short_code", saved.ShortCode),
		slog.Bool("unique", saved.IsUnique),
		slog.String("device", string(saved.Device)),
	)

	return saved, nil
}
