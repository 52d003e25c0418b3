package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/alexanderramin/fallow/internal/domain"
)

// UseCaseEvent describes one finished service call: which use case ran, how
// long it took, how it ended and any domain fields it recorded (rotation,
// year, division, entries, relaxed_slots, ...).
type UseCaseEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

// observers fans one event out to several observers in order.
type observers []UseCaseObserver

func (obs observers) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	for _, o := range obs {
		o.ObserveUseCase(ctx, event)
	}
}

// useCaseObserverOrNoop drops nil observers and combines the rest.
func useCaseObserverOrNoop(list []UseCaseObserver) UseCaseObserver {
	var live observers
	for _, o := range list {
		if o != nil {
			live = append(live, o)
		}
	}
	switch len(live) {
	case 0:
		return NoopUseCaseObserver{}
	case 1:
		return live[0]
	default:
		return live
	}
}

type logUseCaseObserver struct {
	logger *slog.Logger
}

// NewLogUseCaseObserver logs every use case to w as a slog text record.
// Successes log at info. Rejected input (validation, missing rotation or
// crop, stale version) logs at warn; anything else at error. A nil level
// means info.
func NewLogUseCaseObserver(w io.Writer, level slog.Leveler) UseCaseObserver {
	if w == nil {
		return NoopUseCaseObserver{}
	}
	if level == nil {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &logUseCaseObserver{logger: slog.New(handler)}
}

func (o *logUseCaseObserver) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	attrs := []slog.Attr{
		slog.String("use_case", event.Name),
		slog.Int64("duration_ms", event.Duration.Milliseconds()),
		slog.Bool("success", event.Success),
	}
	keys := make([]string, 0, len(event.Fields))
	for k := range event.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, event.Fields[k]))
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}
	o.logger.LogAttrs(ctx, levelFor(event.Err), "service_use_case", attrs...)
}

func levelFor(err error) slog.Level {
	if err == nil {
		return slog.LevelInfo
	}
	var ve *domain.ValidationError
	var nf *domain.NotFoundError
	var ce *domain.ConflictError
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &ce) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// observe reports a use case once the enclosing function returns:
//
//	defer observe(ctx, s.observer, "generate-rotation", time.Now().UTC(), fields, &err)
func observe(ctx context.Context, obs UseCaseObserver, name string, startedAt time.Time, fields map[string]any, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	obs.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}
