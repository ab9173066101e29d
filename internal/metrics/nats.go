package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

const (
	DefaultStream        = "LANWATCH_METRICS"
	DefaultSubjectPrefix = "lanwatch.metrics"
)

// NATSConfig configures the JetStream sink
type NATSConfig struct {
	URL           string
	Stream        string
	SubjectPrefix string
}

// jsPublisher is the part of jetstream.JetStream used by the sink
type jsPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSSink publishes points to JetStream subjects <prefix>.<measurement>
type NATSSink struct {
	js     jsPublisher
	nc     *nats.Conn
	prefix string
	logger zerolog.Logger
	now    func() time.Time
}

// ConnectNATS connects to NATS and makes sure the metrics stream exists
func ConnectNATS(ctx context.Context, cfg NATSConfig, logger zerolog.Logger, opts ...nats.Option) (*NATSSink, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats: url is required")
	}
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultSubjectPrefix
	}

	opts = append([]nats.Option{
		nats.Name("lanwatch"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}, opts...)

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.Stream(ctx, cfg.Stream); err != nil {
		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     cfg.Stream,
			Subjects: []string{cfg.SubjectPrefix + ".>"},
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create or get stream %s: %w", cfg.Stream, err)
		}
	}

	logger.Info().Str("url", nc.ConnectedUrl()).Str("stream", cfg.Stream).Msg("Metrics sink connected to NATS")

	sink := newNATSSink(js, cfg.SubjectPrefix, logger)
	sink.nc = nc
	return sink, nil
}

func newNATSSink(js jsPublisher, prefix string, logger zerolog.Logger) *NATSSink {
	return &NATSSink{
		js:     js,
		prefix: strings.TrimSuffix(prefix, "."),
		logger: logger,
		now:    time.Now,
	}
}

// Publish sends every point; it keeps going after a failed point and
// returns the joined errors
func (s *NATSSink) Publish(ctx context.Context, points []Point) error {
	var errs []error
	for _, p := range stamp(points, s.now().UTC()) {
		data, err := json.Marshal(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to marshal %s point: %w", p.Measurement, err))
			continue
		}

		subject := s.prefix + "." + p.Measurement
		if _, err := s.js.Publish(ctx, subject, data); err != nil {
			errs = append(errs, fmt.Errorf("failed to publish to %s: %w", subject, err))
		}
	}

	s.logger.Debug().Int("points", len(points)).Int("failed", len(errs)).Msg("Metrics published")
	return errors.Join(errs...)
}

// Close drains the connection
func (s *NATSSink) Close() error {
	if s.nc == nil {
		return nil
	}
	return s.nc.Drain()
}
