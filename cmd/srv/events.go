package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/luckydrop/backend/internal/common"
	"github.com/luckydrop/backend/internal/model"
	"github.com/luckydrop/backend/pkg/kafka"
	"github.com/luckydrop/backend/pkg/pubsub"
	"github.com/luckydrop/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startEvents(*cli.Context) error {
	cfg := xcontext.Configs(s.ctx).Kafka
	if cfg.Addr == "" {
		return errors.New("kafka address is not configured")
	}

	subscriber, err := kafka.NewSubscriber(
		"drop_events", strings.Split(cfg.Addr, ","), []string{cfg.Topic}, s.handleDropEvent)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	subscriber.Subscribe(ctx)
	xcontext.Logger(s.ctx).Infof("Consuming topic %s", cfg.Topic)

	<-ctx.Done()
	return subscriber.Stop(context.Background())
}

func (s *srv) handleDropEvent(ctx context.Context, pack *pubsub.Pack, t time.Time) {
	var event model.DropEvent
	if err := json.Unmarshal(pack.Msg, &event); err != nil {
		xcontext.Logger(s.ctx).Warnf("Cannot unmarshal drop event: %v", err)
		return
	}

	common.PromCounters[common.DropEventTotal].WithLabelValues("consumed_" + event.Type).Inc()
	xcontext.Logger(s.ctx).Infof("Drop %s: %s (gift %s) at %s, received %s",
		event.DropID, event.Type, event.GiftID, event.At, t.Format(model.DefaultTimeLayout))
}
