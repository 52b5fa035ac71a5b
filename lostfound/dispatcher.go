package lostfound

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"campuslink/metrics"
	"campuslink/models"
	"campuslink/notify"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dispatcher sends one match notification per lost item. Failures are logged
// and never reach the caller.
type Dispatcher struct {
	channel     notify.Channel
	log         *zap.Logger
	concurrency int
	timeout     time.Duration
}

func NewDispatcher(channel notify.Channel, concurrency int, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{channel: channel, log: log, concurrency: concurrency, timeout: timeout}
}

// DispatchAll notifies every matched item's reporter with at most
// d.concurrency sends in flight, and waits for all of them.
func (d *Dispatcher) DispatchAll(ctx context.Context, matched []models.LostFoundItem, found *models.LostFoundItem) {
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i := range matched {
		lost := &matched[i]
		g.Go(func() error {
			d.Notify(ctx, lost, found)
			return nil
		})
	}
	_ = g.Wait()
}

// Notify makes a single send attempt for one lost/found pair.
func (d *Dispatcher) Notify(ctx context.Context, lost, found *models.LostFoundItem) {
	to := lost.Reporter.ContactEmail()
	if to == "" {
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		d.log.Warn("skipping match notification: reporter email not found",
			zap.String("lost_item_id", lost.ID),
			zap.String("lost_item", lost.Item),
			zap.String("reporter_id", lost.ReporterID))
		return
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.channel.Send(ctx, MatchMessage(lost, found)); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		d.log.Error("failed to send match notification",
			zap.String("recipient", to),
			zap.String("lost_item_id", lost.ID),
			zap.String("found_item_id", found.ID),
			zap.Error(err))
		return
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	d.log.Info("match notification sent",
		zap.String("recipient", to),
		zap.String("lost_item_id", lost.ID),
		zap.String("found_item_id", found.ID))
}

// MatchMessage composes the email for the reporter of lost.
func MatchMessage(lost, found *models.LostFoundItem) notify.Message {
	e := html.EscapeString
	name := "there"
	if lost.Reporter != nil && lost.Reporter.Name != "" {
		name = lost.Reporter.Name
	}

	var img string
	if found.ImageURL != "" {
		img = fmt.Sprintf(`<p><img src="%s" alt="Found Item Image" style="max-width: 200px; height: auto; display: block; margin-top: 10px;"></p>`, e(found.ImageURL))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2 style="color: #007bff;">Great News from CampusLink Lost &amp; Found!</h2>
    <p>Hello %s,</p>
    <p>We believe we've found a potential match for your lost item:</p>
    <div style="background-color: #f0f8ff; padding: 15px; border-left: 5px solid #007bff; margin-bottom: 20px;">
        <h3 style="margin-top: 0; color: #007bff;">Your Lost Item: %s</h3>
        <p><strong>Description:</strong> %s</p>
        <p><strong>Reported Location:</strong> %s</p>
    </div>
    <p>A new item has been reported as found that closely matches your description.</p>
    <div style="background-color: #f0f8ff; padding: 15px; border-left: 5px solid #28a745; margin-bottom: 20px;">
        <h3 style="margin-top: 0; color: #28a745;">Newly Found Item Details:</h3>
        <p><strong>Item:</strong> %s</p>
        <p><strong>Description:</strong> %s</p>
        <p><strong>Found Location:</strong> %s</p>
        %s
    </div>
    <p>Please log in to CampusLink to view the full details and contact the reporter of the found item.</p>
    <p>Best regards,<br/>The CampusLink Team</p>
</div>`,
		e(name),
		e(lost.Item), e(lost.Description), e(lost.Location),
		e(found.Item), e(found.Description), e(found.Location),
		img)

	return notify.Message{
		To:      lost.Reporter.ContactEmail(),
		Subject: "CampusLink: Potential Match Found for Your Lost Item - " + lost.Item,
		HTML:    b.String(),
	}
}
