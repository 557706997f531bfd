package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	conversationsCreated prometheus.Counter
	conversationsDeleted prometheus.Counter
	messagesSent         *prometheus.CounterVec
	attachmentsUploaded  prometheus.Counter
	orphanedBlobs        prometheus.Counter
	activeSubscriptions  *prometheus.GaugeVec
	snapshotsDelivered   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		conversationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aeroclassifieds",
			Name:      "conversations_created_total",
			Help:      "Conversations created by GetOrCreate.",
		}),
		conversationsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aeroclassifieds",
			Name:      "conversations_deleted_total",
			Help:      "Conversations purged together with their messages.",
		}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aeroclassifieds",
			Name:      "messages_sent_total",
			Help:      "Message send attempts by outcome.",
		}, []string{"outcome"}),
		attachmentsUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aeroclassifieds",
			Name:      "attachments_uploaded_total",
			Help:      "Staged attachments moved to the blob store.",
		}),
		orphanedBlobs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aeroclassifieds",
			Name:      "orphaned_blobs_total",
			Help:      "Uploaded blobs whose compensating delete failed.",
		}),
		activeSubscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "aeroclassifieds",
			Name:      "active_subscriptions",
			Help:      "Live snapshot subscriptions by kind.",
		}, []string{"kind"}),
		snapshotsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aeroclassifieds",
			Name:      "snapshots_delivered_total",
			Help:      "Snapshot callbacks fired by kind.",
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.conversationsCreated,
			m.conversationsDeleted,
			m.messagesSent,
			m.attachmentsUploaded,
			m.orphanedBlobs,
			m.activeSubscriptions,
			m.snapshotsDelivered,
		)
	}
	return m
}

func (m *Metrics) ConversationCreated() {
	if m != nil {
		m.conversationsCreated.Inc()
	}
}

func (m *Metrics) ConversationDeleted() {
	if m != nil {
		m.conversationsDeleted.Inc()
	}
}

func (m *Metrics) MessageSent(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.messagesSent.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AttachmentUploaded() {
	if m != nil {
		m.attachmentsUploaded.Inc()
	}
}

func (m *Metrics) BlobOrphaned() {
	if m != nil {
		m.orphanedBlobs.Inc()
	}
}

func (m *Metrics) SubscriptionOpened(kind string) {
	if m != nil {
		m.activeSubscriptions.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) SubscriptionClosed(kind string) {
	if m != nil {
		m.activeSubscriptions.WithLabelValues(kind).Dec()
	}
}

func (m *Metrics) SnapshotDelivered(kind string) {
	if m != nil {
		m.snapshotsDelivered.WithLabelValues(kind).Inc()
	}
}
