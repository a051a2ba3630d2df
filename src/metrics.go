package mac

import (
	"github.com/prometheus/client_golang/prometheus"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Export the per-category and per-station counters to
 *		Prometheus.
 *
 * Description:	The engines already count everything, so this is a
 *		Collector which reads them when scraped rather than a
 *		set of counters updated along the way.
 *
 *		An engine must not be touched while its event loop is
 *		running.  macsim only serves the registry once the
 *		simulation has finished.
 *
 *------------------------------------------------------------------*/

type MetricsConfig struct {
	Namespace   string
	ConstLabels prometheus.Labels
}

type MetricsOption func(*MetricsConfig)

func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

type Collector struct {
	engines []*Engine

	sent       *prometheus.Desc
	retried    *prometheus.Desc
	givenUp    *prometheus.Desc
	dropped    *prometheus.Desc
	collisions *prometheus.Desc
	queued     *prometheus.Desc
	received   *prometheus.Desc
	duplicates *prometheus.Desc
	rate       *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(engines []*Engine, opts ...MetricsOption) *Collector {
	var cfg = MetricsConfig{Namespace: "edcamac"}
	for _, o := range opts {
		o(&cfg)
	}

	var categoryDesc = func(name string, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(cfg.Namespace, "", name), help,
			[]string{"station", "category"}, cfg.ConstLabels)
	}

	var stationDesc = func(name string, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(cfg.Namespace, "", name), help,
			[]string{"station"}, cfg.ConstLabels)
	}

	return &Collector{
		engines:    engines,
		sent:       categoryDesc("frames_sent_total", "Frames delivered successfully (ACKed, or sent for multicast)."),
		retried:    categoryDesc("frames_retried_total", "Retransmission attempts."),
		givenUp:    categoryDesc("frames_given_up_total", "Frames discarded after the retry limit."),
		dropped:    categoryDesc("frames_dropped_total", "Frames refused because the queue was full."),
		collisions: categoryDesc("internal_collisions_total", "Internal collisions lost."),
		queued:     categoryDesc("queue_length", "Frames waiting in the transmit queue."),
		received:   stationDesc("frames_received_total", "Frames passed to the higher layer."),
		duplicates: stationDesc("frames_duplicate_total", "Retransmissions discarded by duplicate detection."),
		rate:       stationDesc("bit_rate_bps", "Current unicast data rate."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.sent, c.retried, c.givenUp, c.dropped, c.collisions, c.queued,
		c.received, c.duplicates, c.rate,
	} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, e := range c.engines {
		var station = e.Address().String()

		for _, s := range e.Status() {
			var cat = s.Category.String()

			ch <- prometheus.MustNewConstMetric(c.sent, prometheus.CounterValue, float64(s.Counters.Sent), station, cat)
			ch <- prometheus.MustNewConstMetric(c.retried, prometheus.CounterValue, float64(s.Counters.Retried), station, cat)
			ch <- prometheus.MustNewConstMetric(c.givenUp, prometheus.CounterValue, float64(s.Counters.GivenUp), station, cat)
			ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Counters.Dropped), station, cat)
			ch <- prometheus.MustNewConstMetric(c.collisions, prometheus.CounterValue, float64(s.Counters.Collisions), station, cat)
			ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(s.Queued), station, cat)
		}

		var st = e.Stats()

		ch <- prometheus.MustNewConstMetric(c.received, prometheus.CounterValue, float64(st.Received+st.Overheard), station)
		ch <- prometheus.MustNewConstMetric(c.duplicates, prometheus.CounterValue, float64(st.Duplicates), station)
		ch <- prometheus.MustNewConstMetric(c.rate, prometheus.GaugeValue, float64(e.Rate()), station)
	}
}

/* end metrics.go */
