package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/sim"
)

// Metrics with bounded cardinality; the only label is the movement profile
type Metrics struct {
	Rollbacks    prometheus.Counter
	Resimulated  prometheus.Counter
	Desyncs      prometheus.Counter
	Frames       prometheus.Counter
	Frame        prometheus.Gauge
	Agents       prometheus.Gauge
	NavRebuilds  *prometheus.CounterVec
	NavTruncated *prometheus.CounterVec
	BFSCells     prometheus.Histogram
	Rejected     prometheus.Counter
}

// NewMetrics registers the simulation collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Rollbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "sim_rollbacks_total",
			Help: "Rollbacks performed after a misprediction",
		}),
		Resimulated: f.NewCounter(prometheus.CounterOpts{
			Name: "sim_resimulated_frames_total",
			Help: "Frames replayed during rollbacks and sync tests",
		}),
		Desyncs: f.NewCounter(prometheus.CounterOpts{
			Name: "sim_desyncs_total",
			Help: "Checksum mismatches detected",
		}),
		Frames: f.NewCounter(prometheus.CounterOpts{
			Name: "sim_frames_total",
			Help: "Frames simulated including replays",
		}),
		Frame: f.NewGauge(prometheus.GaugeOpts{
			Name: "sim_frame",
			Help: "Current confirmed-or-predicted frame",
		}),
		Agents: f.NewGauge(prometheus.GaugeOpts{
			Name: "sim_agents",
			Help: "Live agents in the current state",
		}),
		NavRebuilds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nav_flowfield_rebuilds_total",
			Help: "Flow-field builds per movement profile",
		}, []string{"profile"}),
		NavTruncated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nav_flowfield_truncated_total",
			Help: "Flow-field builds that hit the cell cap",
		}, []string{"profile"}),
		BFSCells: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "nav_bfs_cells_processed",
			Help:    "Cells dequeued per flow-field rebuild",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		}),
		Rejected: f.NewCounter(prometheus.CounterOpts{
			Name: "sim_inputs_rejected_total",
			Help: "Inputs rejected beyond the prediction window",
		}),
	}
}

// ObserveStep records one simulated frame; nil receivers are ignored
func (m *Metrics) ObserveStep(r sim.StepReport, profiles []navigation.Profile, agents int) {
	if m == nil {
		return
	}
	m.Frames.Inc()
	m.Agents.Set(float64(agents))
	if !r.Nav.Rebuilt {
		return
	}
	m.BFSCells.Observe(float64(r.Nav.CellsProcessed()))
	for _, p := range profiles {
		st := r.Nav.Stats[p]
		m.NavRebuilds.WithLabelValues(p.String()).Inc()
		if st.Truncated {
			m.NavTruncated.WithLabelValues(p.String()).Inc()
		}
	}
}

// ObserveRollback records a rollback that replayed n frames
func (m *Metrics) ObserveRollback(n int) {
	if m == nil {
		return
	}
	m.Rollbacks.Inc()
	m.Resimulated.Add(float64(n))
}

func (m *Metrics) ObserveResimulated(n int) {
	if m == nil {
		return
	}
	m.Resimulated.Add(float64(n))
}

func (m *Metrics) ObserveDesync() {
	if m == nil {
		return
	}
	m.Desyncs.Inc()
}

func (m *Metrics) ObserveRejected() {
	if m == nil {
		return
	}
	m.Rejected.Inc()
}

func (m *Metrics) SetFrame(frame uint32) {
	if m == nil {
		return
	}
	m.Frame.Set(float64(frame))
}
