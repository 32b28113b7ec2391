package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/grovetools/seqrkit/cli"
	"github.com/grovetools/seqrkit/config"
	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/pkg/app"
	"github.com/grovetools/seqrkit/pkg/gateway"
	"github.com/grovetools/seqrkit/pkg/reducer"
	"github.com/grovetools/seqrkit/pkg/report"
	"github.com/grovetools/seqrkit/pkg/store"
	"github.com/grovetools/seqrkit/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// settingsLabel is the snapshot holding UI settings between runs.
const settingsLabel = "settings"

// session is the client state one command works against: the loaded
// configuration, an API client, and a running store whose UI settings are
// restored from and persisted to the snapshot directory.
type session struct {
	cfg       *config.Config
	client    *gateway.Client
	store     *store.Store
	actions   *app.Actions
	snapshots *state.Dir
	logger    *logrus.Entry

	// metrics records gateway requests; metricsOut receives a summary on
	// Close when --metrics is set.
	metrics    *prometheus.Registry
	metricsOut io.Writer

	updates chan store.Update
	done    chan struct{}
}

// openSession loads configuration and starts a store holding the application
// slices plus any extra ones the command needs.
func openSession(cmd *cobra.Command, extra ...store.Slice) (*session, error) {
	s, err := newSession(cmd)
	if err != nil {
		return nil, err
	}
	if err := s.requireAPI(); err != nil {
		return nil, err
	}
	s.start(cmd.Context(), extra...)
	return s, nil
}

// newSession loads configuration and builds the API client. The store is not
// running until start is called.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	opts := []gateway.Option{
		gateway.WithCSRFToken(cfg.API.CSRFToken),
		gateway.WithMetrics(gateway.NewMetrics(reg)),
	}
	for key, value := range cfg.API.Headers {
		opts = append(opts, gateway.WithHeader(key, value))
	}

	s := &session{
		cfg:       cfg,
		client:    gateway.New(cfg.API.BaseURL, opts...),
		snapshots: state.NewDir(cfg.Persistence.Dir),
		logger:    cli.GetLogger(cmd),
		metrics:   reg,
	}
	if show, _ := cmd.Flags().GetBool("metrics"); show {
		s.metricsOut = cmd.ErrOrStderr()
	}
	return s, nil
}

// requireAPI fails unless an API base URL is configured.
func (s *session) requireAPI() error {
	if s.cfg.API.BaseURL == "" {
		return errors.ConfigInvalid("api.base_url is required")
	}
	return nil
}

func (s *session) start(ctx context.Context, extra ...store.Slice) {
	settings := state.Restore(s.snapshots, settingsLabel, reducer.Record{})
	slices := append(app.Slices(settings), extra...)
	s.store = store.New(slices...)
	s.store.Start(ctx)
	s.actions = app.NewActions(s.store, s.client)

	if !s.cfg.PersistenceEnabled() {
		return
	}
	s.updates = s.store.Subscribe()
	s.done = make(chan struct{})
	persister := state.NewPersister(s.snapshots, settingsLabel, app.SliceUISettings,
		time.Duration(s.cfg.Persistence.ThrottleMs)*time.Millisecond)
	go func() {
		defer close(s.done)
		persister.Run(context.Background(), s.updates)
	}()
}

// Close flushes pending snapshots and stops the store.
func (s *session) Close() {
	if s.store == nil {
		return
	}
	if s.updates != nil {
		s.store.Unsubscribe(s.updates)
		<-s.done
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Stop(ctx); err != nil {
		s.logger.WithError(err).Debug("store did not stop cleanly")
	}

	if s.metricsOut != nil {
		if err := s.writeMetrics(s.metricsOut); err != nil {
			s.logger.WithError(err).Debug("failed to gather metrics")
		}
	}
}

var metricColumns = []report.Column{
	{Field: "metric", Label: "Metric"},
	{Field: "labels", Label: "Labels"},
	{Field: "value", Label: "Value"},
}

// writeMetrics prints one row per gathered series. Histograms show their
// sample count and total seconds.
func (s *session) writeMetrics(w io.Writer) error {
	families, err := s.metrics.Gather()
	if err != nil {
		return err
	}

	var rows []report.Row
	for _, family := range families {
		for _, m := range family.GetMetric() {
			var labels []string
			for _, pair := range m.GetLabel() {
				labels = append(labels, pair.GetName()+"="+pair.GetValue())
			}
			sort.Strings(labels)

			value := fmt.Sprint(m.GetCounter().GetValue())
			if h := m.GetHistogram(); h != nil {
				value = fmt.Sprintf("count=%d sum=%.3fs", h.GetSampleCount(), h.GetSampleSum())
			}
			rows = append(rows, report.Row{
				"metric": family.GetName(),
				"labels": strings.Join(labels, ","),
				"value":  value,
			})
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No API requests recorded.")
		return nil
	}
	fmt.Fprintln(w, report.Render(metricColumns, rows))
	return nil
}
