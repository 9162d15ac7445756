package commands

import (
	"time"

	"github.com/sirupsen/logrus"

	"tableflip.dev/grid/pkg/app"
	"tableflip.dev/grid/pkg/client"
	"tableflip.dev/grid/pkg/commands/options"
	"tableflip.dev/grid/pkg/grid"
	"tableflip.dev/grid/pkg/persist"
	"tableflip.dev/grid/pkg/protocol"
	"tableflip.dev/grid/pkg/state"
)

// newService assembles one table instance from the shared flags: config,
// persistence sink, transport, and column/action configuration. A broken
// persistence sink degrades to no persistence, never to a failed command.
func newService(o *options.TableOptions) (*app.Service, error) {
	mode, err := protocol.ParseMode(o.Mode)
	if err != nil {
		return nil, err
	}

	token := ""
	p := persist.Nop()

	cfg, err := persist.LoadConfig()
	if err != nil {
		logrus.Warnf("config unavailable: %v", err)
	} else {
		token = cfg.Token()
		if !o.NoPersist {
			if sink, err := persist.Load(cfg); err != nil {
				logrus.Warnf("persistence unavailable: %v", err)
			} else {
				p = sink
			}
		}
	}

	var actions []grid.Action
	if o.Href != "" {
		actions = append(actions, grid.Action{Label: "Open", Href: o.Href})
	}

	svc := &app.Service{
		State:       state.New(10),
		Columns:     grid.ParseSpecs(o.Columns),
		Actions:     actions,
		Registry:    grid.Registry{},
		Persistence: p,
		Client:      client.New(token),
		Mode:        mode,
		Method:      o.Method,
		Endpoint:    o.Endpoint,
		StateKey:    o.Key,
		PrimaryKey:  o.ID,
	}

	svc.RestoreState()
	applyOverrides(svc.State, o)
	return svc, nil
}

// applyOverrides layers explicit state flags over whatever was restored.
func applyOverrides(t *state.Table, o *options.TableOptions) {
	snap := state.Snapshot{
		Page:      t.Page(),
		PerPage:   t.PerPage(),
		SortBy:    t.SortColumn(),
		SortOrder: t.SortDirection(),
		Search:    t.Search(),
		TS:        time.Now().UnixMilli(),
	}

	if o.PerPage > 0 {
		snap.PerPage = o.PerPage
		snap.Page = 1
	}
	if o.SortBy != "" {
		snap.SortBy = o.SortBy
		snap.SortOrder = state.Asc
		if o.SortOrder == "desc" {
			snap.SortOrder = state.Desc
		}
	}
	if o.Search != "" {
		snap.Search = o.Search
		snap.Page = 1
	}
	if o.Page > 0 {
		snap.Page = o.Page
	}

	t.Restore(snap)
}
