package datagrid

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// DefaultRequestTimeout bounds every network call issued by a controller.
const DefaultRequestTimeout = 10 * time.Second

// bannerAfterFailures is the number of consecutive list failures that turns a
// transient toast into a persistent banner.
const bannerAfterFailures = 2

// Options configures a Controller. Every collaborator except Client is optional.
type Options struct {
	Entity         EntityConfig
	Client         Client
	Session        SessionContext
	Validator      PayloadValidator
	Notifier       *NotificationChannel
	Hook           StateHook
	Telemetry      Telemetry
	Logger         *logrus.Entry
	Clock          clockwork.Clock
	RequestTimeout time.Duration
	NotifyAfter    time.Duration
}

// Controller mediates between UI intent and the remote list/CRUD endpoints for one
// grid. It is safe for concurrent use; list fetches resolve latest-wins.
type Controller struct {
	entity    EntityConfig
	client    Client
	session   SessionContext
	validator PayloadValidator
	notifier  *NotificationChannel
	hook      StateHook
	telemetry Telemetry
	logger    *logrus.Entry
	clock     clockwork.Clock
	timeout   time.Duration
	formatter Formatter

	filters *FilterReconciler
	columns *ColumnVisibility
	pending *pendingTable

	mu         sync.Mutex
	query      ListQuery
	result     ListResult
	generation uint64
	inflight   context.CancelFunc
	loading    bool
	banner     string
	failures   int
	modal      ModalState
}

// NewController builds a controller with safe defaults.
func NewController(opts Options) (*Controller, error) {
	if opts.Client == nil {
		return nil, errMissingClient
	}
	if strings.Trim(opts.Entity.Collection, "/") == "" {
		return nil, errMissingCollection
	}
	entity := opts.Entity.normalized()
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Validator == nil {
		opts.Validator = NewSchemaValidator()
	}
	if opts.Hook == nil {
		opts.Hook = noopStateHook{}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	c := &Controller{
		entity:    entity,
		client:    opts.Client,
		session:   opts.Session,
		validator: opts.Validator,
		hook:      opts.Hook,
		telemetry: normalizeTelemetry(opts.Telemetry),
		logger:    opts.Logger.WithField("grid", entity.Code),
		clock:     opts.Clock,
		timeout:   opts.RequestTimeout,
		formatter: Formatter{Placeholder: entity.Placeholder, PercentFields: map[string]bool{}},
		columns:   NewColumnVisibility(entity.Columns),
		pending:   newPendingTable(),
		result:    EmptyResult(),
		modal:     ModalState{Mode: ModalClosed},
	}
	for _, key := range entity.PercentFields {
		c.formatter.PercentFields[key] = true
	}
	c.formatter = c.formatter.WithRatios(entity.RatioFields...)
	c.filters = NewFilterReconciler(entity.defaultsFunc(opts.Clock))
	c.notifier = opts.Notifier
	if c.notifier == nil {
		c.notifier = NewNotificationChannel(
			WithNotificationClock(opts.Clock),
			WithNotificationTTL(opts.NotifyAfter),
			WithNotificationListener(func(n Notification, visible bool) {
				reason := "notification.hidden"
				if visible {
					reason = "notification.shown"
				}
				c.emit(context.Background(), reason, 0, "")
			}),
		)
	}
	c.query = ListQuery{Page: 1, PerPage: entity.PerPage}
	return c, nil
}

// Entity returns the normalized entity configuration.
func (c *Controller) Entity() EntityConfig {
	return c.entity
}

// Notifications exposes the grid's toast channel.
func (c *Controller) Notifications() *NotificationChannel {
	return c.notifier
}

// Filters exposes the filter reconciler.
func (c *Controller) Filters() *FilterReconciler {
	return c.filters
}

// Formatter returns the display formatter for this grid.
func (c *Controller) Formatter() Formatter {
	return c.formatter
}

// Load performs the initial fetch.
func (c *Controller) Load(ctx context.Context) error {
	return c.FetchPage(ctx)
}

// FetchPage re-fetches the current page with the applied filters.
func (c *Controller) FetchPage(ctx context.Context) error {
	return c.fetch(ctx, "fetch", nil)
}

// SetPage clamps n into [1, lastPage] and fetches that page.
func (c *Controller) SetPage(ctx context.Context, n int) error {
	return c.fetch(ctx, "page", func(q *ListQuery, last int) {
		q.Page = clampPage(n, last)
	})
}

// SetPerPage changes the page size and returns to page 1.
func (c *Controller) SetPerPage(ctx context.Context, n int) error {
	if !validPerPage(n) {
		return ErrInvalidPerPage
	}
	return c.fetch(ctx, "per_page", func(q *ListQuery, _ int) {
		q.PerPage = n
		q.Page = 1
	})
}

// SetSelection edits filter selection without any network activity.
func (c *Controller) SetSelection(partial Filters) {
	c.filters.SetSelection(partial)
}

// SetSearch edits the selection search text without any network activity.
func (c *Controller) SetSearch(text string) {
	c.filters.SetSearch(text)
}

// DiscardSelection drops uncommitted filter edits.
func (c *Controller) DiscardSelection() {
	c.filters.DiscardSelection()
}

// Submit commits the current selection, returns to page 1 and fetches.
func (c *Controller) Submit(ctx context.Context) error {
	return c.refilter(ctx, "filters", c.filters.Commit)
}

// ApplyFilters replaces the selection with selection and submits it.
func (c *Controller) ApplyFilters(ctx context.Context, selection FilterState) error {
	return c.refilter(ctx, "filters", func() FilterState {
		return c.filters.Replace(selection)
	})
}

// ClearFilters restores the default filters and fetches page 1.
func (c *Controller) ClearFilters(ctx context.Context) error {
	return c.refilter(ctx, "filters.clear", c.filters.ResetSelectionToDefaults)
}

func (c *Controller) refilter(ctx context.Context, reason string, commit func() FilterState) error {
	return c.fetchWith(ctx, reason, commit, func(q *ListQuery, _ int) {
		q.Page = 1
	})
}

func (c *Controller) fetch(ctx context.Context, reason string, mutate func(q *ListQuery, lastPage int)) error {
	return c.fetchWith(ctx, reason, c.filters.Applied, mutate)
}

// fetchWith resolves the applied filters and takes the generation token in one
// critical section, so the winning request always carries the committed filters.
func (c *Controller) fetchWith(ctx context.Context, reason string, applied func() FilterState, mutate func(q *ListQuery, lastPage int)) error {
	c.mu.Lock()
	state := applied()
	if mutate != nil {
		mutate(&c.query, c.result.LastPage)
	}
	c.query.AppliedFilters = state.Filters
	c.query.AppliedSearchText = state.Search
	c.generation++
	gen := c.generation
	if c.inflight != nil {
		c.inflight()
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	c.inflight = cancel
	c.loading = true
	query := c.query
	query.AppliedFilters = query.AppliedFilters.Clone()
	c.mu.Unlock()
	defer cancel()

	c.emit(ctx, "loading", gen, "")
	log := c.logger.WithFields(logrus.Fields{"generation": gen, "page": query.Page, "per_page": query.PerPage})

	body, err := c.client.List(reqCtx, c.listRequest(query, true))
	result := EmptyResult()
	strategy := ""
	if err == nil {
		result, strategy, err = ExtractListResult(body, query.PerPage)
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Debug("datagrid: discarding stale list response")
		c.telemetry.Record(ctx, "datagrid.fetch.stale", map[string]any{"grid": c.entity.Code, "generation": gen})
		return ErrStaleResponse
	}
	c.inflight = nil
	c.loading = false

	var notice string
	class := Classify(err)
	switch class {
	case ClassNone:
		c.result = result
		c.query.Page = result.CurrentPage
		c.banner = ""
		c.failures = 0
	case ClassShape:
		// nothing usable came back; degrade to an empty page
		c.result = EmptyResult()
		c.query.Page = 1
		c.failures = 0
		notice = genericFetchError
	default:
		c.failures++
		notice = UserMessage(err, genericFetchError)
		if class == ClassRejected || c.failures >= bannerAfterFailures {
			c.banner = notice
		}
	}
	c.mu.Unlock()

	switch class {
	case ClassNone:
		log.WithFields(logrus.Fields{"strategy": strategy, "total": result.Total}).Debug("datagrid: page loaded")
		c.telemetry.Record(ctx, "datagrid.fetch", map[string]any{
			"grid":     c.entity.Code,
			"reason":   reason,
			"page":     result.CurrentPage,
			"total":    result.Total,
			"strategy": strategy,
		})
	case ClassShape:
		log.WithError(err).Warn("datagrid: list response shape not recognized")
		c.notifier.Show(notice, KindWarning)
		c.telemetry.Record(ctx, "datagrid.fetch.error", map[string]any{"grid": c.entity.Code, "class": string(class)})
	default:
		log.WithError(err).WithField("class", class).Warn("datagrid: list fetch failed")
		c.notifier.Show(notice, KindError)
		c.telemetry.Record(ctx, "datagrid.fetch.error", map[string]any{"grid": c.entity.Code, "class": string(class)})
	}
	c.emit(ctx, reason, gen, "")
	if class == ClassShape {
		return nil
	}
	return err
}

// listRequest encodes the applied query. Blank filter values are omitted; a filter
// with several values is sent as repeated key[] parameters.
func (c *Controller) listRequest(query ListQuery, paginate bool) ListRequest {
	params := url.Values{}
	if paginate {
		params.Set("page", strconv.Itoa(query.Page))
		params.Set("per_page", strconv.Itoa(query.PerPage))
	} else {
		params.Set("export", "1")
	}
	for key, values := range query.AppliedFilters {
		var kept []string
		for _, v := range values {
			if strings.TrimSpace(v) != "" {
				kept = append(kept, v)
			}
		}
		switch len(kept) {
		case 0:
		case 1:
			params.Set(key, kept[0])
		default:
			for _, v := range kept {
				params.Add(key+"[]", v)
			}
		}
	}
	if search := strings.TrimSpace(query.AppliedSearchText); search != "" {
		params.Set(c.entity.SearchParam, search)
	}
	return ListRequest{
		Collection: c.entity.Collection,
		Method:     c.entity.ListMethod,
		Params:     params,
	}
}

// ToggleColumn flips a column's visibility. The action column stays visible.
func (c *Controller) ToggleColumn(key string) {
	c.columns.Toggle(key)
	c.emit(context.Background(), "columns", 0, key)
}

// ResetColumns restores the configured column defaults.
func (c *Controller) ResetColumns() {
	c.columns.Reset()
	c.emit(context.Background(), "columns", 0, "")
}

// ShowAllColumns un-hides every column.
func (c *Controller) ShowAllColumns() {
	c.columns.ShowAll()
	c.emit(context.Background(), "columns", 0, "")
}

// RestoreColumns replaces hidden columns, e.g. from saved preferences.
func (c *Controller) RestoreColumns(hidden []string) {
	c.columns.Restore(hidden)
	c.emit(context.Background(), "columns", 0, "")
}

// HiddenColumns lists hidden column keys.
func (c *Controller) HiddenColumns() []string {
	return c.columns.Hidden()
}

// ColumnVisible reports whether key is shown.
func (c *Controller) ColumnVisible(key string) bool {
	return c.columns.Visible(key)
}

// CanMutate reports whether the session may create, update or delete rows.
func (c *Controller) CanMutate() bool {
	return c.entity.canWrite(c.session)
}

// Pending returns the in-flight action for id ("" for create).
func (c *Controller) Pending(id string) PendingAction {
	return c.pending.get(id)
}

// Result returns a copy of the last fetched page.
func (c *Controller) Result() ListResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result.clone()
}

// Query returns the committed query.
func (c *Controller) Query() ListQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.query
	q.AppliedFilters = q.AppliedFilters.Clone()
	return q
}

// Banner returns the persistent list error, if any.
func (c *Controller) Banner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

// State returns a snapshot for the presentation layer.
func (c *Controller) State() GridState {
	c.mu.Lock()
	state := GridState{
		Grid:      c.entity.Code,
		Query:     c.query,
		Result:    c.result.clone(),
		Loading:   c.loading,
		Banner:    c.banner,
		Modal:     c.modal,
		PageStrip: PageStrip(c.result.CurrentPage, c.result.LastPage),
	}
	state.Query.AppliedFilters = state.Query.AppliedFilters.Clone()
	c.mu.Unlock()

	state.Selection = c.filters.Selection()
	state.Columns = c.columns.States()
	state.Pending = c.pending.snapshot()
	state.CanMutate = c.CanMutate()
	if n, ok := c.notifier.Current(); ok {
		state.Notification = &n
	}
	return state
}

func (c *Controller) emit(ctx context.Context, reason string, gen uint64, target string) {
	event := GridEvent{
		Grid:       c.entity.Code,
		Reason:     reason,
		Generation: gen,
		TargetID:   target,
		At:         c.clock.Now(),
	}
	if err := c.hook.GridUpdated(ctx, event); err != nil {
		c.logger.WithError(err).WithField("reason", reason).Warn("datagrid: state hook failed")
	}
}

func (c *Controller) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func isNotSupported(err error) bool {
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		return false
	}
	return rerr.StatusCode == 404 || rerr.StatusCode == 405
}
