package datagrid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// Notification texts for CRUD and export outcomes.
const (
	msgCreated        = "Record created"
	msgUpdated        = "Record updated"
	msgDeleted        = "Record deleted"
	msgCreateFailed   = "Failed to create record"
	msgUpdateFailed   = "Failed to update record"
	msgDeleteFailed   = "Failed to delete record"
	msgViewFailed     = "Failed to load record"
	msgForbidden      = "You do not have permission to modify records"
	msgExportFailed   = "Export failed"
	msgExportServer   = "Export downloaded"
	msgExportFallback = "Server export unavailable; exported %d loaded rows"
)

// OpenCreate opens an empty create modal.
func (c *Controller) OpenCreate() {
	c.setModal(ModalState{Mode: ModalCreate})
}

// OpenEdit opens the edit modal for id, prefilled from the loaded page when possible.
func (c *Controller) OpenEdit(id string) {
	row, _ := c.cachedRow(id)
	c.setModal(ModalState{Mode: ModalEdit, TargetID: id, Row: row})
}

// CloseModal closes any open modal and drops its errors.
func (c *Controller) CloseModal() {
	c.setModal(ModalState{Mode: ModalClosed})
}

// Modal returns the current modal state.
func (c *Controller) Modal() ModalState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal
}

// View fetches a single record and opens it read-only. When the fetch fails the
// cached row from the current page is shown, if there is one.
func (c *Controller) View(ctx context.Context, id string) (Row, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errMissingID
	}
	reqCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	body, err := c.client.Get(reqCtx, c.entity.memberPath(id))
	var row Row
	if err == nil {
		row, err = ExtractRecord(body)
	}
	if err != nil {
		c.logger.WithError(err).WithField("id", id).Warn("datagrid: view fetch failed")
		c.notifier.Show(UserMessage(err, msgViewFailed), KindError)
		cached, ok := c.cachedRow(id)
		if !ok {
			return nil, err
		}
		row = cached
	}
	c.setModal(ModalState{Mode: ModalView, TargetID: id, Row: row.clone()})
	return row, nil
}

// Create validates payload and posts it to the collection.
func (c *Controller) Create(ctx context.Context, payload map[string]any) error {
	return c.mutate(ctx, mutation{
		kind:     PendingCreating,
		target:   newRecordKey,
		mode:     ModalCreate,
		payload:  payload,
		validate: true,
		success:  msgCreated,
		failure:  msgCreateFailed,
		event:    "create",
		run: func(ctx context.Context, body map[string]any) error {
			return c.client.Post(ctx, c.entity.Collection, body)
		},
	})
}

// Update validates payload and puts it to <collection>/<id>.
func (c *Controller) Update(ctx context.Context, id string, payload map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return errMissingID
	}
	return c.mutate(ctx, mutation{
		kind:     PendingUpdating,
		target:   id,
		mode:     ModalEdit,
		payload:  payload,
		validate: true,
		success:  msgUpdated,
		failure:  msgUpdateFailed,
		event:    "update",
		run: func(ctx context.Context, body map[string]any) error {
			return c.client.Put(ctx, c.entity.memberPath(id), body)
		},
	})
}

// Delete removes <collection>/<id>. Servers that answer DELETE with 404 or 405
// get a single POST carrying {"_method":"DELETE"} instead.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errMissingID
	}
	return c.mutate(ctx, mutation{
		kind:    PendingDeleting,
		target:  id,
		success: msgDeleted,
		failure: msgDeleteFailed,
		event:   "delete",
		run: func(ctx context.Context, _ map[string]any) error {
			path := c.entity.memberPath(id)
			err := c.client.Delete(ctx, path)
			if err == nil || !isNotSupported(err) {
				return err
			}
			c.logger.WithField("id", id).Debug("datagrid: delete not supported, retrying as method override")
			return c.client.Post(ctx, path, map[string]any{"_method": http.MethodDelete})
		},
	})
}

type mutation struct {
	kind     PendingKind
	target   string
	mode     ModalMode
	payload  map[string]any
	validate bool
	success  string
	failure  string
	event    string
	run      func(ctx context.Context, body map[string]any) error
}

func (c *Controller) mutate(ctx context.Context, m mutation) error {
	log := c.logger.WithFields(logrus.Fields{"action": m.event, "id": m.target})
	if !c.CanMutate() {
		log.Warn("datagrid: mutation rejected for session role")
		c.notifier.Show(msgForbidden, KindError)
		return ErrForbidden
	}

	var body map[string]any
	if m.validate {
		body = c.entity.payloadFor(m.payload)
		if err := c.validator.Validate(c.entity, body); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				c.modalFailure(m, "", verr.Fields)
				c.telemetry.Record(ctx, "datagrid."+m.event+".invalid", map[string]any{"grid": c.entity.Code, "fields": len(verr.Fields)})
				return err
			}
			log.WithError(err).Error("datagrid: payload validator failed")
			c.modalFailure(m, m.failure, nil)
			c.notifier.Show(m.failure, KindError)
			return err
		}
	}

	release, err := c.pending.begin(m.kind, m.target)
	if err != nil {
		return err
	}
	c.emit(ctx, m.event+".pending", 0, m.target)

	reqCtx, cancel := c.withTimeout(ctx)
	err = m.run(reqCtx, body)
	cancel()
	release()

	if err != nil {
		msg := UserMessage(err, m.failure)
		log.WithError(err).Warn("datagrid: mutation failed")
		c.modalFailure(m, msg, nil)
		c.notifier.Show(msg, KindError)
		c.telemetry.Record(ctx, "datagrid."+m.event+".error", map[string]any{"grid": c.entity.Code, "class": string(Classify(err))})
		c.emit(ctx, m.event+".failed", 0, m.target)
		return err
	}

	log.Info("datagrid: mutation succeeded")
	c.CloseModal()
	c.notifier.Show(m.success, KindSuccess)
	c.telemetry.Record(ctx, "datagrid."+m.event, map[string]any{"grid": c.entity.Code, "id": m.target})
	c.emit(ctx, m.event, 0, m.target)
	if ferr := c.FetchPage(ctx); ferr != nil && !errors.Is(ferr, ErrStaleResponse) {
		log.WithError(ferr).Debug("datagrid: refresh after mutation failed")
	}
	return nil
}

// modalFailure keeps the relevant modal open with the error. Deletes only touch a
// modal that is already open for the same record.
func (c *Controller) modalFailure(m mutation, message string, fields map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.mode == "" {
		if c.modal.Mode != ModalClosed && c.modal.TargetID == m.target {
			c.modal.Error = message
		}
		return
	}
	if c.modal.Mode != m.mode || c.modal.TargetID != m.target {
		c.modal = ModalState{Mode: m.mode, TargetID: m.target}
	}
	c.modal.Row = Row(m.payload).clone()
	c.modal.Error = message
	c.modal.FieldErrors = fields
}

func (c *Controller) setModal(state ModalState) {
	c.mu.Lock()
	c.modal = state
	c.mu.Unlock()
	c.emit(context.Background(), "modal."+string(state.Mode), 0, state.TargetID)
}

func (c *Controller) cachedRow(id string) (Row, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range c.result.Rows {
		if row.ID() == id {
			return row.clone(), true
		}
	}
	return nil, false
}

// Export asks the server for a full export of the applied filters. When that fails
// the rows already loaded are written as CSV with the fallback column set.
func (c *Controller) Export(ctx context.Context) (ExportFile, error) {
	c.mu.Lock()
	query := c.query
	query.AppliedFilters = query.AppliedFilters.Clone()
	rows := make([]Row, len(c.result.Rows))
	copy(rows, c.result.Rows)
	c.mu.Unlock()
	log := c.logger.WithField("action", "export")

	reqCtx, cancel := c.withTimeout(ctx)
	file, err := c.client.Export(reqCtx, c.listRequest(query, false))
	cancel()
	if err == nil && len(file.Data) > 0 {
		if file.Name == "" {
			file.Name = DefaultExportName(c.entity.Code, c.clock.Now(), "csv")
		}
		if file.ContentType == "" {
			file.ContentType = ContentTypeCSV
		}
		file.Source = ExportSourceServer
		c.notifier.Show(msgExportServer, KindSuccess)
		c.telemetry.Record(ctx, "datagrid.export", map[string]any{"grid": c.entity.Code, "source": file.Source})
		return file, nil
	}
	if err == nil {
		err = errors.New("datagrid: server export returned an empty body")
	}
	log.WithError(err).Warn("datagrid: server export failed, falling back to loaded rows")
	c.telemetry.Record(ctx, "datagrid.export.fallback", map[string]any{"grid": c.entity.Code, "class": string(Classify(err))})

	file, ferr := clientExport(c.entity, c.columns.VisibleColumns(), rows, c.formatter, c.clock.Now())
	if ferr != nil {
		c.notifier.Show(msgExportFailed, KindError)
		c.telemetry.Record(ctx, "datagrid.export.error", map[string]any{"grid": c.entity.Code})
		if !errors.Is(ferr, ErrExportFailed) {
			ferr = fmt.Errorf("%w: %v", ErrExportFailed, ferr)
		}
		return ExportFile{}, ferr
	}
	c.notifier.Show(fmt.Sprintf(msgExportFallback, file.Rows), KindSuccess)
	c.telemetry.Record(ctx, "datagrid.export", map[string]any{"grid": c.entity.Code, "source": file.Source, "rows": file.Rows})
	return file, nil
}

// ExportXLSX renders the loaded page as a workbook with the visible columns.
func (c *Controller) ExportXLSX() (ExportFile, error) {
	rows := c.Result().Rows
	if len(rows) == 0 {
		return ExportFile{}, fmt.Errorf("%w: no rows loaded", ErrExportFailed)
	}
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, c.columns.VisibleColumns(), rows, c.formatter); err != nil {
		return ExportFile{}, err
	}
	return ExportFile{
		Name:        DefaultExportName(c.entity.Code, c.clock.Now(), "xlsx"),
		ContentType: ContentTypeXLSX,
		Data:        buf.Bytes(),
		Source:      ExportSourceClient,
		Rows:        len(rows),
	}, nil
}
