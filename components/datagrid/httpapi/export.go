package httpapi

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/goliatone/go-datagrid/components/datagrid"
	"github.com/goliatone/go-datagrid/components/datagrid/commands"
)

type responseKey struct{}

func withResponse(ctx context.Context, w http.ResponseWriter) context.Context {
	return context.WithValue(ctx, responseKey{}, w)
}

// ExportWriter is an export sink that writes the file to the HTTP response of
// the request being served. Build the export command with it when mounting
// HandleExport.
func ExportWriter() commands.ExportSink {
	return func(ctx context.Context, file datagrid.ExportFile) error {
		w, ok := ctx.Value(responseKey{}).(http.ResponseWriter)
		if !ok {
			return errors.New("httpapi: export requested outside an HTTP request")
		}
		contentType := file.ContentType
		if contentType == "" {
			contentType = datagrid.ContentTypeCSV
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
		w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
		w.Header().Set("X-Export-Source", file.Source)
		w.WriteHeader(http.StatusOK)
		_, err := w.Write(file.Data)
		return err
	}
}
