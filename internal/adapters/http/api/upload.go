package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/medalist/internal/domain/decode"
)

// upload is an import payload read from a request.
type upload struct {
	body   io.Reader
	format decode.Format
	close  func()
	form   func(key string) string
}

// readUpload accepts a multipart form with a "file" part or a raw CSV or
// JSON body. Bodies larger than limit fail with *http.MaxBytesError.
func readUpload(w http.ResponseWriter, r *http.Request, limit int64) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return &upload{
			body:   r.Body,
			format: decode.FormatFromContentType(mediaType),
			close:  func() {},
			form:   r.URL.Query().Get,
		}, nil
	}

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, badRequest("invalid multipart form: %v", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest("no file uploaded")
	}
	format := decode.FormatFromContentType(header.Header.Get("Content-Type"))
	if format == decode.FormatAuto {
		format = formatFromName(header.Filename)
	}
	return &upload{
		body:   file,
		format: format,
		close:  func() { _ = file.Close() },
		form: func(key string) string {
			if v := r.URL.Query().Get(key); v != "" {
				return v
			}
			return r.FormValue(key)
		},
	}, nil
}

func formatFromName(name string) decode.Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return decode.FormatJSON
	case ".csv", ".txt":
		return decode.FormatCSV
	default:
		return decode.FormatAuto
	}
}

// parseFlag reads an optional boolean. HTML checkboxes send "on".
func parseFlag(v string) (bool, error) {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "":
		return false, nil
	case "on":
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badRequest("invalid boolean %q", v)
	}
	return b, nil
}
