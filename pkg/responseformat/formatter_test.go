package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Station string `json:"station"`
	Count   int    `json:"count"`
}

func TestWriteResponse(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
	}{
		{"default json", "/runs/latest", ContentTypeJSON},
		{"unknown format falls back to json", "/runs/latest?format=xml", ContentTypeJSON},
		{"msgpack", "/runs/latest?format=msgpack", ContentTypeMsgPack},
	}

	f := NewFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)

			if err := f.WriteResponse(rec, req, payload{Station: "9414131", Count: 3}); err != nil {
				t.Fatalf("WriteResponse() error = %v", err)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, expected %q", got, tt.contentType)
			}

			var decoded map[string]any
			var err error
			if tt.contentType == ContentTypeMsgPack {
				err = msgpack.Unmarshal(rec.Body.Bytes(), &decoded)
			} else {
				err = json.Unmarshal(rec.Body.Bytes(), &decoded)
			}
			if err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if decoded["station"] != "9414131" {
				t.Errorf("station = %v, expected 9414131", decoded["station"])
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs/nope", nil)

	if err := NewFormatter().WriteError(rec, req, http.StatusNotFound, "run not found"); err != nil {
		t.Fatalf("WriteError() error = %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected %d", rec.Code, http.StatusNotFound)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Error != "run not found" {
		t.Errorf("error = %q, expected %q", body.Error, "run not found")
	}
}
