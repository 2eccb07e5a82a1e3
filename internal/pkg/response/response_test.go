package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Amount int    `json:"amount"`
	Note   string `json:"note"`
}

func body(s string) io.ReadCloser { return io.NopCloser(strings.NewReader(s)) }

func TestDecodeJSON(t *testing.T) {
	var v sample
	require.NoError(t, DecodeJSON(body(`{"amount": 3, "note": "x"}`), &v))
	assert.Equal(t, 3, v.Amount)

	cases := map[string]string{
		"unknown field": `{"amount": 3, "extra": true}`,
		"wrong type":    `{"amount": "three"}`,
		"trailing data": `{"amount": 3} {"amount": 4}`,
		"not json":      `amount=3`,
		"empty":         ``,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var v sample
			err := DecodeJSON(body(raw), &v)
			assert.True(t, errors.Is(err, ErrInvalidBody), "got %v", err)
		})
	}
}

func TestErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	Forbidden(rr, "Admin access required")

	assert.Equal(t, http.StatusForbidden, rr.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, false, got["success"])
	assert.NotContains(t, got, "data")
	errInfo := got["error"].(map[string]interface{})
	assert.Equal(t, "FORBIDDEN", errInfo["code"])
}
