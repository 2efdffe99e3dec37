package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryCtx(rawQuery string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/lands?"+rawQuery, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantSkip  int
		wantLimit int
	}{
		{"defaults", "", 0, 100},
		{"explicit", "skip=20&limit=10", 20, 10},
		{"limit capped", "limit=9999", 0, 500},
		{"negative skip ignored", "skip=-5", 0, 100},
		{"zero limit ignored", "limit=0", 0, 100},
		{"junk ignored", "skip=abc&limit=xyz", 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, limit := pagination(queryCtx(tt.query))
			assert.Equal(t, tt.wantSkip, skip)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestPathID(t *testing.T) {
	e := echo.New()
	newCtx := func(val string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(val)
		return c
	}

	id, err := pathID(newCtx("42"), "id")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"0", "-1", "abc", "", "1.5"} {
		_, err := pathID(newCtx(bad), "id")
		require.Error(t, err, "value %q", bad)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	}
}
