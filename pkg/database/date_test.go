package database

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2023, 12, 15, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, "2023-12-15", d.String())

	require.NoError(t, d.Scan([]byte("2024-02-29T00:00:00Z")))
	assert.Equal(t, "2024-02-29", d.String())
	assert.Error(t, d.Scan(42))

	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-02-29"}`, string(b))

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", v)

	assert.Error(t, json.Unmarshal([]byte(`"15/12/2023"`), &d))
}
