package apiclient_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	var v struct {
		A apiclient.ID `json:"a"`
		B apiclient.ID `json:"b"`
		C apiclient.ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":42,"b":"run-7","c":null}`), &v))
	require.Equal(t, apiclient.ID("42"), v.A)
	require.Equal(t, "run-7", v.B.String())
	require.Empty(t, v.C)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":42,"b":"run-7","c":""}`, string(out))
}

func TestTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2025-01-02T03:04:05Z"`, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{`"2025-01-02T03:04:05.123456"`, time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC)},
		{`"2025-01-02 03:04:05"`, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{`"2025-01-02"`, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{`null`, time.Time{}},
		{`""`, time.Time{}},
		{`"yesterday"`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got apiclient.Time
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			require.True(t, tt.want.Equal(got.Time), "got %v", got.Time)
		})
	}

	var zero apiclient.Time
	require.Equal(t, "-", zero.Format("2006-01-02"))
	out, err := json.Marshal(zero)
	require.NoError(t, err)
	require.Equal(t, "null", string(out))
}
