package adapter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		width   int
		want    [][]any
		wantErr string
	}{
		{
			name:  "plain rows",
			input: "1541105830796\t39\tfree\n1541106106796\t8\tpaid\n",
			width: 3,
			want: [][]any{
				{"1541105830796", "39", "free"},
				{"1541106106796", "8", "paid"},
			},
		},
		{
			name:  "null token and missing final newline",
			input: "1\tUnknown\tSan Jose",
			width: 3,
			want:  [][]any{{"1", nil, "San Jose"}},
		},
		{
			name:  "escaped characters",
			input: `a\tb` + "\t" + `c\\d` + "\t" + `e\nf` + "\n",
			width: 3,
			want:  [][]any{{"a\tb", `c\d`, "e\nf"}},
		},
		{
			name:  "empty input",
			input: "",
			width: 2,
			want:  nil,
		},
		{
			name:    "wrong width",
			input:   "a\tb\n",
			width:   3,
			wantErr: "line 1: expected 3 fields, got 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ReadTSV(strings.NewReader(tt.input), tt.width)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestEscapeTSVRoundTrip(t *testing.T) {
	value := "Mozilla/5.0\t(Windows)\\\nline"
	rows, err := ReadTSV(strings.NewReader(EscapeTSV(value)+"\n"), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, value, rows[0][0])
}
